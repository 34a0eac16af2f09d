// ECMO Console Core
// Copyright (c) 2026 The ECMO Console Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of ECMO Console Core.
//
// ECMO Console Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ECMO Console Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ECMO Console Core.  If not, see <http://www.gnu.org/licenses/>.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/api/client"
	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/config"
	"github.com/ecmo-console/ecmo-core/pkg/service"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const statusInterval = time.Second

// IsServiceRunning reports whether a service already answers on the
// configured API address.
func IsServiceRunning(ctx context.Context, api client.APIClient) bool {
	_, err := api.Call(ctx, models.MethodVersion, "")
	if err != nil {
		log.Debug().Err(err).Msg("error checking if service running")
		return false
	}
	return true
}

// StatusLine renders one line of console state for the terminal monitor.
func StatusLine(t *models.TelemetryResponse, sp *models.SetpointsResponse) string {
	active := "-"
	if sp.Active != nil {
		active = *sp.Active
	}

	line := fmt.Sprintf(
		"SaO2 in %s%% T in %s°C SaO2 out %s%% T out %s°C FiO2 %s%% CO2 %s BFR %s L/min | "+
			"pump %g rpm O2 %g L/min air %g L/min | active %s",
		t.Display.O2SaturationInlet,
		t.Display.TemperatureInlet,
		t.Display.O2SaturationOutlet,
		t.Display.TemperatureOutlet,
		t.Display.O2Concentration,
		t.Display.CO2Outlet,
		t.Display.BloodFlowRate,
		sp.Commanded.BloodPump,
		sp.Commanded.O2Flow,
		sp.Commanded.AirFlow,
		active,
	)
	if t.Stale {
		line += " | STALE"
	}
	if len(sp.Diverged) > 0 {
		line += fmt.Sprintf(" | not sent: %v", sp.Diverged)
	}
	return line
}

type statusSource interface {
	TelemetryResponse() models.TelemetryResponse
	SetpointsResponse() models.SetpointsResponse
}

func printStatus(ctx context.Context, clock clockwork.Clock, console statusSource, out io.Writer) {
	ticker := clock.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t := console.TelemetryResponse()
			sp := console.SetpointsResponse()
			_, _ = fmt.Fprintln(out, StatusLine(&t, &sp))
		}
	}
}

// RunApp runs the service until a signal arrives or the service stops on
// its own. Outside daemon mode a status line is printed to out every second.
func RunApp(cfg *config.Instance, daemonMode bool, out io.Writer) (returnErr error) {
	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %v\n", r)
			log.Error().Msgf("panic recovered: %v", r)
			returnErr = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if IsServiceRunning(ctx, client.NewLocalAPIClient(cfg)) {
		log.Info().Str("address", cfg.APIListen()).Msg("service already running, exiting")
		return nil
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	console, stopSvc, svcDone, err := service.Start(cfg, service.Options{})
	if err != nil {
		log.Error().Msgf("error starting service: %s", err)
		return fmt.Errorf("error starting service: %w", err)
	}
	defer func() {
		if err := stopSvc(); err != nil {
			log.Error().Msgf("error stopping service: %s", err)
		}
	}()

	if daemonMode {
		log.Info().Msg("started in daemon mode")
	} else {
		go printStatus(ctx, clockwork.NewRealClock(), console, out)
	}

	select {
	case sig := <-sigs:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-svcDone:
		log.Info().Msg("service shut down internally")
	}

	return nil
}
