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
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/ecmo-console/ecmo-core/internal/reporting"
	"github.com/ecmo-console/ecmo-core/pkg/api/client"
	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/config"
	"github.com/ecmo-console/ecmo-core/pkg/helpers"
	"github.com/rs/zerolog/log"
)

var ErrMissingValue = errors.New("flag requires a value")

type Flags struct {
	fs        *flag.FlagSet
	API       *string
	Select    *string
	Watch     *string
	ConfigDir *string
	Version   *bool
	Telemetry *bool
	Setpoints *bool
	Health    *bool
	Increment *bool
	Decrement *bool
	Deselect  *bool
	Daemon    *bool
}

// SetupFlags defines the CLI flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs: fs,
		API: fs.String(
			"api",
			"",
			"send method and params to API and print response",
		),
		Select: fs.String(
			"select",
			"",
			"make a module active (blood_pump, o2_flow, air_flow)",
		),
		Watch: fs.String(
			"watch",
			"",
			"print the next notification of the given method and exit",
		),
		ConfigDir: fs.String(
			"config-dir",
			DefaultConfigDir(),
			"directory holding "+config.CfgFile,
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Telemetry: fs.Bool(
			"telemetry",
			false,
			"print the latest telemetry",
		),
		Setpoints: fs.Bool(
			"setpoints",
			false,
			"print the commanded and transmitted setpoints",
		),
		Health: fs.Bool(
			"health",
			false,
			"print link and telemetry health",
		),
		Increment: fs.Bool(
			"increment",
			false,
			"step the active module up",
		),
		Decrement: fs.Bool(
			"decrement",
			false,
			"step the active module down",
		),
		Deselect: fs.Bool(
			"deselect",
			false,
			"clear the active module",
		),
		Daemon: fs.Bool(
			"daemon",
			false,
			"run service in foreground with logs on stderr",
		),
	}
}

// DefaultConfigDir is the per-user XDG config directory.
func DefaultConfigDir() string {
	return filepath.Join(xdg.ConfigHome, config.AppName)
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses args and handles flags that don't need any setup. It reports
// whether the process should exit.
func (f *Flags) Pre(args []string, out io.Writer) (bool, error) {
	if err := f.fs.Parse(args); err != nil {
		return true, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *f.Version {
		_, _ = fmt.Fprintf(out, "ECMO Console Core v%s\n", config.AppVersion)
		return true, nil
	}
	return false, nil
}

// request maps the passed action flag to an API method and its params. ok is
// false when no action flag was passed.
func (f *Flags) request() (method, params string, ok bool, err error) {
	switch {
	case f.isFlagPassed("api"):
		if *f.API == "" {
			return "", "", true, fmt.Errorf("api: %w", ErrMissingValue)
		}
		ps := strings.SplitN(*f.API, ":", 2)
		method = ps[0]
		if len(ps) > 1 {
			params = ps[1]
		}
		return method, params, true, nil
	case f.isFlagPassed("select"):
		if *f.Select == "" {
			return "", "", true, fmt.Errorf("select: %w", ErrMissingValue)
		}
		data, err := json.Marshal(&models.SelectModuleParams{Module: *f.Select})
		if err != nil {
			return "", "", true, fmt.Errorf("error encoding params: %w", err)
		}
		return models.MethodModulesSelect, string(data), true, nil
	case *f.Telemetry:
		return models.MethodTelemetry, "", true, nil
	case *f.Setpoints:
		return models.MethodSetpoints, "", true, nil
	case *f.Health:
		return models.MethodHealth, "", true, nil
	case *f.Increment:
		return models.MethodModulesIncrement, "", true, nil
	case *f.Decrement:
		return models.MethodModulesDecrement, "", true, nil
	case *f.Deselect:
		return models.MethodModulesDeselect, "", true, nil
	default:
		return "", "", false, nil
	}
}

// Post handles the flags that talk to a running service. It reports whether
// a flag was handled, in which case the process should exit.
func (f *Flags) Post(ctx context.Context, api client.APIClient, out io.Writer) (bool, error) {
	if f.isFlagPassed("watch") {
		if *f.Watch == "" {
			return true, fmt.Errorf("watch: %w", ErrMissingValue)
		}
		resp, err := api.WaitNotification(ctx, -1, *f.Watch)
		if err != nil {
			log.Error().Err(err).Msg("error waiting for notification")
			return true, fmt.Errorf("error waiting for notification: %w", err)
		}
		_, _ = fmt.Fprintln(out, resp)
		return true, nil
	}

	method, params, ok, err := f.request()
	if !ok {
		return false, nil
	}
	if err != nil {
		return true, err
	}

	resp, err := api.Call(ctx, method, params)
	if err != nil {
		log.Error().Err(err).Str("method", method).Msg("error calling API")
		return true, fmt.Errorf("error calling API: %w", err)
	}

	_, _ = fmt.Fprintln(out, resp)
	return true, nil
}

// Setup loads the config from configDir, then starts logging and error
// reporting according to it.
func Setup(configDir string, writers []io.Writer) (*config.Instance, error) {
	cfg, err := config.NewConfig(configDir, config.BaseDefaults)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	err = helpers.InitLogging(cfg.LogDir(), cfg.DebugLogging(), writers...)
	if err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	if err := reporting.Init(
		cfg.ErrorReporting(),
		cfg.DeviceID(),
		cfg.Protocol(),
	); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg, nil
}
