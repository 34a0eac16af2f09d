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
	"testing"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineWriter chan string

func (w lineWriter) Write(p []byte) (int, error) {
	w <- string(p)
	return len(p), nil
}

func TestStatusLine(t *testing.T) {
	t.Parallel()

	active := "blood_pump"
	tel := models.TelemetryResponse{
		Display: models.TelemetryDisplay{
			O2SaturationInlet:  "97.1",
			TemperatureInlet:   "36.5",
			O2SaturationOutlet: "99.0",
			TemperatureOutlet:  "37.0",
			O2Concentration:    "45.0",
			CO2Outlet:          "3.20",
			BloodFlowRate:      "4.25",
		},
	}
	sp := models.SetpointsResponse{
		Active:    &active,
		Commanded: models.SetpointValues{BloodPump: 150, AirFlow: 0.5},
		Diverged:  []string{},
	}

	line := StatusLine(&tel, &sp)
	assert.Contains(t, line, "SaO2 in 97.1%")
	assert.Contains(t, line, "CO2 3.20")
	assert.Contains(t, line, "BFR 4.25 L/min")
	assert.Contains(t, line, "pump 150 rpm")
	assert.Contains(t, line, "air 0.5 L/min")
	assert.Contains(t, line, "active blood_pump")
	assert.NotContains(t, line, "STALE")
	assert.NotContains(t, line, "not sent")

	tel.Stale = true
	sp.Active = nil
	sp.Diverged = []string{"blood_pump"}
	line = StatusLine(&tel, &sp)
	assert.Contains(t, line, "active -")
	assert.Contains(t, line, "STALE")
	assert.Contains(t, line, "not sent: [blood_pump]")
}

func TestPrintStatus(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	console := mocks.NewMockConsole()
	console.SetupTelemetry(models.TelemetryResponse{
		Display: models.TelemetryDisplay{BloodFlowRate: "4.00"},
	})
	console.On("SetpointsResponse").Return(models.SetpointsResponse{})

	ctx, cancel := context.WithCancel(context.Background())
	out := make(lineWriter, 1)
	done := make(chan struct{})
	go func() {
		printStatus(ctx, clock, console, out)
		close(done)
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	clock.Advance(statusInterval)

	select {
	case line := <-out:
		assert.Contains(t, line, "BFR 4.00 L/min")
	case <-time.After(2 * time.Second):
		t.Fatal("no status line printed")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("status printer did not stop")
	}
}
