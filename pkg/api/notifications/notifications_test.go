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

package notifications

import (
	"testing"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasts(t *testing.T) {
	t.Parallel()

	pump := "blood_pump"
	tests := []struct {
		send   func(chan<- models.Notification)
		name   string
		method string
		params string
	}{
		{
			name:   "telemetry",
			method: models.NotificationTelemetryUpdated,
			send: func(ns chan<- models.Notification) {
				TelemetryUpdated(ns, models.TelemetryResponse{O2SaturationInlet: 97.5})
			},
			params: `"o2SaturationInlet":97.5`,
		},
		{
			name:   "setpoints",
			method: models.NotificationSetpointsChanged,
			send: func(ns chan<- models.Notification) {
				SetpointsChanged(ns, models.SetpointsResponse{
					Active:    &pump,
					Commanded: models.SetpointValues{BloodPump: 150},
				})
			},
			params: `"active":"blood_pump"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ns := make(chan models.Notification, 1)
			tt.send(ns)

			require.Len(t, ns, 1)
			n := <-ns
			assert.Equal(t, tt.method, n.Method)
			assert.Contains(t, string(n.Params), tt.params)
		})
	}
}

func TestBroadcast_FullChannelDrops(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 1)
	TelemetryUpdated(ns, models.TelemetryResponse{CO2Outlet: 3.1})
	TelemetryUpdated(ns, models.TelemetryResponse{CO2Outlet: 3.2})

	require.Len(t, ns, 1)
	assert.Contains(t, string((<-ns).Params), `"co2Outlet":3.1`, "the queued event is kept")

	unbuffered := make(chan models.Notification)
	SetpointsChanged(unbuffered, models.SetpointsResponse{})
}

func TestBroadcast_NilChannel(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() {
		TelemetryUpdated(nil, models.TelemetryResponse{})
	})
}
