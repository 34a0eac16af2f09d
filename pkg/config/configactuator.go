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

package config

import "time"

const (
	DefaultBloodPumpStep = 50.0
	DefaultO2FlowStep    = 0.5
	DefaultAirFlowStep   = 0.5

	DefaultPollInterval = 1 * time.Second
	DefaultStaleAfter   = 5 * time.Second
)

// Actuator overrides the per-press step of each module. Unset values use
// the defaults above. Steps below the setpoint resolution of 1e-6 would
// round away, and the bounds also reject inf and nan.
type Actuator struct {
	BloodPumpStep *float64 `toml:"blood_pump_step,omitempty" validate:"omitempty,gte=0.000001,lte=10000"`
	O2FlowStep    *float64 `toml:"o2_flow_step,omitempty" validate:"omitempty,gte=0.000001,lte=10000"`
	AirFlowStep   *float64 `toml:"air_flow_step,omitempty" validate:"omitempty,gte=0.000001,lte=10000"`
}

type Poll struct {
	IntervalMs   *int `toml:"interval_ms,omitempty" validate:"omitempty,gt=0"`
	StaleAfterMs *int `toml:"stale_after_ms,omitempty" validate:"omitempty,gt=0"`
}

// Steps is the resolved step table.
type Steps struct {
	BloodPump float64
	O2Flow    float64
	AirFlow   float64
}

func (c *Instance) ActuatorSteps() Steps {
	return view(c, func(v *Values) Steps {
		return Steps{
			BloodPump: orDefault(v.Actuator.BloodPumpStep, DefaultBloodPumpStep),
			O2Flow:    orDefault(v.Actuator.O2FlowStep, DefaultO2FlowStep),
			AirFlow:   orDefault(v.Actuator.AirFlowStep, DefaultAirFlowStep),
		}
	})
}

func millis(p *int, def time.Duration) time.Duration {
	if p == nil {
		return def
	}
	return time.Duration(*p) * time.Millisecond
}

func (c *Instance) PollInterval() time.Duration {
	return view(c, func(v *Values) time.Duration { return millis(v.Poll.IntervalMs, DefaultPollInterval) })
}

// StaleAfter is how long telemetry may go without an update before it is
// reported as stale to the UI.
func (c *Instance) StaleAfter() time.Duration {
	return view(c, func(v *Values) time.Duration { return millis(v.Poll.StaleAfterMs, DefaultStaleAfter) })
}
