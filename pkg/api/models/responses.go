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

package models

import "time"

type TelemetryDisplay struct {
	O2SaturationInlet  string `json:"o2SaturationInlet"`
	TemperatureInlet   string `json:"temperatureInlet"`
	O2SaturationOutlet string `json:"o2SaturationOutlet"`
	TemperatureOutlet  string `json:"temperatureOutlet"`
	O2Concentration    string `json:"o2Concentration"`
	CO2Outlet          string `json:"co2Outlet"`
	BloodFlowRate      string `json:"bloodFlowRate"`
}

type TelemetryResponse struct {
	LastUpdate         *time.Time       `json:"lastUpdate,omitempty"`
	AgeMs              *int64           `json:"ageMs,omitempty"`
	Display            TelemetryDisplay `json:"display"`
	O2SaturationInlet  float64          `json:"o2SaturationInlet"`
	TemperatureInlet   float64          `json:"temperatureInlet"`
	O2SaturationOutlet float64          `json:"o2SaturationOutlet"`
	TemperatureOutlet  float64          `json:"temperatureOutlet"`
	O2Concentration    float64          `json:"o2Concentration"`
	CO2Outlet          float64          `json:"co2Outlet"`
	BloodFlowRate      float64          `json:"bloodFlowRate"`
	Stale              bool             `json:"stale"`
}

type SetpointValues struct {
	BloodPump float64 `json:"bloodPump"`
	O2Flow    float64 `json:"o2Flow"`
	AirFlow   float64 `json:"airFlow"`
}

type SetpointsResponse struct {
	Active      *string        `json:"active"`
	Diverged    []string       `json:"diverged"`
	Commanded   SetpointValues `json:"commanded"`
	Transmitted SetpointValues `json:"transmitted"`
}

type ActiveModuleResponse struct {
	Active *string `json:"active"`
}

type AdjustmentResponse struct {
	Module   string  `json:"module"`
	Previous float64 `json:"previous"`
	Value    float64 `json:"value"`
	Changed  bool    `json:"changed"`
	Sent     bool    `json:"sent"`
}

type VersionResponse struct {
	Version  string `json:"version"`
	Protocol string `json:"protocol"`
}

type LinkHealth struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Frames uint64 `json:"frames"`
	Open   bool   `json:"open"`
}

type HealthResponse struct {
	Links []LinkHealth `json:"links"`
	AgeMs *int64       `json:"ageMs,omitempty"`
	Stale bool         `json:"stale"`
}
