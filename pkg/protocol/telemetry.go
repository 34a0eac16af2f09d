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

// Package protocol implements the line-oriented text protocol spoken by the
// sensor and pump microcontrollers.
//
// Inbound telemetry lines are comma separated decimal floats:
//
//	o2_sat_in,temp_in,o2_sat_out,temp_out,o2_concentration,co2_outlet[,blood_flow_rate]
//
// The pump controller acknowledges with BFR:<float> lines carrying the
// measured blood flow rate. Outbound commands are M:<rpm> for the blood pump
// and F:<lpm> for the air flow valve. Every frame is terminated by '\n'.
package protocol

import (
	"math"
	"strconv"
	"strings"
)

const (
	// TelemetryFields is the minimum number of fields in a telemetry line.
	TelemetryFields = 6
	// TelemetryFieldsWithFlow is the field count of the variant that also
	// carries the blood flow rate.
	TelemetryFieldsWithFlow = 7

	fieldSeparator = ","
)

// TelemetryRecord is one validated sensor telemetry line.
type TelemetryRecord struct {
	O2SaturationInlet  float64
	TemperatureInlet   float64
	O2SaturationOutlet float64
	TemperatureOutlet  float64
	O2Concentration    float64
	CO2Outlet          float64
	BloodFlowRate      float64
	// HasBloodFlow is set when the line carried the optional 7th field.
	HasBloodFlow bool
}

// ParseTelemetry parses a single telemetry line with the terminator already
// removed. The record is all-or-nothing: a single bad field rejects the line.
func ParseTelemetry(line string) (TelemetryRecord, error) {
	trimmed := trimLine(line)
	if trimmed == "" {
		return TelemetryRecord{}, malformed(line, "empty line")
	}

	parts := strings.Split(trimmed, fieldSeparator)
	if len(parts) < TelemetryFields {
		return TelemetryRecord{}, malformed(
			line,
			"expected at least %d fields, got %d",
			TelemetryFields,
			len(parts),
		)
	}

	n := TelemetryFields
	if len(parts) >= TelemetryFieldsWithFlow {
		n = TelemetryFieldsWithFlow
	}

	vals := make([]float64, n)
	for i := range n {
		v, err := parseFloat(parts[i])
		if err != nil {
			return TelemetryRecord{}, malformed(line, "field %d: %v", i+1, err)
		}
		vals[i] = v
	}

	rec := TelemetryRecord{
		O2SaturationInlet:  vals[0],
		TemperatureInlet:   vals[1],
		O2SaturationOutlet: vals[2],
		TemperatureOutlet:  vals[3],
		O2Concentration:    vals[4],
		CO2Outlet:          vals[5],
	}
	if n == TelemetryFieldsWithFlow {
		rec.BloodFlowRate = vals[6]
		rec.HasBloodFlow = true
	}

	return rec, nil
}

func trimLine(line string) string {
	line = strings.TrimSpace(line)
	return strings.Trim(line, "\r")
}

// parseFloat accepts what the firmware prints with Serial.print: plain decimal
// numbers, optionally padded with spaces. NaN and infinities are rejected.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyField
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errNotNumber
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}
