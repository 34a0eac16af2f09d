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

package protocol

import (
	"strconv"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func finiteFloat() *rapid.Generator[float64] {
	return rapid.Float64Range(-1e6, 1e6)
}

// TestPropertyTelemetryRoundTrip verifies every numeric 6 or 7 field line
// parses back to exactly the values that were printed.
func TestPropertyTelemetryRoundTrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(TelemetryFields, TelemetryFieldsWithFlow).Draw(t, "fields")
		vals := rapid.SliceOfN(finiteFloat(), n, n).Draw(t, "values")

		parts := make([]string, n)
		for i, v := range vals {
			parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		line := strings.Join(parts, ",")

		rec, err := ParseTelemetry(line)
		if err != nil {
			t.Fatalf("valid line %q rejected: %v", line, err)
		}

		got := []float64{
			rec.O2SaturationInlet,
			rec.TemperatureInlet,
			rec.O2SaturationOutlet,
			rec.TemperatureOutlet,
			rec.O2Concentration,
			rec.CO2Outlet,
		}
		if rec.HasBloodFlow {
			got = append(got, rec.BloodFlowRate)
		}
		if len(got) != n {
			t.Fatalf("expected %d values, got %d", n, len(got))
		}
		for i := range vals {
			if got[i] != vals[i] {
				t.Fatalf("field %d: expected %v, got %v", i, vals[i], got[i])
			}
		}
	})
}

// TestPropertyShortLinesRejected verifies lines with fewer than 6 fields are
// always malformed.
func TestPropertyShortLinesRejected(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, TelemetryFields-1).Draw(t, "fields")
		vals := rapid.SliceOfN(finiteFloat(), n, n).Draw(t, "values")

		parts := make([]string, n)
		for i, v := range vals {
			parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}

		if _, err := ParseTelemetry(strings.Join(parts, ",")); err == nil {
			t.Fatalf("short line accepted: %v", parts)
		}
	})
}

// TestPropertyCommandEncodingInjective verifies distinct values never share
// a wire string and the printed value parses back unchanged.
func TestPropertyCommandEncodingInjective(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		a := finiteFloat().Draw(t, "a")
		b := finiteFloat().Draw(t, "b")
		// -0 and 0 compare equal but print differently
		if a == 0 {
			a = 0
		}
		if b == 0 {
			b = 0
		}

		wa := string(EncodeFlow(TagFlow, a))
		wb := string(EncodeFlow(TagFlow, b))
		if (a == b) != (wa == wb) {
			t.Fatalf("encoding not injective: %v -> %q, %v -> %q", a, wa, b, wb)
		}

		back, err := strconv.ParseFloat(strings.TrimSuffix(wa[2:], "\n"), 64)
		if err != nil || back != a {
			t.Fatalf("wire value %q does not round trip to %v", wa, a)
		}
	})
}
