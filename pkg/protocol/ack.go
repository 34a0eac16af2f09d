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

import "strings"

// AckPrefix tags blood flow acknowledgements sent by the pump controller.
const AckPrefix = "BFR:"

// BloodFlowReading is the instantaneous blood flow rate reported by the pump
// controller, in LPM.
type BloodFlowReading struct {
	Rate float64
}

// ParseCommandAck parses a BFR:<float> acknowledgement. Lines without the
// tag are not acknowledgements and return nil with no error.
func ParseCommandAck(line string) (*BloodFlowReading, error) {
	trimmed := trimLine(line)
	if !strings.HasPrefix(trimmed, AckPrefix) {
		return nil, nil //nolint:nilnil // nil response means not an ack, not an error
	}

	parts := strings.Split(trimmed, ":")
	if len(parts) < 2 {
		return nil, malformed(line, "expected value after %s", AckPrefix)
	}

	v, err := parseFloat(parts[1])
	if err != nil {
		return nil, malformed(line, "blood flow rate: %v", err)
	}

	return &BloodFlowReading{Rate: v}, nil
}
