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

import "strconv"

const (
	// TagPumpSpeed prefixes blood pump speed commands (RPM).
	TagPumpSpeed byte = 'M'
	// TagFlow prefixes air flow commands (LPM).
	TagFlow byte = 'F'

	// Terminator ends every frame on the wire.
	Terminator = '\n'
)

// FormatValue renders v with the fewest digits that parse back to v, so two
// distinct setpoints never share a wire representation.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatCommand returns the command line for tag and value without the
// terminator.
func FormatCommand(tag byte, value float64) string {
	return string(tag) + ":" + FormatValue(value)
}

// EncodePumpSpeed returns the terminated wire bytes of a pump speed command.
func EncodePumpSpeed(rpm float64) []byte {
	return encode(TagPumpSpeed, rpm)
}

// EncodeFlow returns the terminated wire bytes of a flow command.
func EncodeFlow(tag byte, value float64) []byte {
	return encode(tag, value)
}

func encode(tag byte, value float64) []byte {
	b := make([]byte, 0, 24)
	b = append(b, tag, ':')
	b = strconv.AppendFloat(b, value, 'f', -1, 64)
	return append(b, Terminator)
}
