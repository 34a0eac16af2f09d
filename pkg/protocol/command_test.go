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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodePumpSpeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expected string
		rpm      float64
	}{
		{rpm: 0, expected: "M:0\n"},
		{rpm: 50, expected: "M:50\n"},
		{rpm: 1500, expected: "M:1500\n"},
		{rpm: -50, expected: "M:-50\n"},
		{rpm: 12.5, expected: "M:12.5\n"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, string(EncodePumpSpeed(tt.rpm)))
	}
}

func TestEncodeFlow(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "F:0.5\n", string(EncodeFlow(TagFlow, 0.5)))
	assert.Equal(t, "F:0\n", string(EncodeFlow(TagFlow, 0)))
	a, b := 0.1, 0.2
	assert.Equal(t, "F:0.30000000000000004\n", string(EncodeFlow(TagFlow, a+b)),
		"no precision truncation before encoding")
}

func TestFormatCommand(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "M:150", FormatCommand(TagPumpSpeed, 150))
	assert.Equal(t, "F:2.5", FormatCommand(TagFlow, 2.5))
	assert.Equal(t, FormatCommand(TagFlow, 2.5)+"\n", string(EncodeFlow(TagFlow, 2.5)))
}
