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
	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	t.Parallel()

	p, err := ParseProfile("single")
	require.NoError(t, err)
	assert.Equal(t, ProfileSingle, p)

	p, err = ParseProfile(" DUAL ")
	require.NoError(t, err)
	assert.Equal(t, ProfileDual, p)

	p, err = ParseProfile("")
	require.NoError(t, err)
	assert.Equal(t, ProfileDual, p)

	_, err = ParseProfile("triple")
	require.Error(t, err)
}

func TestCodecDecode_Single(t *testing.T) {
	t.Parallel()

	c := NewCodec(ProfileSingle)

	f, err := c.Decode("98.5,36.2,97.1,36.8,94.0,3.2,4.5")
	require.NoError(t, err)
	require.NotNil(t, f.Telemetry)
	assert.Nil(t, f.BloodFlow)
	assert.True(t, f.Telemetry.HasBloodFlow)
	assert.InDelta(t, 4.5, f.Telemetry.BloodFlowRate, 0)
}

func TestCodecDecode_DualDropsInlineFlow(t *testing.T) {
	t.Parallel()

	c := NewCodec(ProfileDual)

	f, err := c.Decode("98.5,36.2,97.1,36.8,94.0,3.2,4.5")
	require.NoError(t, err)
	require.NotNil(t, f.Telemetry)
	assert.False(t, f.Telemetry.HasBloodFlow)
	assert.Zero(t, f.Telemetry.BloodFlowRate)
	assert.InDelta(t, 94.0, f.Telemetry.O2Concentration, 0)
}

func TestCodecDecode_Ack(t *testing.T) {
	t.Parallel()

	for _, p := range []Profile{ProfileSingle, ProfileDual} {
		f, err := NewCodec(p).Decode("BFR:3.1")
		require.NoError(t, err)
		assert.Nil(t, f.Telemetry)
		require.NotNil(t, f.BloodFlow)
		assert.InDelta(t, 3.1, f.BloodFlow.Rate, 0)
	}
}

func TestCodecDecode_BlankAndMalformed(t *testing.T) {
	t.Parallel()

	c := NewCodec(ProfileDual)

	f, err := c.Decode("\r")
	require.NoError(t, err)
	assert.True(t, f.Empty())

	_, err = c.Decode("BFR:abc")
	require.ErrorIs(t, err, ErrMalformed)

	_, err = c.Decode("XYZ:1")
	require.ErrorIs(t, err, ErrMalformed)
}
