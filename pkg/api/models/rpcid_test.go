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

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCID_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{name: "string", in: `"abc-1"`},
		{name: "integer", in: `42`},
		{name: "negative", in: `-7`},
		{name: "fraction", in: `1.5`},
		{name: "null", in: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var id RPCID
			require.NoError(t, json.Unmarshal([]byte(tt.in), &id))
			assert.Equal(t, tt.in, id.String())

			out, err := json.Marshal(id)
			require.NoError(t, err)
			assert.JSONEq(t, tt.in, string(out))
		})
	}
}

func TestRPCID_RejectsStructuredIDs(t *testing.T) {
	t.Parallel()

	for _, in := range []string{`{"a":1}`, `[1]`, `true`} {
		var id RPCID
		err := json.Unmarshal([]byte(in), &id)
		require.ErrorIs(t, err, ErrInvalidRPCID, in)
	}
}

func TestRPCID_NumberAndStringDiffer(t *testing.T) {
	t.Parallel()

	var num, str RPCID
	require.NoError(t, json.Unmarshal([]byte(`1`), &num))
	require.NoError(t, json.Unmarshal([]byte(`"1"`), &str))
	assert.False(t, num.Equal(str))
	assert.True(t, num.Equal(num))
}

func TestRPCID_Absent(t *testing.T) {
	t.Parallel()

	var req struct {
		ID *RPCID `json:"id,omitempty"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.True(t, req.ID.IsAbsent())
	assert.Equal(t, "null", req.ID.String())

	out, err := json.Marshal(RPCID{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	id := NewStringID("x")
	assert.Equal(t, `"x"`, id.String())
}

func TestRequestObject_IDPresence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		absent bool
		id     string
	}{
		{name: "missing", in: `{"jsonrpc":"2.0","method":"version"}`, absent: true, id: "null"},
		{name: "explicit null", in: `{"jsonrpc":"2.0","id":null,"method":"version"}`, id: "null"},
		{name: "number", in: `{"jsonrpc":"2.0","id":3,"method":"version"}`, id: "3"},
		{name: "string", in: `{"jsonrpc":"2.0","id":"a","method":"version"}`, id: `"a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var req RequestObject
			require.NoError(t, json.Unmarshal([]byte(tt.in), &req))
			assert.Equal(t, "version", req.Method)
			assert.Equal(t, tt.absent, req.ID.IsAbsent())
			assert.Equal(t, tt.id, req.ID.String())
		})
	}

	var req RequestObject
	require.ErrorIs(t, json.Unmarshal([]byte(`{"id":true,"method":"version"}`), &req), ErrInvalidRPCID)
}
