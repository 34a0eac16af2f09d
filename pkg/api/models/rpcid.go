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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidRPCID = errors.New("request id must be a string, number or null")

// RPCID holds a request id in the exact encoding the client used, so a
// numeric 1 and a string "1" stay distinct when echoed back.
type RPCID struct {
	raw []byte
}

var NullRPCID = RPCID{raw: []byte("null")}

func NewStringID(s string) RPCID {
	raw, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("encoding string id: %v", err))
	}
	return RPCID{raw: raw}
}

func (id *RPCID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidRPCID
	}
	switch c := data[0]; {
	case c == '"', c == '-', c >= '0' && c <= '9', bytes.Equal(data, NullRPCID.raw):
	default:
		return fmt.Errorf("%w: %s", ErrInvalidRPCID, data)
	}
	id.raw = bytes.Clone(data)
	return nil
}

func (id RPCID) MarshalJSON() ([]byte, error) {
	if len(id.raw) == 0 {
		return bytes.Clone(NullRPCID.raw), nil
	}
	return id.raw, nil
}

// IsAbsent reports a request sent without an id, which JSON-RPC treats as
// a notification.
func (id *RPCID) IsAbsent() bool {
	return id == nil || len(id.raw) == 0
}

func (id *RPCID) Equal(other RPCID) bool {
	if id.IsAbsent() {
		return len(other.raw) == 0
	}
	return bytes.Equal(id.raw, other.raw)
}

func (id *RPCID) String() string {
	if id.IsAbsent() {
		return "null"
	}
	return string(id.raw)
}
