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
)

const (
	NotificationTelemetryUpdated = "telemetry.updated"
	NotificationSetpointsChanged = "setpoints.changed"
)

const (
	MethodTelemetry        = "telemetry"
	MethodSetpoints        = "setpoints"
	MethodModulesSelect    = "modules.select"
	MethodModulesDeselect  = "modules.deselect"
	MethodModulesIncrement = "modules.increment"
	MethodModulesDecrement = "modules.decrement"
	MethodHealth           = "health"
	MethodVersion          = "version"
)

type Notification struct {
	Method string
	Params json.RawMessage
}

type RequestObject struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *RPCID          `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// UnmarshalJSON keeps an explicit "id": null apart from a missing id. The
// first is a request owed a reply, the second a notification.
func (r *RequestObject) UnmarshalJSON(data []byte) error {
	type plain RequestObject
	var fields struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = RequestObject(fields.plain)
	r.ID = nil
	if fields.ID != nil {
		var id RPCID
		if err := id.UnmarshalJSON(fields.ID); err != nil {
			return err
		}
		r.ID = &id
	}
	return nil
}

type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ResponseObject struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
	Result  any          `json:"result"`
	Error   *ErrorObject `json:"error,omitempty"`
}

// ResponseErrorObject exists for sending errors, so we can omit result from
// the response, but so nil responses are still returned when using the main
// ResponseObject.
type ResponseErrorObject struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
	Error   *ErrorObject `json:"error"`
}
