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

package validation

import (
	"encoding/json"
	"testing"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndUnmarshal_SelectModule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		params  string
		wantMsg string
		want    string
	}{
		{name: "blood pump", params: `{"module":"blood_pump"}`, want: "blood_pump"},
		{name: "mixed case", params: `{"module":"Air_Flow"}`, want: "Air_Flow"},
		{name: "surrounding whitespace", params: "  {\"module\":\"o2_flow\"}\n", want: "o2_flow"},
		{name: "absent", params: "", wantErr: ErrMissingParams},
		{name: "null", params: " null ", wantErr: ErrMissingParams},
		{name: "truncated", params: `{"module":`, wantErr: ErrInvalidParams},
		{name: "number", params: `{"module":3}`, wantErr: ErrInvalidParams},
		{name: "extra field", params: `{"module":"o2_flow","step":2}`, wantErr: ErrInvalidParams},
		{name: "empty object", params: `{}`, wantMsg: "module is required"},
		{name: "display label", params: `{"module":"Blood Pump"}`, wantMsg: `unknown module "Blood Pump"`},
		{
			name:    "unknown",
			params:  `{"module":"sweep_gas"}`,
			wantMsg: `unknown module "sweep_gas", expected one of blood_pump, o2_flow, air_flow`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var p models.SelectModuleParams
			err := ValidateAndUnmarshal(json.RawMessage(tt.params), &p)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantMsg != "":
				var verr *Error
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Error(), tt.wantMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, p.Module)
			}
		})
	}
}

func TestCheck_FieldsUseJSONNames(t *testing.T) {
	t.Parallel()

	err := Check(&models.SelectModuleParams{})

	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, FieldError{
		Field:   "module",
		Rule:    "required",
		Message: "module is required",
	}, verr.Fields[0])
}

func TestCheck_RuleMessages(t *testing.T) {
	t.Parallel()

	type interval struct {
		Ms int `json:"interval_ms" validate:"gt=0"`
	}
	type port struct {
		Port int `json:"api_port" validate:"lte=65535"`
	}
	type profile struct {
		Protocol string `json:"protocol" validate:"oneof=single dual"`
	}
	type label struct {
		Name string `json:"-" validate:"alphanum"`
	}

	tests := []struct {
		params any
		name   string
		want   string
	}{
		{name: "gt", params: &interval{Ms: 0}, want: "interval_ms must be greater than 0"},
		{name: "lte", params: &port{Port: 70000}, want: "api_port must be at most 65535"},
		{name: "oneof", params: &profile{Protocol: "triple"}, want: "protocol must be one of [single dual], got triple"},
		{name: "fallback", params: &label{Name: "a b"}, want: "is invalid (alphanum)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Check(tt.params)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCheck_Valid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Check(&models.SelectModuleParams{Module: "blood_pump"}))
}

func TestError_NoFields(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "invalid params", (&Error{}).Error())
}
