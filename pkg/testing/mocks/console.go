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

package mocks

import (
	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/stretchr/testify/mock"
)

// MockConsole is a mock implementation of requests.Console for testing.
type MockConsole struct {
	mock.Mock
}

func NewMockConsole() *MockConsole {
	return &MockConsole{}
}

func (m *MockConsole) TelemetryResponse() models.TelemetryResponse {
	args := m.Called()
	if resp, ok := args.Get(0).(models.TelemetryResponse); ok {
		return resp
	}
	return models.TelemetryResponse{}
}

func (m *MockConsole) SetpointsResponse() models.SetpointsResponse {
	args := m.Called()
	if resp, ok := args.Get(0).(models.SetpointsResponse); ok {
		return resp
	}
	return models.SetpointsResponse{}
}

func (m *MockConsole) HealthResponse() models.HealthResponse {
	args := m.Called()
	if resp, ok := args.Get(0).(models.HealthResponse); ok {
		return resp
	}
	return models.HealthResponse{}
}

func (m *MockConsole) Select(module string) (models.ActiveModuleResponse, error) {
	args := m.Called(module)
	resp, _ := args.Get(0).(models.ActiveModuleResponse)
	return resp, args.Error(1)
}

func (m *MockConsole) Deselect() {
	m.Called()
}

func (m *MockConsole) Step(increment bool) (models.AdjustmentResponse, error) {
	args := m.Called(increment)
	resp, _ := args.Get(0).(models.AdjustmentResponse)
	return resp, args.Error(1)
}

func (m *MockConsole) Protocol() string {
	args := m.Called()
	return args.String(0)
}

// SetupTelemetry configures the mock to return a telemetry response.
func (m *MockConsole) SetupTelemetry(resp models.TelemetryResponse) {
	m.On("TelemetryResponse").Return(resp)
}

// SetupStep configures the mock to return an adjustment for one direction.
func (m *MockConsole) SetupStep(increment bool, resp models.AdjustmentResponse, err error) {
	m.On("Step", increment).Return(resp, err)
}
