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
	"context"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/api/client"
	"github.com/stretchr/testify/mock"
)

// MockAPIClient answers command line requests without a running service.
type MockAPIClient struct {
	mock.Mock
}

var _ client.APIClient = (*MockAPIClient)(nil)

func NewMockAPIClient() *MockAPIClient {
	return new(MockAPIClient)
}

func (m *MockAPIClient) Call(ctx context.Context, method, params string) (string, error) {
	ret := m.Called(ctx, method, params)
	return ret.String(0), ret.Error(1)
}

func (m *MockAPIClient) WaitNotification(ctx context.Context, timeout time.Duration, method string) (string, error) {
	ret := m.Called(ctx, timeout, method)
	return ret.String(0), ret.Error(1)
}

// SetupCall answers method with the raw JSON result when sent exactly params.
func (m *MockAPIClient) SetupCall(method, params, result string) *mock.Call {
	return m.On("Call", mock.Anything, method, params).Return(result, nil)
}

// SetupCallError fails method whatever its params.
func (m *MockAPIClient) SetupCallError(method string, err error) *mock.Call {
	return m.On("Call", mock.Anything, method, mock.Anything).Return("", err)
}
