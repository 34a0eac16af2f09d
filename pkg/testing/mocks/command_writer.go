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
	"github.com/stretchr/testify/mock"
)

// MockCommandWriter is a testify mock for actuator.CommandWriter.
//
// Example:
//
//	w := &MockCommandWriter{}
//	w.On("WriteLine", "M:50").Return(nil)
type MockCommandWriter struct {
	mock.Mock
}

func (m *MockCommandWriter) WriteLine(line string) error {
	called := m.Called(line)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return called.Error(0)
}
