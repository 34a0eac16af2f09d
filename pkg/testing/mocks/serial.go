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
	"errors"
	"strings"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/helpers/syncutil"
)

// MockSerialPort is an in-memory serial port. Inbound bytes are queued with
// Feed and returned by Read without blocking; outbound bytes are recorded.
type MockSerialPort struct {
	ReadError   error
	WriteError  error
	DrainError  error
	CloseError  error
	TimeoutErr  error
	ReadFunc    func(p []byte) (n int, err error)
	pending     []byte
	written     []byte
	ReadTimeout time.Duration
	Drains      int
	Closed      bool
	mu          syncutil.Mutex
}

// NewMockSerialPort creates a new mock serial port for testing.
func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{ReadTimeout: -1}
}

// Feed queues bytes as if the device had sent them.
func (m *MockSerialPort) Feed(data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, data...)
}

func (m *MockSerialPort) Read(p []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Closed {
		return 0, errors.New("port closed")
	}

	if m.ReadFunc != nil {
		return m.ReadFunc(p)
	}

	if m.ReadError != nil {
		return 0, m.ReadError
	}

	// zero timeout: nothing available returns immediately
	if len(m.pending) == 0 {
		return 0, nil
	}

	n = copy(p, m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

func (m *MockSerialPort) Write(p []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Closed {
		return 0, errors.New("port closed")
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}

	m.written = append(m.written, p...)
	return len(p), nil
}

func (m *MockSerialPort) Drain() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Drains++
	return m.DrainError
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return m.CloseError
}

func (m *MockSerialPort) SetReadTimeout(t time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadTimeout = t
	return m.TimeoutErr
}

// SetWriteError changes the write error (thread-safe).
func (m *MockSerialPort) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteError = err
}

// Written returns everything written to the port so far.
func (m *MockSerialPort) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.written)
}

// WrittenLines returns the written lines without their terminators.
func (m *MockSerialPort) WrittenLines() []string {
	w := m.Written()
	if w == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(w, "\n"), "\n")
}

// IsClosed returns true if the port has been closed (thread-safe).
func (m *MockSerialPort) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}
