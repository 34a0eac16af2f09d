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

package link

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialPort is the part of serial.Port a link uses.
type SerialPort interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Drain() error
	Close() error
	SetReadTimeout(t time.Duration) error
}

// SerialPortFactory opens the port at path. Tests swap in fakes.
type SerialPortFactory func(path string, mode *serial.Mode) (SerialPort, error)

func DefaultSerialPortFactory(path string, mode *serial.Mode) (SerialPort, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("opening %s at %d baud: %w", path, mode.BaudRate, err)
	}
	return port, nil
}

// deviceGone reports errors after which the port will not come back, such
// as a USB cable pulled from the console.
func deviceGone(err error) bool {
	code, ok := portErrorCode(err)
	if !ok {
		return false
	}
	return code == serial.PortNotFound || code == serial.PortClosed || code == serial.InvalidSerialPort
}

// portErrorCode unwraps a serial.PortError, which the library returns both
// by value and by pointer.
func portErrorCode(err error) (serial.PortErrorCode, bool) {
	if ptr := (*serial.PortError)(nil); errors.As(err, &ptr) {
		return ptr.Code(), true
	}
	if val := (serial.PortError{}); errors.As(err, &val) {
		return val.Code(), true
	}
	return 0, false
}
