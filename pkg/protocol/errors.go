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
	"errors"
	"fmt"
)

// ErrMalformed is matched by every frame parsing failure.
var ErrMalformed = errors.New("malformed frame")

var (
	errEmptyField = errors.New("empty field")
	errNotNumber  = errors.New("not a decimal number")
	errNotFinite  = errors.New("value is not finite")
)

// ParseError describes a rejected inbound line. Line holds the raw input so
// callers can log exactly what the device sent.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed frame %q: %s", e.Line, e.Reason)
}

func (*ParseError) Unwrap() error {
	return ErrMalformed
}

func malformed(line, format string, args ...any) error {
	return &ParseError{
		Line:   line,
		Reason: fmt.Sprintf(format, args...),
	}
}
