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

// Package link turns a serial port into a source and sink of newline
// terminated frames.
package link

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ecmo-console/ecmo-core/pkg/config"
	"github.com/ecmo-console/ecmo-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

const (
	// MaxLineLength bounds the bytes buffered without a terminator. A device
	// streaming garbage cannot grow the buffer past this.
	MaxLineLength = 4096

	readChunkSize = 1024
	// maxReadsPerPoll stops a device that never stops talking from holding
	// the link forever inside one call.
	maxReadsPerPoll = 16
)

var (
	ErrClosed          = errors.New("link closed")
	ErrWriteFailed     = errors.New("link write failed")
	ErrReadFailed      = errors.New("link read failed")
	ErrPortUnavailable = errors.New("serial port unavailable")
)

// Link owns one serial port. Reads and writes are serialised on the link
// mutex, so inbound and outbound frames interleave only at line boundaries.
type Link struct {
	port   SerialPort
	name   string
	buf    []byte
	seq    uint64
	mu     syncutil.Mutex
	closed bool
}

// Open opens the configured port in non-blocking read mode. Failure to open
// is returned as ErrPortUnavailable; the console must not run without its
// telemetry source.
func Open(cfg config.LinkConfig, factory SerialPortFactory) (*Link, error) {
	if factory == nil {
		factory = DefaultSerialPortFactory
	}

	port, err := factory(cfg.Path, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPortUnavailable, cfg.Path, err)
	}

	// zero timeout turns Read into a poll of whatever is already buffered
	err = port.SetReadTimeout(0)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: failed to set read timeout on %s: %w", ErrPortUnavailable, cfg.Path, err)
	}

	log.Info().Str("link", cfg.ConnectionString()).Msg("serial link opened")

	return New(port, cfg.ConnectionString()), nil
}

// New wraps an already open port.
func New(port SerialPort, name string) *Link {
	return &Link{
		port: port,
		name: name,
	}
}

func (l *Link) Name() string {
	return l.name
}

// Seq returns the number of frames read or written so far.
func (l *Link) Seq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

func (l *Link) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// TryNextLine returns the next complete line with its terminator removed.
// ok is false when no complete line is available yet; partial input stays
// buffered for the next call.
func (l *Link) TryNextLine() (line string, ok bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return "", false, ErrClosed
	}

	if line, ok := l.popLineLocked(); ok {
		return line, true, nil
	}

	if err := l.fillLocked(); err != nil {
		return "", false, err
	}

	line, ok = l.popLineLocked()
	return line, ok, nil
}

func (l *Link) popLineLocked() (string, bool) {
	i := bytes.IndexByte(l.buf, '\n')
	if i < 0 {
		return "", false
	}

	line := string(l.buf[:i])
	l.buf = l.buf[i+1:]
	if len(l.buf) == 0 {
		l.buf = nil
	}
	l.seq++

	log.Trace().Str("link", l.name).Uint64("seq", l.seq).Str("line", line).Msg("frame received")
	return line, true
}

func (l *Link) fillLocked() error {
	chunk := make([]byte, readChunkSize)

	for range maxReadsPerPoll {
		n, err := l.port.Read(chunk)
		if err != nil {
			if deviceGone(err) {
				log.Error().Err(err).Str("link", l.name).Msg("serial device disconnected, closing link")
				_ = l.closeLocked()
				return fmt.Errorf("%w: %w", ErrClosed, err)
			}
			return fmt.Errorf("%w: %w", ErrReadFailed, err)
		}

		l.buf = append(l.buf, chunk[:n]...)

		if len(l.buf) > MaxLineLength && bytes.LastIndexByte(l.buf, '\n') < 0 {
			log.Warn().
				Str("link", l.name).
				Int("bytes", len(l.buf)).
				Msg("discarding unterminated input")
			l.buf = nil
		}

		if n < len(chunk) {
			break
		}
	}

	return nil
}

// WriteLine writes line plus the terminator and drains the port so the
// device sees the frame immediately.
func (l *Link) WriteLine(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	data := make([]byte, 0, len(line)+1)
	data = append(data, line...)
	data = append(data, '\n')

	n, err := l.port.Write(data)
	if err != nil {
		if deviceGone(err) {
			log.Error().Err(err).Str("link", l.name).Msg("serial device disconnected, closing link")
			_ = l.closeLocked()
		}
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: short write (%d of %d bytes)", ErrWriteFailed, n, len(data))
	}

	if err := l.port.Drain(); err != nil {
		return fmt.Errorf("%w: failed to drain port: %w", ErrWriteFailed, err)
	}

	l.seq++
	log.Debug().Str("link", l.name).Uint64("seq", l.seq).Str("line", line).Msg("frame sent")
	return nil
}

// Close closes the port. Calling it again is a no-op.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	return l.closeLocked()
}

func (l *Link) closeLocked() error {
	l.closed = true
	l.buf = nil

	err := l.port.Close()
	if err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", l.name, err)
	}

	log.Info().Str("link", l.name).Msg("serial link closed")
	return nil
}
