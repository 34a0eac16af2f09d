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
	"fmt"
	"strings"
)

// Profile selects which protocol variant a deployment speaks.
type Profile string

const (
	// ProfileSingle is one sensor microcontroller whose telemetry lines carry
	// the blood flow rate as a 7th field.
	ProfileSingle Profile = "single"
	// ProfileDual is a sensor microcontroller plus a pump controller. The
	// blood flow rate is taken only from BFR acknowledgements.
	ProfileDual Profile = "dual"
)

// ParseProfile validates a profile name from configuration. An empty name
// selects ProfileDual.
func ParseProfile(s string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(s))) {
	case ProfileSingle:
		return ProfileSingle, nil
	case ProfileDual, "":
		return ProfileDual, nil
	default:
		return "", fmt.Errorf("unknown protocol profile: %q", s)
	}
}

// Frame is the decoded content of one inbound line. Both fields are nil for
// blank lines.
type Frame struct {
	Telemetry *TelemetryRecord
	BloodFlow *BloodFlowReading
}

// Empty reports whether the frame carries nothing to apply.
func (f Frame) Empty() bool {
	return f.Telemetry == nil && f.BloodFlow == nil
}

// Codec routes inbound lines to the right parser for a profile.
type Codec struct {
	profile Profile
}

func NewCodec(profile Profile) *Codec {
	return &Codec{profile: profile}
}

func (c *Codec) Profile() Profile {
	return c.profile
}

// Decode parses one inbound line. BFR acknowledgements are recognised in
// both profiles; in ProfileDual the inline blood flow field of telemetry
// lines is dropped so the pump controller stays the single source for it.
func (c *Codec) Decode(line string) (Frame, error) {
	if trimLine(line) == "" {
		return Frame{}, nil
	}

	ack, err := ParseCommandAck(line)
	if err != nil {
		return Frame{}, err
	}
	if ack != nil {
		return Frame{BloodFlow: ack}, nil
	}

	rec, err := ParseTelemetry(line)
	if err != nil {
		return Frame{}, err
	}
	if c.profile == ProfileDual {
		rec.HasBloodFlow = false
		rec.BloodFlowRate = 0
	}

	return Frame{Telemetry: &rec}, nil
}
