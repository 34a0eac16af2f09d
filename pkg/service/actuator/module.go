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

package actuator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ecmo-console/ecmo-core/pkg/protocol"
)

var (
	ErrNoActiveModule = errors.New("no active module")
	ErrUnknownModule  = errors.New("unknown module")
	ErrOutOfRange     = errors.New("setpoint out of range")
)

// ModuleID names an adjustable device parameter. The empty ID means no
// module is selected.
type ModuleID string

const (
	BloodPump ModuleID = "blood_pump"
	O2Flow    ModuleID = "o2_flow"
	AirFlow   ModuleID = "air_flow"
)

// Modules lists every adjustable module in display order.
func Modules() []ModuleID {
	return []ModuleID{BloodPump, O2Flow, AirFlow}
}

func ParseModuleID(s string) (ModuleID, error) {
	id := ModuleID(strings.ToLower(strings.TrimSpace(s)))
	switch id {
	case BloodPump, O2Flow, AirFlow:
		return id, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownModule, s)
	}
}

// Unit returns the display unit of the module's setpoint.
func (id ModuleID) Unit() string {
	switch id {
	case BloodPump:
		return "RPM"
	case O2Flow, AirFlow:
		return "LPM"
	default:
		return ""
	}
}

// wireTag returns the command tag sent to the actuator for a module. O2 flow
// is set by hand on the blender and has no command.
func (id ModuleID) wireTag() (byte, bool) {
	switch id {
	case BloodPump:
		return protocol.TagPumpSpeed, true
	case AirFlow:
		return protocol.TagFlow, true
	default:
		return 0, false
	}
}

// floor returns the lowest allowed setpoint for a module.
func (id ModuleID) floor() (float64, bool) {
	if id == AirFlow {
		return 0, true
	}
	return 0, false
}

// Setpoints holds one commanded value per module.
type Setpoints struct {
	BloodPump float64
	O2Flow    float64
	AirFlow   float64
}

func (s *Setpoints) Get(id ModuleID) float64 {
	switch id {
	case BloodPump:
		return s.BloodPump
	case O2Flow:
		return s.O2Flow
	case AirFlow:
		return s.AirFlow
	default:
		return 0
	}
}

func (s *Setpoints) set(id ModuleID, v float64) {
	switch id {
	case BloodPump:
		s.BloodPump = v
	case O2Flow:
		s.O2Flow = v
	case AirFlow:
		s.AirFlow = v
	}
}
