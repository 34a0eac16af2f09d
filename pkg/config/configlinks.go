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

package config

import (
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Links holds the serial ports of the console. The sensor link is required.
// The actuator link carries pump and air flow commands; leave its path empty
// to run without commands, or set it to the sensor path when one
// microcontroller does both jobs.
type Links struct {
	Sensor   LinkConfig `toml:"sensor"`
	Actuator LinkConfig `toml:"actuator"`
}

type LinkConfig struct {
	Path     string `toml:"path"`
	BaudRate int    `toml:"baud_rate" validate:"gte=0"`
}

func (l LinkConfig) ConnectionString() string {
	return l.Path + "@" + strconv.Itoa(l.BaudRate)
}

func (l LinkConfig) Enabled() bool {
	return l.Path != ""
}

func validateLinks(sl validator.StructLevel) {
	links, ok := sl.Current().Interface().(Links)
	if !ok {
		return
	}

	if links.Sensor.Path == "" {
		sl.ReportError(links.Sensor.Path, "Sensor.Path", "Path", "required", "")
	}
	if links.Sensor.BaudRate <= 0 {
		sl.ReportError(links.Sensor.BaudRate, "Sensor.BaudRate", "BaudRate", "gt", "0")
	}
	if links.Actuator.Enabled() && links.Actuator.BaudRate <= 0 {
		sl.ReportError(links.Actuator.BaudRate, "Actuator.BaudRate", "BaudRate", "gt", "0")
	}
}

func (c *Instance) SensorLink() LinkConfig {
	return view(c, func(v *Values) LinkConfig { return v.Links.Sensor })
}

// ActuatorLink returns the actuator link and whether one is configured.
func (c *Instance) ActuatorLink() (LinkConfig, bool) {
	l := view(c, func(v *Values) LinkConfig { return v.Links.Actuator })
	return l, l.Enabled()
}

// SharedLink reports whether sensor telemetry and actuator commands use the
// same physical port.
func (c *Instance) SharedLink() bool {
	return view(c, func(v *Values) bool {
		return v.Links.Actuator.Enabled() && v.Links.Actuator.Path == v.Links.Sensor.Path
	})
}

func (c *Instance) SetLinks(links Links) {
	c.update(func(v *Values) { v.Links = links })
}
