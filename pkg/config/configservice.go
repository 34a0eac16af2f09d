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
	"net"
	"strconv"
)

const DefaultAPIPort = 7598

type Service struct {
	APIPort        *int           `toml:"api_port,omitempty" validate:"omitempty,gt=0,lte=65535"`
	Discovery      Discovery      `toml:"discovery,omitempty"`
	ErrorReporting ErrorReporting `toml:"error_reporting,omitempty"`
	DeviceID       string         `toml:"device_id"`
	APIListen      string         `toml:"api_listen,omitempty"`
	AllowedOrigins []string       `toml:"allowed_origins,omitempty"`
	Publishers     Publishers     `toml:"publishers,omitempty"`
}

type Publishers struct {
	MQTT []MQTTPublisher `toml:"mqtt,omitempty" validate:"dive"`
}

type MQTTPublisher struct {
	Enabled *bool    `toml:"enabled,omitempty"`
	Broker  string   `toml:"broker" validate:"required"`
	Topic   string   `toml:"topic" validate:"required"`
	Filter  []string `toml:"filter,omitempty,multiline"`
}

type Discovery struct {
	Enabled      *bool  `toml:"enabled,omitempty"`
	InstanceName string `toml:"instance_name,omitempty"`
}

type ErrorReporting struct {
	DSN     string `toml:"dsn,omitempty" validate:"required_if=Enabled true"`
	Enabled bool   `toml:"enabled"`
}

func (c *Instance) APIPort() int {
	return view(c, apiPort)
}

func apiPort(v *Values) int {
	return orDefault(v.Service.APIPort, DefaultAPIPort)
}

func (c *Instance) SetAPIPort(port int) {
	c.update(func(v *Values) { v.Service.APIPort = &port })
}

// APIListen defaults to loopback only. The API can move a blood pump, so
// exposing it on other interfaces must be an explicit choice.
func (c *Instance) APIListen() string {
	return view(c, func(v *Values) string {
		if v.Service.APIListen != "" {
			return v.Service.APIListen
		}
		return net.JoinHostPort("127.0.0.1", strconv.Itoa(apiPort(v)))
	})
}

func (c *Instance) AllowedOrigins() []string {
	return view(c, func(v *Values) []string { return v.Service.AllowedOrigins })
}

func (c *Instance) DeviceID() string {
	return view(c, func(v *Values) string { return v.Service.DeviceID })
}

func (c *Instance) GetMQTTPublishers() []MQTTPublisher {
	return view(c, func(v *Values) []MQTTPublisher { return v.Service.Publishers.MQTT })
}

// DiscoveryEnabled is off unless set, since advertising only makes sense
// when the API listens beyond loopback.
func (c *Instance) DiscoveryEnabled() bool {
	return view(c, func(v *Values) bool { return orDefault(v.Service.Discovery.Enabled, false) })
}

func (c *Instance) DiscoveryInstanceName() string {
	return view(c, func(v *Values) string { return v.Service.Discovery.InstanceName })
}

func (c *Instance) ErrorReporting() ErrorReporting {
	return view(c, func(v *Values) ErrorReporting { return v.Service.ErrorReporting })
}
