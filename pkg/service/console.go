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

package service

import (
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/protocol"
	"github.com/ecmo-console/ecmo-core/pkg/service/actuator"
	"github.com/ecmo-console/ecmo-core/pkg/service/state"
)

// LinkInfo is the read-only view of a link the console reports on.
type LinkInfo interface {
	Name() string
	Seq() uint64
	Closed() bool
}

type consoleLink struct {
	link LinkInfo
	role string
}

// Console is the interface the UI drives: it reads telemetry snapshots and
// forwards operator intents to the actuator controller.
type Console struct {
	state      *state.State
	controller *actuator.Controller
	profile    protocol.Profile
	links      []consoleLink
	staleAfter time.Duration
}

// Snapshot returns a copy of the latest telemetry.
func (c *Console) Snapshot() state.Sample {
	return c.state.Snapshot()
}

// Staleness returns the age of the latest telemetry. ok is false until the
// first record arrives.
func (c *Console) Staleness() (age time.Duration, ok bool) {
	return c.state.Staleness()
}

// Stale reports whether telemetry is older than the configured threshold.
func (c *Console) Stale() bool {
	return c.state.Stale(c.staleAfter)
}

func (c *Console) SelectModule(id actuator.ModuleID) error {
	return c.controller.Select(id)
}

func (c *Console) Deselect() {
	c.controller.Deselect()
}

func (c *Console) ActiveModule() (actuator.ModuleID, bool) {
	return c.controller.Active()
}

func (c *Console) IncrementActive() (actuator.Adjustment, error) {
	return c.controller.Increment()
}

func (c *Console) DecrementActive() (actuator.Adjustment, error) {
	return c.controller.Decrement()
}

// Setpoints returns the commanded setpoints.
func (c *Console) Setpoints() actuator.Setpoints {
	return c.controller.Setpoints()
}

// Transmitted returns the setpoints last written to the actuator.
func (c *Console) Transmitted() actuator.Setpoints {
	return c.controller.Transmitted()
}

func (c *Console) Diverged() []actuator.ModuleID {
	return c.controller.Diverged()
}

func (c *Console) Protocol() string {
	return string(c.profile)
}

func (c *Console) TelemetryResponse() models.TelemetryResponse {
	return c.state.TelemetryResponse(c.staleAfter)
}

func (c *Console) SetpointsResponse() models.SetpointsResponse {
	return c.controller.SetpointsResponse()
}

func (c *Console) HealthResponse() models.HealthResponse {
	resp := models.HealthResponse{
		Links: make([]models.LinkHealth, 0, len(c.links)),
		Stale: c.Stale(),
	}
	for _, l := range c.links {
		resp.Links = append(resp.Links, models.LinkHealth{
			Name:   l.link.Name(),
			Role:   l.role,
			Frames: l.link.Seq(),
			Open:   !l.link.Closed(),
		})
	}
	if age, ok := c.Staleness(); ok {
		ms := age.Milliseconds()
		resp.AgeMs = &ms
	}
	return resp
}

// Select activates the named module.
func (c *Console) Select(module string) (models.ActiveModuleResponse, error) {
	id, err := actuator.ParseModuleID(module)
	if err != nil {
		return models.ActiveModuleResponse{}, err
	}
	if err := c.controller.Select(id); err != nil {
		return models.ActiveModuleResponse{}, err
	}

	active := string(id)
	return models.ActiveModuleResponse{Active: &active}, nil
}

// Step increments or decrements the active module.
func (c *Console) Step(increment bool) (models.AdjustmentResponse, error) {
	var adj actuator.Adjustment
	var err error
	if increment {
		adj, err = c.controller.Increment()
	} else {
		adj, err = c.controller.Decrement()
	}
	if err != nil {
		return models.AdjustmentResponse{}, err
	}
	return actuator.AdjustmentResponse(&adj), nil
}
