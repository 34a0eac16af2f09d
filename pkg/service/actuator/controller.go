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

// Package actuator turns operator intents into bounded setpoints and the
// commands that carry them to the device.
package actuator

import (
	"fmt"
	"math"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/api/notifications"
	"github.com/ecmo-console/ecmo-core/pkg/config"
	"github.com/ecmo-console/ecmo-core/pkg/helpers/syncutil"
	"github.com/ecmo-console/ecmo-core/pkg/protocol"
	"github.com/rs/zerolog/log"
)

// precision is the resolution setpoints are rounded to after every step.
const precision = 1e6

// CommandWriter sends one command line to the actuator. *link.Link
// satisfies it.
type CommandWriter interface {
	WriteLine(line string) error
}

// Adjustment describes the outcome of one increment or decrement.
type Adjustment struct {
	Module   ModuleID
	Previous float64
	Value    float64
	// Changed is false when a floor kept the setpoint where it was.
	Changed bool
	// Sent is true when a command reached the actuator link.
	Sent bool
}

// Controller owns the setpoints and the active module selection.
//
// Commanded setpoints change on every accepted adjustment. Transmitted
// setpoints change only after the command was written, so a failed write
// leaves the two apart until the next successful one.
type Controller struct {
	writer      CommandWriter
	ns          chan<- models.Notification
	active      ModuleID
	steps       config.Steps
	commanded   Setpoints
	transmitted Setpoints
	mu          syncutil.Mutex
}

// NewController creates a controller. writer may be nil when no actuator
// link is configured; setpoints then change without being transmitted.
func NewController(writer CommandWriter, steps config.Steps, ns chan<- models.Notification) *Controller {
	return &Controller{
		writer: writer,
		steps:  steps,
		ns:     ns,
	}
}

func (c *Controller) Select(id ModuleID) error {
	id, err := ParseModuleID(string(id))
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.active = id
	resp := c.responseLocked()
	c.mu.Unlock()

	log.Info().Str("module", string(id)).Msg("module selected")
	notifications.SetpointsChanged(c.ns, resp)
	return nil
}

func (c *Controller) Deselect() {
	c.mu.Lock()
	prev := c.active
	c.active = ""
	resp := c.responseLocked()
	c.mu.Unlock()

	if prev != "" {
		log.Info().Str("module", string(prev)).Msg("module deselected")
		notifications.SetpointsChanged(c.ns, resp)
	}
}

// Active returns the selected module. ok is false when idle.
func (c *Controller) Active() (id ModuleID, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.active != ""
}

func (c *Controller) Increment() (Adjustment, error) {
	return c.adjust(1)
}

func (c *Controller) Decrement() (Adjustment, error) {
	return c.adjust(-1)
}

func (c *Controller) step(id ModuleID) float64 {
	switch id {
	case BloodPump:
		return c.steps.BloodPump
	case O2Flow:
		return c.steps.O2Flow
	case AirFlow:
		return c.steps.AirFlow
	default:
		return 0
	}
}

func (c *Controller) adjust(direction float64) (Adjustment, error) {
	c.mu.Lock()

	id := c.active
	if id == "" {
		c.mu.Unlock()
		return Adjustment{}, ErrNoActiveModule
	}

	prev := c.commanded.Get(id)
	next := round(prev + direction*c.step(id))
	if floor, ok := id.floor(); ok && next < floor {
		next = floor
	}
	if math.IsInf(next, 0) || math.IsNaN(next) {
		c.mu.Unlock()
		log.Warn().Str("module", string(id)).Float64("value", prev).Msg("step leaves setpoint range, nothing sent")
		return Adjustment{Module: id, Previous: prev, Value: prev}, fmt.Errorf("%w: %s", ErrOutOfRange, id)
	}

	adj := Adjustment{
		Module:   id,
		Previous: prev,
		Value:    next,
	}

	if next == prev {
		c.mu.Unlock()
		log.Debug().Str("module", string(id)).Float64("value", prev).Msg("setpoint at floor, nothing sent")
		return adj, nil
	}

	c.commanded.set(id, next)
	adj.Changed = true
	adj.Sent = c.transmitLocked(id, next)

	resp := c.responseLocked()
	c.mu.Unlock()

	notifications.SetpointsChanged(c.ns, resp)
	return adj, nil
}

// transmitLocked writes the command for id. The controller lock stays held
// so commands reach the wire in the order their setpoints were accepted.
func (c *Controller) transmitLocked(id ModuleID, value float64) bool {
	tag, ok := id.wireTag()
	if !ok || c.writer == nil {
		return false
	}

	line := protocol.FormatCommand(tag, value)
	if err := c.writer.WriteLine(line); err != nil {
		log.Error().Err(err).
			Str("module", string(id)).
			Str("command", line).
			Msg("failed to send actuator command")
		return false
	}

	c.transmitted.set(id, value)

	switch id {
	case BloodPump:
		log.Info().Float64("rpm", value).Str("command", line).Msg("sent pump speed")
	case AirFlow:
		log.Info().Float64("lpm", value).Str("command", line).Msg("sent air flow")
	case O2Flow:
	}
	return true
}

// Setpoints returns a copy of the commanded setpoints.
func (c *Controller) Setpoints() Setpoints {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commanded
}

// Transmitted returns the last setpoints the actuator acknowledged at the
// write level. Modules without a wire command stay at zero.
func (c *Controller) Transmitted() Setpoints {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transmitted
}

// Diverged lists commanded modules whose last write failed. It is always
// empty without an actuator link.
func (c *Controller) Diverged() []ModuleID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.divergedLocked()
}

func (c *Controller) divergedLocked() []ModuleID {
	if c.writer == nil {
		return nil
	}

	var out []ModuleID
	for _, id := range Modules() {
		if _, ok := id.wireTag(); !ok {
			continue
		}
		if c.commanded.Get(id) != c.transmitted.Get(id) {
			out = append(out, id)
		}
	}
	return out
}

// SetpointsResponse builds the API view of the controller.
func (c *Controller) SetpointsResponse() models.SetpointsResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responseLocked()
}

func (c *Controller) responseLocked() models.SetpointsResponse {
	resp := models.SetpointsResponse{
		Commanded:   setpointValues(&c.commanded),
		Transmitted: setpointValues(&c.transmitted),
		Diverged:    []string{},
	}
	if c.active != "" {
		active := string(c.active)
		resp.Active = &active
	}
	for _, id := range c.divergedLocked() {
		resp.Diverged = append(resp.Diverged, string(id))
	}
	return resp
}

func setpointValues(s *Setpoints) models.SetpointValues {
	return models.SetpointValues{
		BloodPump: s.BloodPump,
		O2Flow:    s.O2Flow,
		AirFlow:   s.AirFlow,
	}
}

// AdjustmentResponse converts an adjustment to its API view.
func AdjustmentResponse(adj *Adjustment) models.AdjustmentResponse {
	return models.AdjustmentResponse{
		Module:   string(adj.Module),
		Previous: adj.Previous,
		Value:    adj.Value,
		Changed:  adj.Changed,
		Sent:     adj.Sent,
	}
}

// round snaps v to the setpoint resolution so repeated steps do not drift.
func round(v float64) float64 {
	r := math.Round(v*precision) / precision
	if r == 0 {
		return 0
	}
	return r
}
