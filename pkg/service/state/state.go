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

package state

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/helpers/syncutil"
	"github.com/ecmo-console/ecmo-core/pkg/protocol"
	"github.com/jonboulle/clockwork"
)

var ErrNotFinite = errors.New("telemetry value is not finite")

// Sample is the latest validated telemetry from the device. Every field is
// zero until the first record is applied.
type Sample struct {
	O2SaturationInlet  float64
	TemperatureInlet   float64
	O2SaturationOutlet float64
	TemperatureOutlet  float64
	O2Concentration    float64
	CO2Outlet          float64
	BloodFlowRate      float64
}

// Format renders the sample the way the console labels show it.
func (s *Sample) Format() models.TelemetryDisplay {
	return models.TelemetryDisplay{
		O2SaturationInlet:  fmt.Sprintf("%.1f", s.O2SaturationInlet),
		TemperatureInlet:   fmt.Sprintf("%.1f", s.TemperatureInlet),
		O2SaturationOutlet: fmt.Sprintf("%.1f", s.O2SaturationOutlet),
		TemperatureOutlet:  fmt.Sprintf("%.1f", s.TemperatureOutlet),
		O2Concentration:    fmt.Sprintf("%.1f", s.O2Concentration),
		CO2Outlet:          fmt.Sprintf("%.2f", s.CO2Outlet),
		BloodFlowRate:      fmt.Sprintf("%.2f", s.BloodFlowRate),
	}
}

// State holds the authoritative telemetry of the console.
//
// Writers are the poll loop only. Readers get copies, so a caller can never
// observe a record applied halfway.
type State struct {
	clock      clockwork.Clock
	lastUpdate time.Time
	sample     Sample
	updates    uint64
	mu         syncutil.RWMutex
}

func NewState(clock clockwork.Clock) *State {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &State{clock: clock}
}

// Apply replaces the six sensor fields, and the blood flow rate when the
// record carries one. A record with any non-finite value is rejected whole.
func (s *State) Apply(rec *protocol.TelemetryRecord) error {
	values := []float64{
		rec.O2SaturationInlet,
		rec.TemperatureInlet,
		rec.O2SaturationOutlet,
		rec.TemperatureOutlet,
		rec.O2Concentration,
		rec.CO2Outlet,
	}
	if rec.HasBloodFlow {
		values = append(values, rec.BloodFlowRate)
	}
	for _, v := range values {
		if !finite(v) {
			return fmt.Errorf("%w: %v", ErrNotFinite, v)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sample.O2SaturationInlet = rec.O2SaturationInlet
	s.sample.TemperatureInlet = rec.TemperatureInlet
	s.sample.O2SaturationOutlet = rec.O2SaturationOutlet
	s.sample.TemperatureOutlet = rec.TemperatureOutlet
	s.sample.O2Concentration = rec.O2Concentration
	s.sample.CO2Outlet = rec.CO2Outlet
	if rec.HasBloodFlow {
		s.sample.BloodFlowRate = rec.BloodFlowRate
	}
	s.touchLocked()

	return nil
}

// ApplyBloodFlow sets the blood flow rate from a pump acknowledgement.
func (s *State) ApplyBloodFlow(rate float64) error {
	if !finite(rate) {
		return fmt.Errorf("%w: %v", ErrNotFinite, rate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sample.BloodFlowRate = rate
	s.touchLocked()

	return nil
}

func (s *State) touchLocked() {
	s.lastUpdate = s.clock.Now()
	s.updates++
}

func (s *State) Snapshot() Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sample
}

// LastUpdate returns the time of the last applied update, or the zero time
// before the first one.
func (s *State) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// Updates returns how many records have been applied.
func (s *State) Updates() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updates
}

// Staleness returns the age of the last applied update. ok is false until
// the first update arrives.
func (s *State) Staleness() (age time.Duration, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.updates == 0 {
		return 0, false
	}
	return s.clock.Since(s.lastUpdate), true
}

// Stale reports whether no update arrived within threshold. A state that
// never received an update is stale.
func (s *State) Stale(threshold time.Duration) bool {
	age, ok := s.Staleness()
	return !ok || age > threshold
}

// TelemetryResponse builds the API view of the current telemetry.
func (s *State) TelemetryResponse(staleAfter time.Duration) models.TelemetryResponse {
	s.mu.RLock()
	sample := s.sample
	last := s.lastUpdate
	updates := s.updates
	s.mu.RUnlock()

	resp := models.TelemetryResponse{
		Display:            sample.Format(),
		O2SaturationInlet:  sample.O2SaturationInlet,
		TemperatureInlet:   sample.TemperatureInlet,
		O2SaturationOutlet: sample.O2SaturationOutlet,
		TemperatureOutlet:  sample.TemperatureOutlet,
		O2Concentration:    sample.O2Concentration,
		CO2Outlet:          sample.CO2Outlet,
		BloodFlowRate:      sample.BloodFlowRate,
		Stale:              true,
	}

	if updates > 0 {
		age := s.clock.Since(last)
		ageMs := age.Milliseconds()
		resp.LastUpdate = &last
		resp.AgeMs = &ageMs
		resp.Stale = age > staleAfter
	}

	return resp
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
