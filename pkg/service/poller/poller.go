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

// Package poller drains the serial links on a fixed tick and applies what
// they carry to the telemetry state.
package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/api/notifications"
	"github.com/ecmo-console/ecmo-core/pkg/link"
	"github.com/ecmo-console/ecmo-core/pkg/protocol"
	"github.com/ecmo-console/ecmo-core/pkg/service/state"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// maxLinesPerTick bounds the work of one tick per link. A tick drains
	// every buffered line only while the backlog is below this; anything
	// beyond it stays buffered in the link and is drained on the following
	// ticks, so a flooding link cannot stall telemetry publishing.
	maxLinesPerTick = 64

	errorLogInterval = 5 * time.Second
	errorLogBurst    = 3
)

// Link roles.
const (
	RoleSensor   = "sensor"
	RoleActuator = "actuator"
	RoleShared   = "shared"
)

// LineSource is the read side of a link.
type LineSource interface {
	TryNextLine() (string, bool, error)
	Name() string
	Closed() bool
	Close() error
}

// Source is a link polled by the loop.
type Source struct {
	Link LineSource
	Role string
}

type source struct {
	link       LineSource
	limiter    *rate.Limiter
	role       string
	suppressed int
	closedSeen bool
}

// Options configures a Poller. Zero values select the defaults.
type Options struct {
	Clock         clockwork.Clock
	Notifications chan<- models.Notification
	Interval      time.Duration
	StaleAfter    time.Duration
}

// TickResult summarises one tick.
type TickResult struct {
	Lines   int
	Applied int
	Errors  int
	// Skipped is set when the tick did not run because another was active.
	Skipped bool
}

type Poller struct {
	clock      clockwork.Clock
	state      *state.State
	codec      *protocol.Codec
	ns         chan<- models.Notification
	sources    []*source
	interval   time.Duration
	staleAfter time.Duration
	ticks      atomic.Uint64
	ticking    atomic.Bool
	stale      bool
}

func New(st *state.State, codec *protocol.Codec, sources []Source, opts Options) *Poller {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 5 * time.Second
	}

	p := &Poller{
		clock:      opts.Clock,
		state:      st,
		codec:      codec,
		ns:         opts.Notifications,
		interval:   opts.Interval,
		staleAfter: opts.StaleAfter,
	}
	for _, s := range sources {
		p.sources = append(p.sources, &source{
			link:    s.Link,
			role:    s.Role,
			limiter: rate.NewLimiter(rate.Every(errorLogInterval), errorLogBurst),
		})
	}
	return p
}

// Ticks returns the number of completed ticks.
func (p *Poller) Ticks() uint64 {
	return p.ticks.Load()
}

// Tick drains every open link once. It never returns an error: bad lines and
// read failures are logged and the remaining links still get polled.
func (p *Poller) Tick() TickResult {
	if !p.ticking.CompareAndSwap(false, true) {
		log.Debug().Msg("poll tick already running, skipping")
		return TickResult{Skipped: true}
	}
	defer p.ticking.Store(false)

	var res TickResult
	for _, src := range p.sources {
		p.drain(src, &res)
	}
	p.ticks.Add(1)

	if res.Applied > 0 {
		notifications.TelemetryUpdated(p.ns, p.state.TelemetryResponse(p.staleAfter))
	}
	p.checkStale()
	return res
}

// checkStale logs when telemetry stops arriving and when it resumes.
func (p *Poller) checkStale() {
	age, ok := p.state.Staleness()
	if !ok {
		return
	}

	stale := age > p.staleAfter
	if stale == p.stale {
		return
	}
	p.stale = stale

	if stale {
		log.Warn().Dur("age", age).Dur("threshold", p.staleAfter).Msg("telemetry is stale")
	} else {
		log.Info().Msg("telemetry resumed")
	}
}

func (p *Poller) drain(src *source, res *TickResult) {
	if src.link.Closed() {
		if !src.closedSeen {
			src.closedSeen = true
			log.Warn().Str("link", src.link.Name()).Str("role", src.role).Msg("link closed, no longer polled")
		}
		return
	}

	for range maxLinesPerTick {
		line, ok, err := src.link.TryNextLine()
		if err != nil {
			res.Errors++
			if errors.Is(err, link.ErrClosed) {
				return
			}
			p.logError(src, err, "")
			return
		}
		if !ok {
			return
		}
		res.Lines++

		frame, err := p.codec.Decode(line)
		if err != nil {
			res.Errors++
			p.logError(src, err, line)
			continue
		}
		if frame.Empty() {
			continue
		}

		if frame.Telemetry != nil {
			if err := p.state.Apply(frame.Telemetry); err != nil {
				res.Errors++
				p.logError(src, err, line)
				continue
			}
			res.Applied++
		}
		if frame.BloodFlow != nil {
			if err := p.state.ApplyBloodFlow(frame.BloodFlow.Rate); err != nil {
				res.Errors++
				p.logError(src, err, line)
				continue
			}
			res.Applied++
		}
	}

	log.Debug().
		Str("link", src.link.Name()).
		Int("max", maxLinesPerTick).
		Msg("line limit reached, remaining input kept for next tick")
}

// logError logs at most errorLogBurst events per errorLogInterval per link
// so a noisy device cannot flood the log file.
func (p *Poller) logError(src *source, err error, line string) {
	if !src.limiter.AllowN(p.clock.Now(), 1) {
		src.suppressed++
		return
	}

	ev := log.Warn().Err(err).Str("link", src.link.Name()).Str("role", src.role)
	if line != "" {
		ev = ev.Str("line", line)
	}
	if src.suppressed > 0 {
		ev = ev.Int("suppressed", src.suppressed)
		src.suppressed = 0
	}
	ev.Msg("failed to process serial input")
}

// Run ticks until ctx is cancelled, then closes every link it polls.
func (p *Poller) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.Close()

	log.Info().Dur("interval", p.interval).Int("links", len(p.sources)).Msg("poll loop started")

	p.Tick()

	for {
		select {
		case <-ticker.Chan():
			p.Tick()
		case <-ctx.Done():
			log.Info().Uint64("ticks", p.Ticks()).Msg("poll loop stopped")
			return nil
		}
	}
}

// Close closes every polled link.
func (p *Poller) Close() {
	for _, src := range p.sources {
		if err := src.link.Close(); err != nil {
			log.Error().Err(err).Str("link", src.link.Name()).Msg("error closing link")
		}
	}
}
