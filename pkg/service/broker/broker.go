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

// Package broker fans notifications from the console core out to the API,
// the publishers and any other in-process consumer.
package broker

import (
	"context"
	"sync/atomic"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// Subscription is one consumer's view of the notification stream. C is
// closed when the subscription ends.
type Subscription struct {
	C       <-chan models.Notification
	ch      chan models.Notification
	name    string
	dropped atomic.Uint64
	id      int
}

func (s *Subscription) Name() string {
	return s.name
}

// Dropped counts notifications this subscriber missed because its buffer
// was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Broker copies every notification from its source to all subscribers.
// Delivery never blocks: telemetry goes stale in a second, so a subscriber
// that falls behind skips events instead of stalling the poll loop.
type Broker struct {
	source <-chan models.Notification
	subs   map[int]*Subscription
	mu     syncutil.RWMutex
	nextID int
	closed bool
}

func NewBroker(source <-chan models.Notification) *Broker {
	return &Broker{
		source: source,
		subs:   make(map[int]*Subscription),
	}
}

// Run broadcasts until ctx is cancelled or the source closes. Every
// subscription is ended on return.
func (b *Broker) Run(ctx context.Context) error {
	defer b.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-b.source:
			if !ok {
				log.Debug().Msg("notification source closed")
				return nil
			}
			b.deliver(n)
		}
	}
}

func (b *Broker) deliver(n models.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, s := range b.subs {
		select {
		case s.ch <- n:
			continue
		default:
		}

		// warn once per subscriber, the counter carries the rest
		if s.dropped.Add(1) == 1 {
			log.Warn().Str("subscriber", s.name).Str("method", n.Method).
				Msg("subscriber falling behind, dropping notifications")
		}
	}
}

// Subscribe adds a consumer with a buffer of size. Once Run has returned
// the subscription comes back already ended.
func (b *Broker) Subscribe(name string, size int) *Subscription {
	ch := make(chan models.Notification, size)
	s := &Subscription{C: ch, ch: ch, name: name}

	b.mu.Lock()
	defer b.mu.Unlock()

	s.id = b.nextID
	b.nextID++
	if b.closed {
		close(ch)
		return s
	}
	b.subs[s.id] = s
	log.Debug().Str("subscriber", name).Int("buffer", size).Msg("subscribed to notifications")
	return s
}

// Unsubscribe ends s. Ending a subscription twice is a no-op.
func (b *Broker) Unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remove(s.id)
}

// remove must be called with mu held.
func (b *Broker) remove(id int) {
	s, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(s.ch)
	if n := s.dropped.Load(); n > 0 {
		log.Info().Str("subscriber", s.name).Uint64("dropped", n).Msg("subscription ended")
	}
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id := range b.subs {
		b.remove(id)
	}
	b.closed = true
}
