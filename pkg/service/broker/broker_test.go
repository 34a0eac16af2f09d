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

package broker

import (
	"context"
	"testing"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func runBroker(t *testing.T, source <-chan models.Notification) (*Broker, context.CancelFunc, <-chan error) {
	t.Helper()

	b := NewBroker(source)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx)
	}()
	return b, cancel, done
}

func receive(t *testing.T, ch <-chan models.Notification) models.Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
		return models.Notification{}
	}
}

func TestBroker_BroadcastsToAllSubscribers(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification)
	b, cancel, done := runBroker(t, source)
	defer func() {
		cancel()
		<-done
	}()

	api := b.Subscribe("api", 1)
	mqtt := b.Subscribe("mqtt", 1)

	source <- models.Notification{Method: models.NotificationTelemetryUpdated}

	assert.Equal(t, models.NotificationTelemetryUpdated, receive(t, api.C).Method)
	assert.Equal(t, models.NotificationTelemetryUpdated, receive(t, mqtt.C).Method)
	assert.Equal(t, "mqtt", mqtt.Name())
}

func TestBroker_FullSubscriberDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification)
	b, cancel, done := runBroker(t, source)
	defer func() {
		cancel()
		<-done
	}()

	slow := b.Subscribe("slow", 0)
	fast := b.Subscribe("fast", 2)

	source <- models.Notification{Method: "a"}
	source <- models.Notification{Method: "b"}

	assert.Equal(t, "a", receive(t, fast.C).Method)
	assert.Equal(t, "b", receive(t, fast.C).Method)
	assert.Empty(t, slow.C)
	assert.Eventually(t, func() bool { return slow.Dropped() == 2 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, fast.Dropped())
}

func TestBroker_Unsubscribe(t *testing.T) {
	t.Parallel()

	b := NewBroker(make(chan models.Notification))
	sub := b.Subscribe("api", 1)
	require.Equal(t, 1, b.Subscribers())

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)

	_, ok := <-sub.C
	assert.False(t, ok, "channel closed on unsubscribe")
	assert.Zero(t, b.Subscribers())
}

func TestBroker_RunClosesSubscribers(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification)
	b, cancel, done := runBroker(t, source)

	sub := b.Subscribe("api", 1)
	cancel()
	require.NoError(t, <-done)

	_, ok := <-sub.C
	assert.False(t, ok)

	late := b.Subscribe("late", 1)
	_, ok = <-late.C
	assert.False(t, ok, "subscribing after shutdown yields a closed channel")
}

func TestBroker_SourceClosed(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification)
	_, _, done := runBroker(t, source)
	close(source)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("broker did not stop when its source closed")
	}
}
