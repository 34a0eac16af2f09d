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

package publishers

import (
	"slices"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/helpers/syncutil"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type publishedMessage struct {
	topic   string
	payload []byte
}

// mockMQTTClient records what the publisher sends. Methods the publisher
// never calls fall through to the nil embedded client and panic.
type mockMQTTClient struct {
	mqtt.Client

	connectError error
	publishError error
	opts         *mqtt.ClientOptions
	published    []publishedMessage
	disconnects  int
	connected    bool
	mu           syncutil.Mutex
}

func (m *mockMQTTClient) messages() []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.published)
}

func (m *mockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockMQTTClient) Connect() mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = m.connectError == nil
	return settled(m.connectError)
}

func (m *mockMQTTClient) Disconnect(uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.disconnects++
}

func (m *mockMQTTClient) Publish(topic string, _ byte, _ bool, payload any) mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishError == nil {
		b, _ := payload.([]byte)
		m.published = append(m.published, publishedMessage{topic: topic, payload: slices.Clone(b)})
	}
	return settled(m.publishError)
}

// settledToken is a token whose operation already finished with err.
type settledToken struct {
	mqtt.Token
	err error
}

func settled(err error) *settledToken { return &settledToken{err: err} }

func (*settledToken) Wait() bool { return true }

func (*settledToken) WaitTimeout(time.Duration) bool { return true }

func (t *settledToken) Error() error { return t.err }
