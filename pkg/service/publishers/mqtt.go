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

// Package publishers forwards console notifications to external systems.
package publishers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	connectTimeout  = 10 * time.Second
	publishTimeout  = 5 * time.Second
	disconnectQuiet = 250
)

// MQTTPublisher publishes notifications to <topic>/<method> on an MQTT
// broker. The payload is the notification params as JSON.
type MQTTPublisher struct {
	client    mqtt.Client
	newClient func(*mqtt.ClientOptions) mqtt.Client
	broker    string
	topic     string
	filter    []string
}

func NewMQTTPublisher(cfg *config.MQTTPublisher) *MQTTPublisher {
	return &MQTTPublisher{
		broker:    cfg.Broker,
		topic:     strings.TrimSuffix(cfg.Topic, "/"),
		filter:    cfg.Filter,
		newClient: mqtt.NewClient,
	}
}

// Connect opens the broker connection. Reconnects after a lost connection
// are handled by the client.
func (p *MQTTPublisher) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(p.broker))
	opts.SetClientID("ecmo-core-" + uuid.New().String()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.OnConnect = func(_ mqtt.Client) {
		log.Info().Str("broker", p.broker).Msg("mqtt publisher connected")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", p.broker).Msg("mqtt publisher connection lost")
	}

	p.client = p.newClient(opts)

	// with connect retry on, a failed first attempt keeps retrying in the
	// background until the client is disconnected
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		p.client.Disconnect(0)
		return fmt.Errorf("timed out connecting to MQTT broker %s", p.broker)
	}
	if err := token.Error(); err != nil {
		p.client.Disconnect(0)
		return fmt.Errorf("failed to connect to MQTT broker %s: %w", p.broker, err)
	}
	return nil
}

// Run publishes notifications until ctx is done or the channel closes,
// then disconnects.
func (p *MQTTPublisher) Run(ctx context.Context, notifications <-chan models.Notification) error {
	defer p.disconnect()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-notifications:
			if !ok {
				return nil
			}
			p.publish(n)
		}
	}
}

func (p *MQTTPublisher) publish(n models.Notification) {
	if !p.matchesFilter(n.Method) {
		return
	}

	payload := []byte(n.Params)
	if len(payload) == 0 {
		payload = []byte("null")
	}

	topic := p.topic + "/" + n.Method
	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Warn().Str("topic", topic).Msg("mqtt publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("mqtt publish failed")
		return
	}
	log.Trace().Str("topic", topic).Msg("mqtt notification published")
}

func (p *MQTTPublisher) matchesFilter(method string) bool {
	return len(p.filter) == 0 || slices.Contains(p.filter, method)
}

func (p *MQTTPublisher) disconnect() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiet)
		log.Debug().Str("broker", p.broker).Msg("mqtt publisher disconnected")
	}
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}
