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

// Package service wires the serial links, the telemetry state, the actuator
// controller and the outer API into a running console.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecmo-console/ecmo-core/pkg/api"
	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/config"
	"github.com/ecmo-console/ecmo-core/pkg/link"
	"github.com/ecmo-console/ecmo-core/pkg/protocol"
	"github.com/ecmo-console/ecmo-core/pkg/service/actuator"
	"github.com/ecmo-console/ecmo-core/pkg/service/broker"
	"github.com/ecmo-console/ecmo-core/pkg/service/discovery"
	"github.com/ecmo-console/ecmo-core/pkg/service/poller"
	"github.com/ecmo-console/ecmo-core/pkg/service/publishers"
	"github.com/ecmo-console/ecmo-core/pkg/service/state"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	notificationBuffer = 100
	subscriberBuffer   = 100
)

// Options replaces parts of the service for tests. Zero values select the
// real serial ports and clock.
type Options struct {
	PortFactory link.SerialPortFactory
	Clock       clockwork.Clock
}

type links struct {
	sensor   *link.Link
	actuator *link.Link
	shared   bool
}

func (l *links) close() {
	if err := l.sensor.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing sensor link")
	}
	if l.actuator != nil && !l.shared {
		if err := l.actuator.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing actuator link")
		}
	}
}

// openLinks opens the sensor link and, when configured, the actuator link.
// An actuator on the sensor path reuses the sensor link.
func openLinks(cfg *config.Instance, factory link.SerialPortFactory) (*links, error) {
	sensor, err := link.Open(cfg.SensorLink(), factory)
	if err != nil {
		return nil, fmt.Errorf("failed to open sensor link: %w", err)
	}
	ls := &links{sensor: sensor}

	actCfg, ok := cfg.ActuatorLink()
	switch {
	case !ok:
		log.Warn().Msg("no actuator link configured, setpoints will not be transmitted")
	case cfg.SharedLink():
		log.Info().Str("link", sensor.Name()).Msg("sensor and actuator share one link")
		ls.actuator = sensor
		ls.shared = true
	default:
		act, err := link.Open(actCfg, factory)
		if err != nil {
			ls.close()
			return nil, fmt.Errorf("failed to open actuator link: %w", err)
		}
		ls.actuator = act
	}

	return ls, nil
}

func (l *links) sources() []poller.Source {
	if l.shared {
		return []poller.Source{{Link: l.sensor, Role: poller.RoleShared}}
	}
	srcs := []poller.Source{{Link: l.sensor, Role: poller.RoleSensor}}
	if l.actuator != nil {
		srcs = append(srcs, poller.Source{Link: l.actuator, Role: poller.RoleActuator})
	}
	return srcs
}

func (l *links) consoleLinks() []consoleLink {
	var out []consoleLink
	for _, src := range l.sources() {
		if info, ok := src.Link.(LinkInfo); ok {
			out = append(out, consoleLink{link: info, role: src.Role})
		}
	}
	return out
}

// writer returns the actuator link as a command writer, or a nil interface
// when there is none.
func (l *links) writer() actuator.CommandWriter {
	if l.actuator == nil {
		return nil
	}
	return l.actuator
}

// Start opens the links and runs the console until stop is called or a
// component fails. done is closed once everything has shut down and the
// links are closed.
func Start(
	cfg *config.Instance,
	opts Options,
) (console *Console, stop func() error, done <-chan struct{}, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)

	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	profile, err := protocol.ParseProfile(cfg.Protocol())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid protocol: %w", err)
	}
	log.Info().Str("profile", string(profile)).Msg("using telemetry profile")

	ls, err := openLinks(cfg, opts.PortFactory)
	if err != nil {
		log.Error().Err(err).Msg("error opening serial links")
		return nil, nil, nil, err
	}

	ns := make(chan models.Notification, notificationBuffer)
	st := state.NewState(opts.Clock)
	controller := actuator.NewController(ls.writer(), cfg.ActuatorSteps(), ns)
	loop := poller.New(st, protocol.NewCodec(profile), ls.sources(), poller.Options{
		Clock:         opts.Clock,
		Notifications: ns,
		Interval:      cfg.PollInterval(),
		StaleAfter:    cfg.StaleAfter(),
	})

	console = &Console{
		state:      st,
		controller: controller,
		profile:    profile,
		links:      ls.consoleLinks(),
		staleAfter: cfg.StaleAfter(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	notifBroker := broker.NewBroker(ns)
	apiSub := notifBroker.Subscribe("api", subscriberBuffer)
	startPublishers(gctx, g, cfg, notifBroker)

	g.Go(func() error {
		return notifBroker.Run(gctx)
	})

	log.Info().Msg("starting poll loop")
	g.Go(func() error {
		return loop.Run(gctx)
	})

	log.Info().Str("address", cfg.APIListen()).Msg("starting API service")
	g.Go(func() error {
		return api.Start(gctx, cfg, console, apiSub.C)
	})

	startDiscovery(gctx, g, cfg, opts.Clock)

	doneCh := make(chan struct{})
	var runErr error
	go func() {
		runErr = g.Wait()
		if runErr != nil {
			log.Error().Err(runErr).Msg("service stopped with error")
		}
		// the poll loop closes its links, this covers a loop that never ran
		ls.close()
		log.Info().Msg("service cleanup completed")
		close(doneCh)
	}()

	log.Info().Msg("service fully initialized")

	stop = func() error {
		cancel()
		<-doneCh
		return runErr
	}
	return console, stop, doneCh, nil
}

func startPublishers(ctx context.Context, g *errgroup.Group, cfg *config.Instance, b *broker.Broker) {
	for _, pubCfg := range cfg.GetMQTTPublishers() {
		if pubCfg.Enabled != nil && !*pubCfg.Enabled {
			continue
		}

		publisher := publishers.NewMQTTPublisher(&pubCfg)
		sub := b.Subscribe("mqtt "+pubCfg.Broker, subscriberBuffer)

		log.Info().Str("broker", pubCfg.Broker).Str("topic", pubCfg.Topic).Msg("starting mqtt publisher")
		g.Go(func() error {
			if err := publisher.Connect(); err != nil {
				// a missing broker must not take the console down
				log.Error().Err(err).Str("broker", pubCfg.Broker).Msg("mqtt publisher failed to start")
				b.Unsubscribe(sub)
				return nil
			}
			return publisher.Run(ctx, sub.C)
		})
	}
}

func startDiscovery(ctx context.Context, g *errgroup.Group, cfg *config.Instance, clock clockwork.Clock) {
	if !cfg.DiscoveryEnabled() {
		return
	}

	adv, err := discovery.New(cfg, clock)
	if errors.Is(err, discovery.ErrLoopbackOnly) {
		log.Warn().Msg("mDNS discovery enabled but the API only listens on loopback, not advertising")
		return
	} else if err != nil {
		log.Error().Err(err).Msg("mDNS discovery failed to start (continuing without discovery)")
		return
	}

	log.Info().Str("instance", adv.InstanceName()).Msg("starting mDNS discovery service")
	g.Go(func() error {
		return adv.Run(ctx)
	})
}
