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

// Package discovery advertises the console API on the local network over
// mDNS so a bedside display can find it without manual addressing.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/config"
	"github.com/grandcat/zeroconf"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const ServiceType = "_ecmo-console._tcp"

const retryInterval = 30 * time.Second

var ErrLoopbackOnly = errors.New("api listens on loopback only")

var virtualInterfacePrefixes = []string{
	"docker", "br-", "veth", "virbr", "lxc", "cni", "flannel", "wg", "tun",
}

type registerFunc func(
	instance, service, domain string,
	port int,
	text []string,
	ifaces []net.Interface,
) (shutdowner, error)

type shutdowner interface {
	Shutdown()
}

// Advertiser registers the API with mDNS and keeps retrying until the
// network comes up.
type Advertiser struct {
	clock    clockwork.Clock
	register registerFunc
	ifaces   func() ([]net.Interface, error)
	instance string
	text     []string
	port     int
}

func New(cfg *config.Instance, clock clockwork.Clock) (*Advertiser, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	port, err := advertisedPort(cfg.APIListen())
	if err != nil {
		return nil, err
	}

	return &Advertiser{
		clock:    clock,
		instance: instanceName(cfg),
		port:     port,
		text: []string{
			"id=" + cfg.DeviceID(),
			"version=" + config.AppVersion,
			"protocol=" + cfg.Protocol(),
		},
		register: func(instance, service, domain string, port int, text []string,
			ifaces []net.Interface,
		) (shutdowner, error) {
			return zeroconf.Register(instance, service, domain, port, text, ifaces)
		},
		ifaces: net.Interfaces,
	}, nil
}

// advertisedPort extracts the port of the API listen address. Advertising
// a loopback-only API would point clients at an address they cannot reach.
func advertisedPort(listen string) (int, error) {
	host, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return 0, fmt.Errorf("invalid api listen address %q: %w", listen, err)
	}
	if host == "localhost" {
		return 0, ErrLoopbackOnly
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return 0, ErrLoopbackOnly
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid api port %q: %w", portStr, err)
	}
	return port, nil
}

func instanceName(cfg *config.Instance) string {
	if name := cfg.DiscoveryInstanceName(); name != "" {
		return name
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	if id := cfg.DeviceID(); len(id) >= 8 {
		return "ecmo-" + id[:8]
	}
	return "ecmo"
}

func (a *Advertiser) InstanceName() string {
	return a.instance
}

// Run advertises until ctx is cancelled, then sends mDNS goodbye packets.
func (a *Advertiser) Run(ctx context.Context) error {
	server := a.tryRegister()
	if server == nil {
		ticker := a.clock.NewTicker(retryInterval)
		defer ticker.Stop()

		for server == nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.Chan():
				server = a.tryRegister()
			}
		}
	}

	<-ctx.Done()
	server.Shutdown()
	log.Debug().Str("instance", a.instance).Msg("mDNS advertising stopped")
	return nil
}

func (a *Advertiser) tryRegister() shutdowner {
	all, err := a.ifaces()
	if err != nil {
		log.Debug().Err(err).Msg("failed to list network interfaces")
		return nil
	}

	ifaces := filterInterfaces(all)
	if len(ifaces) == 0 {
		log.Debug().Msg("no network interface suitable for mDNS yet")
		return nil
	}

	server, err := a.register(a.instance, ServiceType, "local.", a.port, a.text, ifaces)
	if err != nil {
		log.Debug().Err(err).Msg("mDNS registration failed")
		return nil
	}

	names := make([]string, len(ifaces))
	for i, iface := range ifaces {
		names[i] = iface.Name
	}
	log.Info().
		Str("instance", a.instance).
		Str("type", ServiceType).
		Int("port", a.port).
		Strs("interfaces", names).
		Msg("mDNS advertising started")
	return server
}

// filterInterfaces keeps interfaces that are up, multicast capable and not
// loopback or virtual.
func filterInterfaces(ifaces []net.Interface) []net.Interface {
	var out []net.Interface
	for _, iface := range ifaces {
		switch {
		case iface.Flags&net.FlagUp == 0,
			iface.Flags&net.FlagLoopback != 0,
			iface.Flags&net.FlagMulticast == 0,
			isVirtual(iface.Name):
			continue
		}
		out = append(out, iface)
	}
	return out
}

func isVirtual(name string) bool {
	name = strings.ToLower(name)
	return slices.ContainsFunc(virtualInterfacePrefixes, func(p string) bool {
		return strings.HasPrefix(name, p)
	})
}
