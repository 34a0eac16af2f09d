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

// Package api serves the console over JSON-RPC 2.0 on a websocket, for the
// touchscreen UI and any other local collaborator.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/api/models/requests"
	"github.com/ecmo-console/ecmo-core/pkg/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const (
	APIPath = "/api"

	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server routes websocket JSON-RPC traffic and the health endpoint to a
// console.
type Server struct {
	cfg     *config.Instance
	console requests.Console
	session *melody.Melody
	router  chi.Router
}

func NewServer(cfg *config.Instance, console requests.Console) *Server {
	s := &Server{
		cfg:     cfg,
		console: console,
		session: melody.New(),
	}

	origins := allowedOrigins(cfg)
	s.session.Upgrader.CheckOrigin = func(r *http.Request) bool {
		return checkOrigin(r.Header.Get("Origin"), origins)
	}
	s.session.HandleMessage(s.handleWSMessage)
	s.session.HandleConnect(func(session *melody.Session) {
		log.Debug().Str("remote", session.Request.RemoteAddr).Msg("api client connected")
	})
	s.session.HandleDisconnect(func(session *melody.Session) {
		log.Debug().Str("remote", session.Request.RemoteAddr).Msg("api client disconnected")
	})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Accept"},
		ExposedHeaders: []string{},
	}))

	r.Get(APIPath, func(w http.ResponseWriter, r *http.Request) {
		err := s.session.HandleRequest(w, r)
		if err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})
	r.With(middleware.Timeout(config.APIRequestTimeout)).Get("/healthz", s.handleHealth)

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func allowedOrigins(cfg *config.Instance) []string {
	origins := cfg.AllowedOrigins()
	if len(origins) == 0 {
		return []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	return origins
}

// checkOrigin accepts requests without an Origin header (native clients),
// loopback origins and the configured origins.
func checkOrigin(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if ip := net.ParseIP(u.Hostname()); (ip != nil && ip.IsLoopback()) || u.Hostname() == "localhost" {
		return true
	}
	return slices.Contains(allowed, origin)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := s.console.HealthResponse()

	status := http.StatusOK
	if health.Stale {
		status = http.StatusServiceUnavailable
	}
	for _, l := range health.Links {
		if !l.Open {
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(health); err != nil {
		log.Error().Err(err).Msg("error writing health response")
	}
}

// broadcastNotifications forwards notifications to every websocket session
// until ctx is done or the channel closes.
func (s *Server) broadcastNotifications(ctx context.Context, notifications <-chan models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-notifications:
			if !ok {
				return
			}

			data, err := notificationFrame(notif)
			if err != nil {
				log.Error().Err(err).Msg("dropping notification")
				continue
			}
			if err := s.session.Broadcast(data); err != nil {
				log.Warn().Err(err).Str("method", notif.Method).Msg("broadcasting notification")
			}
		}
	}
}

// Serve runs the HTTP server on listener until ctx is done.
func (s *Server) Serve(
	ctx context.Context,
	listener net.Listener,
	notifications <-chan models.Notification,
) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	var wg sync.WaitGroup
	broadcastCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		wg.Wait()
	}()
	wg.Go(func() {
		s.broadcastNotifications(broadcastCtx, notifications)
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	log.Info().Str("address", listener.Addr().String()).Msg("api server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	if err := s.session.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing websocket sessions")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("api server shutdown")
	}
	<-errCh

	log.Info().Msg("api server stopped")
	return nil
}

// Start listens on the configured API address and serves until ctx is done.
func Start(
	ctx context.Context,
	cfg *config.Instance,
	console requests.Console,
	notifications <-chan models.Notification,
) error {
	addr := cfg.APIListen()
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return NewServer(cfg, console).Serve(ctx, listener, notifications)
}
