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

// Package client talks to a running console service over its local
// websocket API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/config"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrInvalidParams    = errors.New("invalid params")
	ErrRequestCancelled = errors.New("request cancelled")
	ErrConnectionClosed = errors.New("service closed the connection")
)

const APIPath = "/api"

// RPCError is an error object returned by the service.
type RPCError struct {
	Message string
	Code    int
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// frame is any message the service sends: a reply carries an id, a
// broadcast carries a method and no id.
type frame struct {
	ID      *models.RPCID       `json:"id,omitempty"`
	Error   *models.ErrorObject `json:"error,omitempty"`
	JSONRPC string              `json:"jsonrpc"`
	Method  string              `json:"method,omitempty"`
	Params  json.RawMessage     `json:"params,omitempty"`
	Result  json.RawMessage     `json:"result,omitempty"`
}

// localURL points at the API of the service on this machine. A wildcard
// listen address is reached through loopback.
func localURL(cfg *config.Instance) url.URL {
	host, port, err := net.SplitHostPort(cfg.APIListen())
	if err != nil {
		host, port = "127.0.0.1", strconv.Itoa(cfg.APIPort())
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return url.URL{Scheme: "ws", Host: net.JoinHostPort(host, port), Path: APIPath}
}

func dial(ctx context.Context, cfg *config.Instance) (*websocket.Conn, error) {
	u := localURL(cfg)
	c, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("service not reachable at %s: %w", u.String(), err)
	}
	return c, nil
}

func closeConn(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		log.Debug().Err(err).Msg("closing api connection")
	}
}

// timer returns a channel that fires after timeout. Zero selects the
// default request timeout and a negative timeout never fires.
func timer(timeout time.Duration) (<-chan time.Time, func()) {
	if timeout < 0 {
		return nil, func() {}
	}
	if timeout == 0 {
		timeout = config.APIRequestTimeout
	}
	t := time.NewTimer(timeout)
	return t.C, func() { t.Stop() }
}

// await reads frames from c until match accepts one. Frames that are not
// JSON-RPC 2.0 are skipped.
func await(ctx context.Context, c *websocket.Conn, timeout time.Duration, match func(*frame) bool) (*frame, error) {
	found := make(chan *frame, 1)
	go func() {
		defer close(found)
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("api connection read ended")
				return
			}
			var f frame
			if err := json.Unmarshal(data, &f); err != nil || f.JSONRPC != "2.0" {
				log.Debug().Bytes("frame", data).Msg("skipping unexpected frame")
				continue
			}
			if match(&f) {
				found <- &f
				return
			}
		}
	}()

	expired, stop := timer(timeout)
	defer stop()

	var fail error
	select {
	case f, ok := <-found:
		if !ok {
			return nil, ErrConnectionClosed
		}
		return f, nil
	case <-expired:
		fail = ErrRequestTimeout
	case <-ctx.Done():
		fail = ErrRequestCancelled
	}

	// unblock the reader before returning
	closeConn(c)
	<-found
	return nil, fail
}

// LocalClient sends one request to the service on this machine and returns
// the raw JSON result.
func LocalClient(ctx context.Context, cfg *config.Instance, method, params string) (string, error) {
	req := models.RequestObject{JSONRPC: "2.0", Method: method}
	if params != "" {
		if !json.Valid([]byte(params)) {
			return "", ErrInvalidParams
		}
		req.Params = json.RawMessage(params)
	}
	id := models.NewStringID(uuid.NewString())
	req.ID = &id

	c, err := dial(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer closeConn(c)

	if err := c.WriteJSON(req); err != nil {
		return "", fmt.Errorf("sending %s: %w", method, err)
	}

	reply, err := await(ctx, c, 0, func(f *frame) bool {
		return f.ID != nil && f.ID.Equal(id)
	})
	if err != nil {
		return "", err
	}
	if reply.Error != nil {
		return "", &RPCError{Code: reply.Error.Code, Message: reply.Error.Message}
	}
	if len(reply.Result) == 0 {
		return "null", nil
	}

	var out bytes.Buffer
	if err := json.Compact(&out, reply.Result); err != nil {
		return "", fmt.Errorf("reading %s result: %w", method, err)
	}
	return out.String(), nil
}

// WaitNotification blocks until the service broadcasts a notification with
// the given method and returns its params.
func WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	cfg *config.Instance,
	method string,
) (string, error) {
	c, err := dial(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer closeConn(c)

	n, err := await(ctx, c, timeout, func(f *frame) bool {
		return f.ID.IsAbsent() && f.Method == method
	})
	if err != nil {
		return "", err
	}
	return string(n.Params), nil
}
