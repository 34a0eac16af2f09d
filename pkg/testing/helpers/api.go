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

// Package helpers holds test fixtures shared across packages: an in-memory
// config and websocket plumbing for exercising the JSON-RPC API.
//
//	srv := httptest.NewServer(api.NewServer(cfg, console).Handler())
//	defer srv.Close()
//
//	conn := helpers.DialAPI(t, srv.URL)
//	resp, err := conn.Call(models.MethodTelemetry, nil)
//	require.NoError(t, err)
//	helpers.RequireResult(t, resp)
package helpers

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/olahol/melody"
	"github.com/stretchr/testify/require"
)

const (
	apiPath     = "/api"
	readTimeout = 2 * time.Second
)

type JSONRPCRequest struct {
	Params  any          `json:"params,omitempty"`
	JSONRPC string       `json:"jsonrpc"`
	Method  string       `json:"method"`
	ID      models.RPCID `json:"id"`
}

type JSONRPCResponse struct {
	Error  *models.ErrorObject `json:"error,omitempty"`
	Result json.RawMessage     `json:"result,omitempty"`
	ID     models.RPCID        `json:"id"`
}

// FakeAPI stands in for a running service: a websocket endpoint on the API
// path that hands every message to a test handler.
type FakeAPI struct {
	Server *httptest.Server
	Melody *melody.Melody
}

// NewFakeAPI starts a FakeAPI that is shut down when the test ends.
func NewFakeAPI(t *testing.T, handler func(*melody.Session, []byte)) *FakeAPI {
	t.Helper()

	m := melody.New()
	if handler != nil {
		m.HandleMessage(handler)
	}

	f := &FakeAPI{
		Melody: m,
		Server: httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != apiPath {
				http.NotFound(w, r)
				return
			}
			if err := m.HandleRequest(w, r); err != nil {
				t.Logf("fake api upgrade: %v", err)
			}
		})),
	}
	t.Cleanup(func() {
		_ = m.Close()
		f.Server.Close()
	})
	return f
}

func (f *FakeAPI) Port(t *testing.T) int {
	t.Helper()
	_, p, err := net.SplitHostPort(f.Server.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(p)
	require.NoError(t, err)
	return port
}

// APIConn is a websocket client on the API path with JSON-RPC helpers.
type APIConn struct {
	ws *websocket.Conn
}

// DialAPI connects to the API path of the server at serverURL. The
// connection is closed when the test ends.
func DialAPI(t *testing.T, serverURL string) *APIConn {
	t.Helper()

	u, err := url.Parse(serverURL)
	require.NoError(t, err)
	u.Scheme = "ws"
	u.Path = apiPath

	ws, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)

	t.Cleanup(func() { _ = ws.Close() })
	return &APIConn{ws: ws}
}

// Send writes msg as a single text frame.
func (c *APIConn) Send(msg string) error {
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Next returns the next frame, failing after a short timeout.
func (c *APIConn) Next() ([]byte, error) {
	if err := c.ws.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return nil, fmt.Errorf("setting read deadline: %w", err)
	}
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}
	return data, nil
}

// Call sends a request with a fresh id and returns the response that
// carries the same id.
func (c *APIConn) Call(method string, params any) (*JSONRPCResponse, error) {
	req := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      models.NewStringID(uuid.NewString()),
		Method:  method,
		Params:  params,
	}
	b, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	if err := c.Send(string(b)); err != nil {
		return nil, err
	}

	data, err := c.Next()
	if err != nil {
		return nil, err
	}
	var resp JSONRPCResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding response %q: %w", data, err)
	}
	if !resp.ID.Equal(req.ID) {
		return nil, fmt.Errorf("got response for %s, sent %s", resp.ID.String(), req.ID.String())
	}
	return &resp, nil
}

func RequireResult(t *testing.T, resp *JSONRPCResponse) {
	t.Helper()
	require.NotNil(t, resp)
	require.Nil(t, resp.Error, "unexpected error object")
	require.NotEmpty(t, resp.Result)
}

func RequireErrorCode(t *testing.T, resp *JSONRPCResponse, code int) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error, "expected an error object")
	require.Equal(t, code, resp.Error.Code)
}
