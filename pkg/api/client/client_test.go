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

package client

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/config"
	"github.com/ecmo-console/ecmo-core/pkg/testing/helpers"
	"github.com/olahol/melody"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfigWithPort(t *testing.T, port int) *config.Instance {
	t.Helper()
	cfg := helpers.NewTestConfig(t, "")
	cfg.SetAPIPort(port)
	return cfg
}

// unusedPort returns a port with nothing listening on it.
func unusedPort(t *testing.T) int {
	t.Helper()
	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	require.True(t, ok)
	require.NoError(t, listener.Close())
	return tcpAddr.Port
}

func respond(session *melody.Session, id any, result any) {
	data, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"result":  result,
		"id":      id,
	})
	_ = session.Write(data)
}

func TestLocalClient_ValidRequest(t *testing.T) {
	t.Parallel()

	server := helpers.NewFakeAPI(t, func(session *melody.Session, msg []byte) {
		var request map[string]any
		if err := json.Unmarshal(msg, &request); err != nil {
			return
		}
		if request["method"] != "modules.select" {
			return
		}
		respond(session, request["id"], map[string]any{"active": "air_flow"})
	})

	cfg := testConfigWithPort(t, server.Port(t))

	result, err := LocalClient(context.Background(), cfg, "modules.select", `{"module":"air_flow"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"active":"air_flow"}`, result)
}

func TestLocalClient_EmptyParams(t *testing.T) {
	t.Parallel()

	paramsSeen := make(chan bool, 1)
	server := helpers.NewFakeAPI(t, func(session *melody.Session, msg []byte) {
		var request map[string]any
		if err := json.Unmarshal(msg, &request); err != nil {
			return
		}
		_, ok := request["params"]
		paramsSeen <- ok
		respond(session, request["id"], "success")
	})

	cfg := testConfigWithPort(t, server.Port(t))

	result, err := LocalClient(context.Background(), cfg, "version", "")
	require.NoError(t, err)
	assert.Equal(t, `"success"`, result)
	assert.False(t, <-paramsSeen, "params omitted when empty")
}

func TestLocalClient_InvalidParams(t *testing.T) {
	t.Parallel()

	cfg := testConfigWithPort(t, unusedPort(t))

	_, err := LocalClient(context.Background(), cfg, "modules.select", "{not json")
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestLocalClient_ErrorResponse(t *testing.T) {
	t.Parallel()

	server := helpers.NewFakeAPI(t, func(session *melody.Session, msg []byte) {
		var request map[string]any
		if err := json.Unmarshal(msg, &request); err != nil {
			return
		}
		data, _ := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"id":      request["id"],
			"error":   map[string]any{"code": -32001, "message": "No active module"},
		})
		_ = session.Write(data)
	})

	cfg := testConfigWithPort(t, server.Port(t))

	_, err := LocalClient(context.Background(), cfg, "modules.increment", "")
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32001, rpcErr.Code)
	assert.Contains(t, err.Error(), "No active module")
}

func TestLocalClient_IgnoresOtherMessages(t *testing.T) {
	t.Parallel()

	server := helpers.NewFakeAPI(t, func(session *melody.Session, msg []byte) {
		var request map[string]any
		if err := json.Unmarshal(msg, &request); err != nil {
			return
		}
		// a broadcast and a reply to someone else arrive first
		_ = session.Write([]byte(`{"jsonrpc":"2.0","method":"telemetry.updated","params":{}}`))
		respond(session, "other-id", "wrong")
		respond(session, request["id"], "right")
	})

	cfg := testConfigWithPort(t, server.Port(t))

	result, err := LocalClient(context.Background(), cfg, "telemetry", "")
	require.NoError(t, err)
	assert.Equal(t, `"right"`, result)
}

func TestLocalClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	cfg := testConfigWithPort(t, unusedPort(t))

	_, err := LocalClient(context.Background(), cfg, "version", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service not reachable")
}

func TestLocalClient_Cancelled(t *testing.T) {
	t.Parallel()

	server := helpers.NewFakeAPI(t, func(_ *melody.Session, _ []byte) {})
	cfg := testConfigWithPort(t, server.Port(t))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := LocalClient(ctx, cfg, "version", "")
	require.ErrorIs(t, err, ErrRequestCancelled)
}

func TestWaitNotification(t *testing.T) {
	t.Parallel()

	server := helpers.NewFakeAPI(t, nil)
	server.Melody.HandleConnect(func(session *melody.Session) {
		_ = session.Write([]byte(`{"jsonrpc":"2.0","method":"telemetry.updated","params":{"stale":false}}`))
		_ = session.Write([]byte(`{"jsonrpc":"2.0","method":"setpoints.changed","params":{"active":"blood_pump"}}`))
	})

	cfg := testConfigWithPort(t, server.Port(t))

	params, err := WaitNotification(context.Background(), time.Second, cfg, "setpoints.changed")
	require.NoError(t, err)
	assert.JSONEq(t, `{"active":"blood_pump"}`, params)
}

func TestWaitNotification_Timeout(t *testing.T) {
	t.Parallel()

	server := helpers.NewFakeAPI(t, nil)
	cfg := testConfigWithPort(t, server.Port(t))

	_, err := WaitNotification(context.Background(), 50*time.Millisecond, cfg, "setpoints.changed")
	require.ErrorIs(t, err, ErrRequestTimeout)
}

func TestLocalURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config string
		want   string
	}{
		{name: "default loopback", config: "", want: "ws://127.0.0.1:7598/api"},
		{name: "custom port", config: "[service]\napi_port = 7700\n", want: "ws://127.0.0.1:7700/api"},
		{name: "wildcard", config: "[service]\napi_listen = \"0.0.0.0:7600\"\n", want: "ws://127.0.0.1:7600/api"},
		{name: "ipv6 wildcard", config: "[service]\napi_listen = \"[::]:7600\"\n", want: "ws://127.0.0.1:7600/api"},
		{name: "explicit host", config: "[service]\napi_listen = \"10.0.0.2:7598\"\n", want: "ws://10.0.0.2:7598/api"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := helpers.NewTestConfig(t, tt.config)
			u := localURL(cfg)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestLocalClient_ServerHangsUp(t *testing.T) {
	t.Parallel()

	server := helpers.NewFakeAPI(t, func(session *melody.Session, _ []byte) {
		_ = session.Close()
	})
	cfg := testConfigWithPort(t, server.Port(t))

	_, err := LocalClient(context.Background(), cfg, "version", "")
	require.ErrorIs(t, err, ErrConnectionClosed)
}

func TestLocalClient_NullResult(t *testing.T) {
	t.Parallel()

	server := helpers.NewFakeAPI(t, func(session *melody.Session, msg []byte) {
		var request map[string]any
		if err := json.Unmarshal(msg, &request); err != nil {
			return
		}
		respond(session, request["id"], nil)
	})
	cfg := testConfigWithPort(t, server.Port(t))

	result, err := LocalClient(context.Background(), cfg, "modules.deselect", "")
	require.NoError(t, err)
	assert.Equal(t, "null", result)
}
