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

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ecmo-console/ecmo-core/pkg/api/methods"
	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/api/models/requests"
	"github.com/ecmo-console/ecmo-core/pkg/api/validation"
	"github.com/ecmo-console/ecmo-core/pkg/service/actuator"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

func rpcError(code int, message string) models.ErrorObject {
	return models.ErrorObject{Code: code, Message: message}
}

// Standard JSON-RPC 2.0 errors, then the console's own in the -32000 range.
var (
	JSONRPCErrorParseError     = rpcError(-32700, "Parse error")
	JSONRPCErrorInvalidRequest = rpcError(-32600, "Invalid Request")
	JSONRPCErrorMethodNotFound = rpcError(-32601, "Method not found")
	JSONRPCErrorInvalidParams  = rpcError(-32602, "Invalid params")
	JSONRPCErrorInternalError  = rpcError(-32603, "Internal error")

	JSONRPCErrorServerError    = rpcError(-32000, "Server error")
	JSONRPCErrorNoActiveModule = rpcError(-32001, "No active module")
)

var errMethodNotFound = errors.New("method not found")

// Plain text heartbeat, answered outside JSON-RPC.
var (
	heartbeatPing = []byte("ping")
	heartbeatPong = []byte("pong")
)

type handler func(requests.RequestEnv) (any, error)

var methodMap = map[string]handler{
	models.MethodTelemetry: methods.HandleTelemetry,
	models.MethodHealth:    methods.HandleHealth,
	models.MethodVersion:   methods.HandleVersion,

	models.MethodSetpoints:        methods.HandleSetpoints,
	models.MethodModulesSelect:    methods.HandleModulesSelect,
	models.MethodModulesDeselect:  methods.HandleModulesDeselect,
	models.MethodModulesIncrement: methods.HandleModulesIncrement,
	models.MethodModulesDecrement: methods.HandleModulesDecrement,
}

func (s *Server) handleWSMessage(session *melody.Session, msg []byte) {
	if bytes.Equal(msg, heartbeatPing) {
		if err := session.Write(heartbeatPong); err != nil {
			log.Debug().Err(err).Msg("writing heartbeat")
		}
		return
	}

	req, rejected := parseRequest(msg)
	if rejected != nil {
		log.Warn().Int("code", rejected.Code).Str("reason", rejected.Message).Msg("rejected api message")
		replyError(session, replyID(req), *rejected)
		return
	}
	if req.ID.IsAbsent() {
		log.Debug().Str("method", req.Method).Msg("ignoring notification from client")
		return
	}

	result, err := s.dispatch(session, req)
	if err != nil {
		log.Warn().Err(err).Str("method", req.Method).Msg("api request failed")
		replyError(session, *req.ID, errorObject(err))
		return
	}
	replyResult(session, *req.ID, result)
}

// parseRequest decodes msg, or returns the error to answer it with. Frames
// without a method are responses, which clients should never send.
func parseRequest(msg []byte) (*models.RequestObject, *models.ErrorObject) {
	if !json.Valid(msg) {
		return nil, &JSONRPCErrorParseError
	}
	var req models.RequestObject
	if err := json.Unmarshal(msg, &req); err != nil || req.Method == "" {
		return nil, &JSONRPCErrorInvalidRequest
	}
	if req.JSONRPC != "2.0" {
		return &req, &JSONRPCErrorInvalidRequest
	}
	return &req, nil
}

// replyID echoes the request id when one could be read.
func replyID(req *models.RequestObject) models.RPCID {
	if req == nil || req.ID.IsAbsent() {
		return models.NullRPCID
	}
	return *req.ID
}

// dispatch runs the handler for req. A panicking handler fails the request
// instead of the process.
func (s *Server) dispatch(session *melody.Session, req *models.RequestObject) (result any, err error) {
	fn, ok := methodMap[strings.ToLower(req.Method)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errMethodNotFound, req.Method)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("method", req.Method).Msg("api handler panicked")
			result, err = nil, errHandlerPanic
		}
	}()

	log.Debug().Str("method", req.Method).Str("id", req.ID.String()).Msg("dispatching api request")
	return fn(requests.RequestEnv{
		Console: s.console,
		Config:  s.cfg,
		Params:  req.Params,
		ID:      *req.ID,
		IsLocal: fromLoopback(session.Request.RemoteAddr),
	})
}

var errHandlerPanic = errors.New("handler panicked")

// errorObject maps a handler error to its JSON-RPC error.
func errorObject(err error) models.ErrorObject {
	var fieldErr *validation.Error
	switch {
	case errors.Is(err, errMethodNotFound):
		return JSONRPCErrorMethodNotFound
	case errors.Is(err, errHandlerPanic):
		return JSONRPCErrorInternalError
	case errors.Is(err, actuator.ErrNoActiveModule):
		return JSONRPCErrorNoActiveModule
	case errors.As(err, &fieldErr),
		errors.Is(err, validation.ErrMissingParams),
		errors.Is(err, validation.ErrInvalidParams),
		errors.Is(err, actuator.ErrUnknownModule):
		return rpcError(JSONRPCErrorInvalidParams.Code, err.Error())
	default:
		return rpcError(JSONRPCErrorServerError.Code, err.Error())
	}
}

func fromLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func replyResult(session *melody.Session, id models.RPCID, result any) {
	write(session, models.ResponseObject{JSONRPC: "2.0", ID: id, Result: result})
}

func replyError(session *melody.Session, id models.RPCID, obj models.ErrorObject) {
	write(session, models.ResponseErrorObject{JSONRPC: "2.0", ID: id, Error: &obj})
}

func write(session *melody.Session, frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Msg("encoding api reply")
		return
	}
	if err := session.Write(data); err != nil {
		log.Debug().Err(err).Msg("writing api reply, session gone")
	}
}

// notificationFrame encodes n as a JSON-RPC notification: a request
// without an id.
func notificationFrame(n models.Notification) ([]byte, error) {
	data, err := json.Marshal(models.RequestObject{JSONRPC: "2.0", Method: n.Method, Params: n.Params})
	if err != nil {
		return nil, fmt.Errorf("encoding %s notification: %w", n.Method, err)
	}
	return data, nil
}
