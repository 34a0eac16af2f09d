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

package requests

import (
	"encoding/json"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/config"
)

// Console is the part of the running service the API handlers drive.
type Console interface {
	TelemetryResponse() models.TelemetryResponse
	SetpointsResponse() models.SetpointsResponse
	HealthResponse() models.HealthResponse
	Select(module string) (models.ActiveModuleResponse, error)
	Deselect()
	Step(increment bool) (models.AdjustmentResponse, error)
	Protocol() string
}

type RequestEnv struct {
	Console Console
	Config  *config.Instance
	Params  json.RawMessage
	ID      models.RPCID
	IsLocal bool
}
