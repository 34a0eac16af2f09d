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

package methods

import (
	"fmt"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/ecmo-console/ecmo-core/pkg/api/models/requests"
	"github.com/ecmo-console/ecmo-core/pkg/api/validation"
	"github.com/rs/zerolog/log"
)

func HandleSetpoints(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return env.Console.SetpointsResponse(), nil
}

func HandleModulesSelect(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.SelectModuleParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		log.Warn().Err(err).Msg("invalid params")
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	resp, err := env.Console.Select(params.Module)
	if err != nil {
		return nil, fmt.Errorf("error selecting module: %w", err)
	}
	return resp, nil
}

func HandleModulesDeselect(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	env.Console.Deselect()
	return models.ActiveModuleResponse{}, nil
}

func HandleModulesIncrement(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return step(env, true)
}

func HandleModulesDecrement(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return step(env, false)
}

func step(env requests.RequestEnv, increment bool) (any, error) { //nolint:gocritic // single-use parameter in API handler
	adj, err := env.Console.Step(increment)
	if err != nil {
		return nil, fmt.Errorf("error adjusting setpoint: %w", err)
	}

	log.Info().
		Str("module", adj.Module).
		Float64("previous", adj.Previous).
		Float64("value", adj.Value).
		Bool("sent", adj.Sent).
		Bool("local", env.IsLocal).
		Msg("setpoint adjusted via api")
	return adj, nil
}
