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
	"github.com/ecmo-console/ecmo-core/pkg/api/models/requests"
)

func HandleTelemetry(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return env.Console.TelemetryResponse(), nil
}

func HandleHealth(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return env.Console.HealthResponse(), nil
}
