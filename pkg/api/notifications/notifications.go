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

package notifications

import (
	"encoding/json"

	"github.com/ecmo-console/ecmo-core/pkg/api/models"
	"github.com/rs/zerolog/log"
)

// sendNotification never blocks. The poll loop and API handlers call it and
// must not stall behind a slow consumer, so a full channel drops the event.
func sendNotification(ns chan<- models.Notification, method string, payload any) {
	if ns == nil {
		return
	}
	log.Debug().Str("method", method).Msg("sending notification")

	var params json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("error marshalling notification params")
			return
		}
		params = b
	}

	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notification channel full, dropping notification")
	}
}

func TelemetryUpdated(ns chan<- models.Notification, payload models.TelemetryResponse) {
	sendNotification(ns, models.NotificationTelemetryUpdated, payload)
}

func SetpointsChanged(ns chan<- models.Notification, payload models.SetpointsResponse) {
	sendNotification(ns, models.NotificationSetpointsChanged, payload)
}
