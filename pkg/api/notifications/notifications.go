// QR Studio Core
// Copyright (c) 2026 The QR Studio Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of QR Studio Core.
//
// QR Studio Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// QR Studio Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with QR Studio Core.  If not, see <http://www.gnu.org/licenses/>.

package notifications

import (
	"encoding/json"

	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/rs/zerolog/log"
)

// sendNotification never blocks: when the queue is full the notification is
// dropped and logged.
func sendNotification(ns chan<- models.Notification, method string, payload any) {
	var params json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("failed to marshal notification payload")
			return
		}
		params = data
	}

	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notification queue full, dropping notification")
	}
}

func CodesCreated(ns chan<- models.Notification, payload models.CodeRecordResponse) {
	sendNotification(ns, models.NotificationCodesCreated, payload)
}

func CodesDeleted(ns chan<- models.Notification, id string) {
	sendNotification(ns, models.NotificationCodesDeleted, models.CodeDeletedParams{ID: id})
}

func CodesScanned(ns chan<- models.Notification, payload models.CodeScannedParams) {
	sendNotification(ns, models.NotificationCodesScanned, payload)
}

func ReadersAdded(ns chan<- models.Notification, payload models.ReaderResponse) {
	sendNotification(ns, models.NotificationReadersAdded, payload)
}

func ReadersRemoved(ns chan<- models.Notification, payload models.ReaderResponse) {
	sendNotification(ns, models.NotificationReadersRemoved, payload)
}
