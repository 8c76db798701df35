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

// Package publishers forwards service notifications to external systems.
package publishers

import (
	"context"

	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/rs/zerolog/log"
)

// Publisher receives every notification the service emits.
type Publisher interface {
	Publish(notif models.Notification) error
	Stop()
}

// StartMQTT connects every enabled MQTT publisher in cfg. Publishers that
// fail to connect are logged and skipped.
func StartMQTT(cfg *config.Instance) []Publisher {
	active := make([]Publisher, 0)
	for _, mqttCfg := range cfg.GetMQTTPublishers() {
		// nil means enabled
		if mqttCfg.Enabled != nil && !*mqttCfg.Enabled {
			continue
		}
		log.Info().Msgf("starting MQTT publisher: %s (topic: %s)", mqttCfg.Broker, mqttCfg.Topic)
		p := NewMQTTPublisher(mqttCfg.Broker, mqttCfg.Topic, mqttCfg.Filter)
		if err := p.Start(); err != nil {
			log.Error().Err(err).Msgf("failed to start MQTT publisher for %s", mqttCfg.Broker)
			continue
		}
		active = append(active, p)
	}
	if len(active) > 0 {
		log.Info().Msgf("started %d MQTT publisher(s)", len(active))
	}
	return active
}

// FanOut drains notifs into every publisher until ctx is done or notifs
// is closed. notifs is always drained, even with no publishers, so the
// broker subscription never fills up.
func FanOut(ctx context.Context, notifs <-chan models.Notification, pubs []Publisher) {
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("publisher fan-out: stopping")
			return
		case notif, ok := <-notifs:
			if !ok {
				log.Debug().Msg("publisher fan-out: notification channel closed")
				return
			}
			for _, pub := range pubs {
				if err := pub.Publish(notif); err != nil {
					log.Warn().Err(err).Msgf("failed to publish %s notification", notif.Method)
				}
			}
		}
	}
}
