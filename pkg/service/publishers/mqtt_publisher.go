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

package publishers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/rs/zerolog/log"
)

const (
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250
)

var ErrNotConnected = errors.New("mqtt publisher not connected")

// MQTTPublisher forwards service notifications to an MQTT broker. Each
// notification goes to "<topic>/<method>" with the raw params as payload.
type MQTTPublisher struct {
	client mqtt.Client
	creds  *config.CredentialEntry
	broker string
	topic  string
	filter []string
}

// NewMQTTPublisher creates a publisher for broker and topic. An empty
// filter publishes every notification.
func NewMQTTPublisher(broker, topic string, filter []string) *MQTTPublisher {
	return &MQTTPublisher{
		broker: broker,
		topic:  strings.TrimRight(topic, "/"),
		filter: filter,
	}
}

// brokerURL adds the tcp scheme to bare host:port addresses.
func (p *MQTTPublisher) brokerURL() string {
	if strings.Contains(p.broker, "://") {
		return p.broker
	}
	return "tcp://" + p.broker
}

// Start connects to the broker, using credentials from auth.toml when one
// matches the broker address.
func (p *MQTTPublisher) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.brokerURL())
	opts.SetClientID("qrstudio-publisher-" + uuid.New().String()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	if p.creds == nil {
		p.creds = config.LookupAuth(config.GetAuthCfg().Creds, p.brokerURL())
	}
	if p.creds != nil && p.creds.Username != "" {
		opts.SetUsername(p.creds.Username)
		opts.SetPassword(p.creds.Password)
	}

	opts.OnConnect = func(_ mqtt.Client) {
		log.Info().Msgf("mqtt publisher: connected to %s", p.broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt publisher: connection lost")
	}

	p.client = mqtt.NewClient(opts)

	token := p.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info().Msgf("mqtt publisher: started for %s (topic: %s)", p.broker, p.topic)
	return nil
}

// Publish sends notif if it passes the filter. It waits at most
// publishTimeout for the broker to acknowledge.
func (p *MQTTPublisher) Publish(notif models.Notification) error {
	if !p.matchesFilter(notif.Method) {
		return nil
	}
	if p.client == nil || !p.client.IsConnected() {
		return ErrNotConnected
	}

	payload := []byte(notif.Params)
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	token := p.client.Publish(p.topic+"/"+notif.Method, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out after %s", notif.Method, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", notif.Method, err)
	}

	log.Debug().Msgf("mqtt publisher: published %s notification", notif.Method)
	return nil
}

func (p *MQTTPublisher) Stop() {
	if p.client != nil && p.client.IsConnected() {
		log.Debug().Msg("mqtt publisher: disconnecting")
		p.client.Disconnect(disconnectQuiesce)
	}
}

func (p *MQTTPublisher) matchesFilter(method string) bool {
	if len(p.filter) == 0 {
		return true
	}
	for _, f := range p.filter {
		if f == method {
			return true
		}
	}
	return false
}
