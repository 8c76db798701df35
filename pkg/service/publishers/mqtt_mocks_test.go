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
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/qrstudio/qrstudio-core/pkg/helpers/syncutil"
)

type sentMessage struct {
	payload  any
	topic    string
	qos      byte
	retained bool
}

// fakeBroker records what a publisher sends. The embedded interface is
// nil, so calling a client method the publisher does not use panics.
type fakeBroker struct {
	mqtt.Client
	failPublish error
	sent        []sentMessage
	disconnects int
	connected   bool
	mu          syncutil.Mutex
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{connected: true}
}

func (b *fakeBroker) messages() []sentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentMessage(nil), b.sent...)
}

func (b *fakeBroker) count() int {
	return len(b.messages())
}

func (b *fakeBroker) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *fakeBroker) Disconnect(uint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	b.disconnects++
}

func (b *fakeBroker) Publish(topic string, qos byte, retained bool, payload any) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failPublish != nil {
		return doneToken{err: b.failPublish}
	}
	b.sent = append(b.sent, sentMessage{topic: topic, qos: qos, retained: retained, payload: payload})
	return doneToken{}
}

// doneToken is an already completed mqtt.Token.
type doneToken struct {
	err error
}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                 { return t.err }

func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
