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

package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/olahol/melody"
	"github.com/qrstudio/qrstudio-core/pkg/helpers/syncutil"
)

// WebSocketTestServer is a bare melody server on /api that records every
// message and upgrade header it sees.
type WebSocketTestServer struct {
	Server   *httptest.Server
	Melody   *melody.Melody
	messages []WebSocketMessage
	auth     []string
	mu       syncutil.RWMutex
}

// WebSocketMessage is one message received by the test server.
type WebSocketMessage struct {
	Timestamp time.Time
	Data      []byte
}

// NewWebSocketTestServer starts a server that passes each message to
// handler. A nil handler only records.
func NewWebSocketTestServer(t *testing.T, handler func(*melody.Session, []byte)) *WebSocketTestServer {
	t.Helper()
	m := melody.New()
	wsts := &WebSocketTestServer{Melody: m}

	m.HandleMessage(func(session *melody.Session, msg []byte) {
		wsts.mu.Lock()
		wsts.messages = append(wsts.messages, WebSocketMessage{Timestamp: time.Now(), Data: msg})
		wsts.mu.Unlock()
		if handler != nil {
			handler(session, msg)
		}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		wsts.mu.Lock()
		wsts.auth = append(wsts.auth, r.Header.Get("Authorization"))
		wsts.mu.Unlock()
		if err := m.HandleRequest(w, r); err != nil {
			t.Logf("websocket test server: %v", err)
		}
	})
	wsts.Server = httptest.NewServer(mux)
	return wsts
}

// EchoResult replies to every request with result under the request's id.
func EchoResult(result any) func(*melody.Session, []byte) {
	return func(session *melody.Session, msg []byte) {
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(msg, &req); err != nil {
			return
		}
		data, _ := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
		_ = session.Write(data)
	}
}

func (wsts *WebSocketTestServer) Close() {
	wsts.Server.Close()
	_ = wsts.Melody.Close()
}

// Port is the port the server listens on.
func (wsts *WebSocketTestServer) Port() int {
	u, err := url.Parse(wsts.Server.URL)
	if err != nil {
		return 0
	}
	port, _ := strconv.Atoi(u.Port())
	return port
}

func (wsts *WebSocketTestServer) GetMessages() []WebSocketMessage {
	wsts.mu.RLock()
	defer wsts.mu.RUnlock()
	return append([]WebSocketMessage(nil), wsts.messages...)
}

// AuthHeaders lists the Authorization header of each upgrade request.
func (wsts *WebSocketTestServer) AuthHeaders() []string {
	wsts.mu.RLock()
	defer wsts.mu.RUnlock()
	return append([]string(nil), wsts.auth...)
}
