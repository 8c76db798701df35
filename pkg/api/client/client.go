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

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/rs/zerolog/log"
)

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrInvalidParams    = errors.New("invalid params")
	ErrRequestCancelled = errors.New("request cancelled")
)

// RPCError is an error object returned by the service.
type RPCError struct {
	Message string
	Code    int
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

const (
	APIPath = "/api"
	// APIKeyEnv names the environment variable holding the key sent with
	// local requests.
	APIKeyEnv = "QRSTUDIO_API_KEY"
)

// Endpoint is a running service to talk to.
type Endpoint struct {
	Host string
	Key  string
	Port int
}

// LocalEndpoint points at the service on this machine using the configured
// port, with the key from APIKeyEnv.
func LocalEndpoint(cfg *config.Instance) Endpoint {
	e := Endpoint{
		Host: "localhost",
		Port: cfg.APIPort(),
		Key:  os.Getenv(APIKeyEnv),
	}
	host, port, err := net.SplitHostPort(cfg.APIListen())
	if err != nil {
		return e
	}
	if ip := net.ParseIP(host); host != "" && (ip == nil || !ip.IsUnspecified()) {
		e.Host = host
	}
	if p, err := strconv.Atoi(port); err == nil && p > 0 {
		e.Port = p
	}
	return e
}

func (e Endpoint) url() string {
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(e.Host, strconv.Itoa(e.Port)),
		Path:   APIPath,
	}
	return u.String()
}

func dial(ctx context.Context, e Endpoint) (*websocket.Conn, error) {
	header := http.Header{}
	if e.Key != "" {
		header.Set("Authorization", "Bearer "+e.Key)
	}
	c, resp, err := websocket.DefaultDialer.DialContext(ctx, e.url(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", e.url(), err)
	}
	return c, nil
}

func closeConn(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		log.Debug().Err(err).Msg("error closing websocket")
	}
}

// await waits for read to finish, closing c on timeout or cancellation so
// the reader returns.
func await(ctx context.Context, c *websocket.Conn, timeout time.Duration, done <-chan struct{}) error {
	var timerChan <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerChan = timer.C
	}
	select {
	case <-done:
		return nil
	case <-timerChan:
		closeConn(c)
		<-done
		return ErrRequestTimeout
	case <-ctx.Done():
		closeConn(c)
		<-done
		return ErrRequestCancelled
	}
}

// Call sends one method with params to e and returns the raw JSON result.
func Call(ctx context.Context, e Endpoint, method, params string) (string, error) {
	id := models.NewStringID(uuid.NewString())
	req := models.RequestObject{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
	}
	if params != "" {
		if !json.Valid([]byte(params)) {
			return "", ErrInvalidParams
		}
		req.Params = json.RawMessage(params)
	}

	c, err := dial(ctx, e)
	if err != nil {
		return "", err
	}
	defer closeConn(c)

	done := make(chan struct{})
	var resp *models.ResponseObject
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("websocket read ended")
				return
			}
			var m models.ResponseObject
			if err := json.Unmarshal(message, &m); err != nil {
				continue
			}
			if m.JSONRPC != "2.0" {
				log.Warn().Msg("invalid jsonrpc version")
				continue
			}
			if !bytes.Equal(m.ID.RawMessage, id.RawMessage) {
				continue
			}
			resp = &m
			return
		}
	}()

	if err := c.WriteJSON(req); err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	if err := await(ctx, c, config.APIRequestTimeout, done); err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrRequestTimeout
	}
	if resp.Error != nil {
		return "", &RPCError{Code: resp.Error.Code, Message: resp.Error.Message}
	}

	b, err := json.Marshal(resp.Result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(b), nil
}

// LocalClient sends a single method to the service on this machine.
func LocalClient(ctx context.Context, cfg *config.Instance, method, params string) (string, error) {
	return Call(ctx, LocalEndpoint(cfg), method, params)
}

// WaitNotification blocks until a notification called method arrives and
// returns its params. A zero timeout uses the API request timeout and a
// negative one waits until ctx is done.
func WaitNotification(ctx context.Context, timeout time.Duration, e Endpoint, method string) (string, error) {
	c, err := dial(ctx, e)
	if err != nil {
		return "", err
	}
	defer closeConn(c)

	done := make(chan struct{})
	var notif *models.RequestObject
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("websocket read ended")
				return
			}
			var m models.RequestObject
			if err := json.Unmarshal(message, &m); err != nil {
				continue
			}
			if m.JSONRPC != "2.0" || m.ID != nil || m.Method != method {
				continue
			}
			notif = &m
			return
		}
	}()

	if timeout == 0 {
		timeout = config.APIRequestTimeout
	}
	if err := await(ctx, c, timeout, done); err != nil {
		return "", err
	}
	if notif == nil {
		return "", ErrRequestTimeout
	}
	return string(notif.Params), nil
}

// IsServiceRunning reports whether the local service answers a version
// request.
func IsServiceRunning(cfg *config.Instance) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := LocalClient(ctx, cfg, models.MethodVersion, "")
	return err == nil
}

// WaitForAPI polls the local service every interval until it answers or
// timeout passes.
func WaitForAPI(cfg *config.Instance, timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if IsServiceRunning(cfg) {
			return true
		}
		if time.Now().Add(interval).After(deadline) {
			return false
		}
		time.Sleep(interval)
	}
}
