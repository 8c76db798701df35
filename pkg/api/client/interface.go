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
	"context"
	"fmt"
	"time"
)

// APIClient abstracts API communication for testability.
type APIClient interface {
	// Call executes a JSON-RPC method and returns the result.
	Call(ctx context.Context, method, params string) (string, error)

	// WaitNotification blocks until a notification of the given type is received.
	WaitNotification(ctx context.Context, timeout time.Duration, notificationType string) (string, error)
}

// EndpointClient implements APIClient over a websocket to one endpoint.
type EndpointClient struct {
	endpoint Endpoint
}

func NewEndpointClient(e Endpoint) *EndpointClient {
	return &EndpointClient{endpoint: e}
}

func (c *EndpointClient) Call(ctx context.Context, method, params string) (string, error) {
	resp, err := Call(ctx, c.endpoint, method, params)
	if err != nil {
		return "", fmt.Errorf("api call failed: %w", err)
	}
	return resp, nil
}

func (c *EndpointClient) WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	notificationType string,
) (string, error) {
	resp, err := WaitNotification(ctx, timeout, c.endpoint, notificationType)
	if err != nil {
		return "", fmt.Errorf("wait notification failed: %w", err)
	}
	return resp, nil
}
