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

package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/stretchr/testify/mock"
)

// MockAPIClient is a mock implementation of client.APIClient for testing.
type MockAPIClient struct {
	mock.Mock
}

func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) Call(ctx context.Context, method, params string) (string, error) {
	args := m.Called(ctx, method, params)
	return args.String(0), args.Error(1)
}

func (m *MockAPIClient) WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	notificationType string,
) (string, error) {
	args := m.Called(ctx, timeout, notificationType)
	return args.String(0), args.Error(1)
}

// SetupResult makes method return result encoded as JSON, whatever the
// params.
func (m *MockAPIClient) SetupResult(method string, result any) {
	data, _ := json.Marshal(result)
	m.On("Call", mock.Anything, method, mock.Anything).Return(string(data), nil)
}

// SetupError makes method fail with err.
func (m *MockAPIClient) SetupError(method string, err error) {
	m.On("Call", mock.Anything, method, mock.Anything).Return("", err)
}

// SetupScannedNotification returns payload for the next codes.scanned wait.
func (m *MockAPIClient) SetupScannedNotification(payload models.CodeScannedParams) {
	data, _ := json.Marshal(payload)
	m.On("WaitNotification", mock.Anything, mock.Anything, models.NotificationCodesScanned).
		Return(string(data), nil)
}
