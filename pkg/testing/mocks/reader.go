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

// Package mocks has testify mocks of the service's collaborators.
package mocks

import (
	"fmt"

	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/qrstudio/qrstudio-core/pkg/readers"
	"github.com/stretchr/testify/mock"
)

type MockReader struct {
	mock.Mock
}

func (m *MockReader) Metadata() readers.DriverMetadata {
	args := m.Called()
	if metadata, ok := args.Get(0).(readers.DriverMetadata); ok {
		return metadata
	}
	return readers.DriverMetadata{}
}

func (m *MockReader) IDs() []string {
	args := m.Called()
	if ids, ok := args.Get(0).([]string); ok {
		return ids
	}
	return []string{}
}

func (m *MockReader) Open(device config.ReadersConnect, out chan<- readers.Scan) error {
	if err := m.Called(device, out).Error(0); err != nil {
		return fmt.Errorf("mock operation failed: %w", err)
	}
	return nil
}

func (m *MockReader) Close() error {
	if err := m.Called().Error(0); err != nil {
		return fmt.Errorf("mock operation failed: %w", err)
	}
	return nil
}

func (m *MockReader) Device() string {
	return m.Called().String(0)
}

func (m *MockReader) Connected() bool {
	return m.Called().Bool(0)
}

func (m *MockReader) Info() string {
	return m.Called().String(0)
}

// NewMockReader returns a connected reader for device with the common
// calls already stubbed.
func NewMockReader(device string) *MockReader {
	r := &MockReader{}
	r.On("Metadata").Return(readers.DriverMetadata{ID: "mock"}).Maybe()
	r.On("IDs").Return([]string{"mock"}).Maybe()
	r.On("Device").Return(device).Maybe()
	r.On("Info").Return(device).Maybe()
	r.On("Connected").Return(true).Maybe()
	r.On("Close").Return(nil).Maybe()
	return r
}
