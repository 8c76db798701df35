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

// Package helpers provides testing utilities shared across packages.
//
// It includes a testify mock of the history store, a helper that opens a
// real migrated SQLite store in a temp dir, and small fixtures for the
// config and API layers.
//
// Example usage:
//
//	func TestCreate(t *testing.T) {
//		db := helpers.NewMockUserDBI()
//		db.On("Create", helpers.CodeRecordMatcher()).Return(nil)
//
//		err := MyFunction(db)
//
//		require.NoError(t, err)
//		db.AssertExpectations(t)
//	}
package helpers

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/qrstudio/qrstudio-core/pkg/database"
	"github.com/stretchr/testify/mock"
)

// MockUserDBI is a mock implementation of the UserDBI interface using testify/mock
type MockUserDBI struct {
	mock.Mock
}

// NewMockUserDBI creates a MockUserDBI with no expectations.
func NewMockUserDBI() *MockUserDBI {
	return &MockUserDBI{}
}

func mockErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("mock UserDBI %s failed: %w", op, err)
}

// GenericDBI methods
func (m *MockUserDBI) Open() error {
	return mockErr("open", m.Called().Error(0))
}

func (m *MockUserDBI) UnsafeGetSQLDb() *sql.DB {
	args := m.Called()
	if db, ok := args.Get(0).(*sql.DB); ok {
		return db
	}
	return nil
}

func (m *MockUserDBI) Truncate() error {
	return mockErr("truncate", m.Called().Error(0))
}

func (m *MockUserDBI) Allocate() error {
	return mockErr("allocate", m.Called().Error(0))
}

func (m *MockUserDBI) MigrateUp() error {
	return mockErr("migrate up", m.Called().Error(0))
}

func (m *MockUserDBI) Vacuum() error {
	return mockErr("vacuum", m.Called().Error(0))
}

func (m *MockUserDBI) Close() error {
	return mockErr("close", m.Called().Error(0))
}

func (m *MockUserDBI) GetDBPath() string {
	return m.Called().String(0)
}

// CodeStore methods
func (m *MockUserDBI) Create(record *database.CodeRecord) error {
	return mockErr("create", m.Called(record).Error(0))
}

func (m *MockUserDBI) Read(id string) (database.CodeRecord, error) {
	args := m.Called(id)
	r, _ := args.Get(0).(database.CodeRecord)
	return r, mockErr("read", args.Error(1))
}

func (m *MockUserDBI) Delete(id string) error {
	return mockErr("delete", m.Called(id).Error(0))
}

func (m *MockUserDBI) ListByCategory(
	owner string,
	category database.Category,
	search string,
) ([]database.CodeRecord, error) {
	args := m.Called(owner, category, search)
	list, _ := args.Get(0).([]database.CodeRecord)
	return list, mockErr("list by category", args.Error(1))
}

func (m *MockUserDBI) AppendScanEvent(id string, t time.Time) error {
	return mockErr("append scan event", m.Called(id, t).Error(0))
}

func (m *MockUserDBI) ListScanEvents(id string) ([]database.ScanEvent, error) {
	args := m.Called(id)
	list, _ := args.Get(0).([]database.ScanEvent)
	return list, mockErr("list scan events", args.Error(1))
}

func (m *MockUserDBI) ScanCountsByDay(id string) ([]database.DailyCount, error) {
	args := m.Called(id)
	list, _ := args.Get(0).([]database.DailyCount)
	return list, mockErr("scan counts by day", args.Error(1))
}

func (m *MockUserDBI) CountCreatedSince(owner string, category database.Category, since time.Time) (int, error) {
	args := m.Called(owner, category, since)
	return args.Int(0), mockErr("count created since", args.Error(1))
}

func (m *MockUserDBI) CleanupScanEvents(retentionDays int) (int64, error) {
	args := m.Called(retentionDays)
	n, _ := args.Get(0).(int64)
	return n, mockErr("cleanup scan events", args.Error(1))
}

// ScanSubscriber methods
func (m *MockUserDBI) Subscribe(bufferSize int) (<-chan database.ScanEvent, int) {
	args := m.Called(bufferSize)
	switch ch := args.Get(0).(type) {
	case chan database.ScanEvent:
		return ch, args.Int(1)
	case <-chan database.ScanEvent:
		return ch, args.Int(1)
	default:
		closed := make(chan database.ScanEvent)
		close(closed)
		return closed, args.Int(1)
	}
}

func (m *MockUserDBI) Unsubscribe(id int) {
	m.Called(id)
}

// Matcher functions for common database types

// CategoryRecordMatcher matches records of one category.
func CategoryRecordMatcher(category database.Category) any {
	return mock.MatchedBy(func(r *database.CodeRecord) bool {
		return r != nil && r.Category == category
	})
}
