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

package database

import (
	"database/sql"
	"errors"
	"time"
)

/*
 * Interfaces live here so consumers can depend on them without importing
 * the SQLite implementation in userdb.
 */

// Database is a portable interface for ENV bindings
type Database struct {
	UserDB UserDBI
}

var ErrRecordNotFound = errors.New("record not found")

// Category splits a user's history into codes they made and codes they
// scanned.
type Category string

const (
	CategoryCreated Category = "created"
	CategoryScanned Category = "scanned"
)

// ParseCategory returns the category named s and false if s is not one.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryCreated:
		return CategoryCreated, true
	case CategoryScanned:
		return CategoryScanned, true
	default:
		return "", false
	}
}

/*
 * Structs for SQL records
 */

type CodeRecord struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Type      string    `json:"type"`
	Data      string    `json:"data"`
	Preview   string    `json:"preview"`
	Category  Category  `json:"category"`
}

type ScanEvent struct {
	Time   time.Time `json:"time"`
	CodeID string    `json:"codeId"`
	DBID   int64     `json:"id"`
}

// EventName names scan events in broker drop logs.
func (ScanEvent) EventName() string {
	return "codes.scanned"
}

type DailyCount struct {
	Day   string `json:"day"`
	Scans int    `json:"scans"`
}

/*
 * Interfaces for external deps
 */

type GenericDBI interface {
	GetDBPath() string
	Open() error
	UnsafeGetSQLDb() *sql.DB
	Truncate() error
	Allocate() error
	MigrateUp() error
	Vacuum() error
	Close() error
}

// CodeStore is the persistence contract for created codes and their scan
// events.
type CodeStore interface {
	Create(record *CodeRecord) error
	Read(id string) (CodeRecord, error)
	Delete(id string) error
	ListByCategory(owner string, category Category, search string) ([]CodeRecord, error)
	AppendScanEvent(id string, t time.Time) error
	ListScanEvents(id string) ([]ScanEvent, error)
}

// ScanSubscriber delivers scan events as they are appended. Slow
// subscribers miss events rather than blocking writers.
type ScanSubscriber interface {
	Subscribe(bufferSize int) (<-chan ScanEvent, int)
	Unsubscribe(id int)
}

type UserDBI interface {
	GenericDBI
	CodeStore
	ScanSubscriber
	ScanCountsByDay(id string) ([]DailyCount, error)
	CountCreatedSince(owner string, category Category, since time.Time) (int, error)
	CleanupScanEvents(retentionDays int) (int64, error)
}
