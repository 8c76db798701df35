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

package userdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"
	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/qrstudio/qrstudio-core/pkg/database"
	"github.com/qrstudio/qrstudio-core/pkg/helpers/syncutil"
	"github.com/qrstudio/qrstudio-core/pkg/service/broker"
	"github.com/rs/zerolog/log"
)

var ErrNullSQL = errors.New("UserDB is not connected")

const (
	sqliteConnParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000&_foreign_keys=on"
	scanEventBuffer  = 64
)

type UserDB struct {
	sql    *sql.DB
	ctx    context.Context
	clock  clockwork.Clock
	events chan database.ScanEvent
	broker *broker.Broker[database.ScanEvent]
	path   string
	mu     syncutil.RWMutex
	closed bool
}

// OpenUserDB opens (creating and migrating if needed) the history database
// in dataDir.
func OpenUserDB(ctx context.Context, dataDir string) (*UserDB, error) {
	db := &UserDB{
		ctx:   ctx,
		clock: clockwork.NewRealClock(),
		path:  filepath.Join(dataDir, config.UserDbFile),
	}
	if err := db.Open(); err != nil {
		return db, err
	}
	db.startEvents()
	return db, nil
}

func (db *UserDB) startEvents() {
	db.events = make(chan database.ScanEvent, scanEventBuffer)
	db.broker = broker.NewBroker(db.ctx, "scan-events", db.events)
	db.broker.Start()
}

func (db *UserDB) Open() error {
	exists := true
	dbPath := db.GetDBPath()
	_, err := os.Stat(dbPath)
	if err != nil {
		exists = false
		mkdirErr := os.MkdirAll(filepath.Dir(dbPath), 0o750)
		if mkdirErr != nil {
			return fmt.Errorf("failed to create directory for database: %w", mkdirErr)
		}
	}
	sqlInstance, err := sql.Open("sqlite3", dbPath+sqliteConnParams)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.sql = sqlInstance
	if !exists {
		return db.Allocate()
	}
	return db.MigrateUp()
}

func (db *UserDB) GetDBPath() string {
	return db.path
}

func (db *UserDB) UnsafeGetSQLDb() *sql.DB {
	return db.sql
}

func (db *UserDB) Truncate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return storeErr("truncate", sqlTruncate(db.ctx, db.sql))
}

func (db *UserDB) Allocate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlAllocate(db.sql)
}

func (db *UserDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *UserDB) Vacuum() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return storeErr("vacuum", sqlVacuum(db.ctx, db.sql))
}

// Close stops scan event delivery, closing all subscriber channels, and
// closes the database.
func (db *UserDB) Close() error {
	db.mu.Lock()
	if !db.closed && db.events != nil {
		close(db.events)
		<-db.broker.Done()
	}
	db.closed = true
	db.mu.Unlock()

	if db.sql == nil {
		return nil
	}
	err := db.sql.Close()
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SetSQLForTesting allows injection of a sql.DB instance for testing purposes.
// This method should only be used in tests to set up in-memory databases.
func (db *UserDB) SetSQLForTesting(ctx context.Context, sqlDB *sql.DB, clock clockwork.Clock) error {
	db.sql = sqlDB
	db.ctx = ctx
	db.clock = clock
	db.startEvents()

	return db.Allocate()
}

// storeErr marks failures as external IO while keeping not-found
// distinguishable.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, database.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return codec.IOError(op, err)
}

// Create stores a new code. An empty ID is filled with a random UUID and a
// zero CreatedAt with the current time.
func (db *UserDB) Create(record *database.CodeRecord) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = db.clock.Now()
	}
	return storeErr("create code", sqlCreateCode(db.ctx, db.sql, *record))
}

func (db *UserDB) Read(id string) (database.CodeRecord, error) {
	if db.sql == nil {
		return database.CodeRecord{}, ErrNullSQL
	}
	r, err := sqlReadCode(db.ctx, db.sql, id)
	return r, storeErr("read code", err)
}

func (db *UserDB) Delete(id string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return storeErr("delete code", sqlDeleteCode(db.ctx, db.sql, id))
}

func (db *UserDB) ListByCategory(
	owner string,
	category database.Category,
	search string,
) ([]database.CodeRecord, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	list, err := sqlListByCategory(db.ctx, db.sql, owner, category, search)
	return list, storeErr("list codes", err)
}

// AppendScanEvent records a scan of code id at t and publishes it to
// subscribers.
func (db *UserDB) AppendScanEvent(id string, t time.Time) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	dbid, err := sqlAppendScanEvent(db.ctx, db.sql, id, t)
	if err != nil {
		return storeErr("append scan event", err)
	}
	db.publish(database.ScanEvent{DBID: dbid, CodeID: id, Time: t})
	return nil
}

func (db *UserDB) publish(ev database.ScanEvent) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed || db.events == nil {
		return
	}
	select {
	case db.events <- ev:
	default:
		log.Warn().Str("code", ev.CodeID).Msg("scan event queue full, dropping event")
	}
}

func (db *UserDB) ListScanEvents(id string) ([]database.ScanEvent, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	list, err := sqlListScanEvents(db.ctx, db.sql, id)
	return list, storeErr("list scan events", err)
}

func (db *UserDB) ScanCountsByDay(id string) ([]database.DailyCount, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	list, err := sqlScanCountsByDay(db.ctx, db.sql, id)
	return list, storeErr("count scans", err)
}

func (db *UserDB) CountCreatedSince(owner string, category database.Category, since time.Time) (int, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	n, err := sqlCountCreatedSince(db.ctx, db.sql, owner, category, since)
	return n, storeErr("count codes", err)
}

// CleanupScanEvents deletes scan events older than retentionDays and
// returns how many were removed.
func (db *UserDB) CleanupScanEvents(retentionDays int) (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	cutoff := db.clock.Now().AddDate(0, 0, -retentionDays)
	n, err := sqlCleanupScanEvents(db.ctx, db.sql, cutoff)
	return n, storeErr("cleanup scan events", err)
}

// Subscribe returns a channel of scan events appended after the call and
// an id for Unsubscribe. After Close the channel is already closed.
func (db *UserDB) Subscribe(bufferSize int) (<-chan database.ScanEvent, int) {
	if db.broker == nil {
		ch := make(chan database.ScanEvent)
		close(ch)
		return ch, -1
	}
	return db.broker.Subscribe(bufferSize)
}

func (db *UserDB) Unsubscribe(id int) {
	if db.broker == nil {
		return
	}
	db.broker.Unsubscribe(id)
}
