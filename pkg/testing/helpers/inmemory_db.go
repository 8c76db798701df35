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
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"
	"github.com/qrstudio/qrstudio-core/pkg/database"
	"github.com/qrstudio/qrstudio-core/pkg/database/userdb"
)

// NewInMemoryUserDB opens a migrated history database in a temp dir. The
// database is closed when the test ends.
func NewInMemoryUserDB(t *testing.T, clock clockwork.Clock) *userdb.UserDB {
	t.Helper()

	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	// a file rather than :memory: so every pooled connection sees one schema
	dbPath := filepath.Join(t.TempDir(), "userdb_test.db")
	sqlDB, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	db := &userdb.UserDB{}
	err = db.SetSQLForTesting(context.Background(), sqlDB, clock)
	if err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			t.Errorf("Failed to close SQL database after setup error: %v", closeErr)
		}
		t.Fatalf("Failed to set up UserDB for testing: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close UserDB: %v", err)
		}
	})

	return db
}

// NewTestDatabase wraps NewInMemoryUserDB in a Database.
func NewTestDatabase(t *testing.T, clock clockwork.Clock) *database.Database {
	t.Helper()
	return &database.Database{UserDB: NewInMemoryUserDB(t, clock)}
}
