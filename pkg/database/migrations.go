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
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/qrstudio/qrstudio-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

var migrationMutex syncutil.Mutex

// gooseLogger sends goose output to zerolog.
type gooseLogger struct{}

func (*gooseLogger) Printf(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (*gooseLogger) Fatalf(format string, v ...any) {
	log.Fatal().Msgf(format, v...)
}

// MigrateUp applies every pending migration in dir of files. goose keeps
// its filesystem and dialect in package globals, so runs are serialised.
func MigrateUp(db *sql.DB, files embed.FS, dir string) error {
	migrationMutex.Lock()
	defer migrationMutex.Unlock()

	goose.SetLogger(&gooseLogger{})
	goose.SetBaseFS(files)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	log.Debug().Str("dir", dir).Msg("applying database migrations")
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// SchemaVersion reports the latest applied migration version.
func SchemaVersion(db *sql.DB) (int64, error) {
	migrationMutex.Lock()
	defer migrationMutex.Unlock()

	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}
