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
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/qrstudio/qrstudio-core/pkg/database"
	"github.com/rs/zerolog/log"
)

// Queries go here to keep the interface clean

//go:embed migrations/*.sql
var migrationFiles embed.FS

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run user database migrations: %w", err)
	}
	return nil
}

func sqlAllocate(db *sql.DB) error {
	return sqlMigrateUp(db)
}

//goland:noinspection SqlWithoutWhere
func sqlTruncate(ctx context.Context, db *sql.DB) error {
	sqlStmt := `
	delete from ScanEvents;
	delete from Codes;
	vacuum;
	`
	_, err := db.ExecContext(ctx, sqlStmt)
	if err != nil {
		return fmt.Errorf("failed to truncate database: %w", err)
	}
	return nil
}

func sqlVacuum(ctx context.Context, db *sql.DB) error {
	sqlStmt := `
	vacuum;
	`
	_, err := db.ExecContext(ctx, sqlStmt)
	if err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

func closeStmt(stmt *sql.Stmt) {
	if closeErr := stmt.Close(); closeErr != nil {
		log.Warn().Err(closeErr).Msg("failed to close sql statement")
	}
}

func closeRows(rows *sql.Rows) {
	if closeErr := rows.Close(); closeErr != nil {
		log.Warn().Err(closeErr).Msg("failed to close sql rows")
	}
}

//nolint:gocritic // struct passed for DB insertion
func sqlCreateCode(ctx context.Context, db *sql.DB, r database.CodeRecord) error {
	stmt, err := db.PrepareContext(ctx, `
		insert into Codes(
			ID, OwnerID, Type, Data, Preview, Category, CreatedAt
		) values (?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare code insert statement: %w", err)
	}
	defer closeStmt(stmt)

	_, err = stmt.ExecContext(ctx,
		r.ID,
		r.OwnerID,
		r.Type,
		r.Data,
		r.Preview,
		string(r.Category),
		r.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to execute code insert: %w", err)
	}
	return nil
}

func sqlReadCode(ctx context.Context, db *sql.DB, id string) (database.CodeRecord, error) {
	var r database.CodeRecord
	var category string
	var createdAt int64
	err := db.QueryRowContext(ctx, `
		select ID, OwnerID, Type, Data, Preview, Category, CreatedAt
		from Codes
		where ID = ?;
	`, id).Scan(
		&r.ID,
		&r.OwnerID,
		&r.Type,
		&r.Data,
		&r.Preview,
		&category,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("code %q: %w", id, database.ErrRecordNotFound)
	} else if err != nil {
		return r, fmt.Errorf("failed to query code: %w", err)
	}
	r.Category = database.Category(category)
	r.CreatedAt = time.Unix(createdAt, 0)
	return r, nil
}

// sqlDeleteCode removes a code and its scan events together so no event
// outlives its code even when foreign keys are not enforced.
func sqlDeleteCode(ctx context.Context, db *sql.DB, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warn().Err(rbErr).Msg("failed to rollback delete transaction")
		}
	}()

	if _, err = tx.ExecContext(ctx, `delete from ScanEvents where CodeID = ?;`, id); err != nil {
		return fmt.Errorf("failed to delete scan events: %w", err)
	}

	res, err := tx.ExecContext(ctx, `delete from Codes where ID = ?;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("code %q: %w", id, database.ErrRecordNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete transaction: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func sqlListByCategory(
	ctx context.Context,
	db *sql.DB,
	owner string,
	category database.Category,
	search string,
) ([]database.CodeRecord, error) {
	list := make([]database.CodeRecord, 0, 25)
	search = strings.TrimSpace(search)

	q, err := db.PrepareContext(ctx, `
		select ID, OwnerID, Type, Data, Preview, Category, CreatedAt
		from Codes
		where OwnerID = ?
		and Category = ?
		and (? = '' or Preview like '%' || ? || '%' escape '\')
		order by CreatedAt desc, ID;
	`)
	if err != nil {
		return list, fmt.Errorf("failed to prepare code list statement: %w", err)
	}
	defer closeStmt(q)

	pattern := likeEscaper.Replace(search)
	rows, err := q.QueryContext(ctx, owner, string(category), search, pattern)
	if err != nil {
		return list, fmt.Errorf("failed to query codes: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		row := database.CodeRecord{}
		var cat string
		var createdAt int64
		scanErr := rows.Scan(
			&row.ID,
			&row.OwnerID,
			&row.Type,
			&row.Data,
			&row.Preview,
			&cat,
			&createdAt,
		)
		if scanErr != nil {
			return list, fmt.Errorf("failed to scan code row: %w", scanErr)
		}
		row.Category = database.Category(cat)
		row.CreatedAt = time.Unix(createdAt, 0)
		list = append(list, row)
	}
	if err = rows.Err(); err != nil {
		return list, fmt.Errorf("error iterating code rows: %w", err)
	}
	return list, nil
}

func sqlAppendScanEvent(ctx context.Context, db *sql.DB, id string, t time.Time) (int64, error) {
	stmt, err := db.PrepareContext(ctx, `
		insert into ScanEvents(CodeID, Time) values (?, ?);
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare scan event insert statement: %w", err)
	}
	defer closeStmt(stmt)

	res, err := stmt.ExecContext(ctx, id, t.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to execute scan event insert: %w", err)
	}
	dbid, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get scan event id: %w", err)
	}
	return dbid, nil
}

func sqlListScanEvents(ctx context.Context, db *sql.DB, id string) ([]database.ScanEvent, error) {
	list := make([]database.ScanEvent, 0)

	rows, err := db.QueryContext(ctx, `
		select DBID, CodeID, Time
		from ScanEvents
		where CodeID = ?
		order by Time, DBID;
	`, id)
	if err != nil {
		return list, fmt.Errorf("failed to query scan events: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var ev database.ScanEvent
		var t int64
		if err := rows.Scan(&ev.DBID, &ev.CodeID, &t); err != nil {
			return list, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.Time = time.Unix(t, 0)
		list = append(list, ev)
	}
	if err = rows.Err(); err != nil {
		return list, fmt.Errorf("error iterating scan event rows: %w", err)
	}
	return list, nil
}

// Days are UTC calendar dates.
func sqlScanCountsByDay(ctx context.Context, db *sql.DB, id string) ([]database.DailyCount, error) {
	list := make([]database.DailyCount, 0)

	rows, err := db.QueryContext(ctx, `
		select strftime('%Y-%m-%d', Time, 'unixepoch') as Day, count(*)
		from ScanEvents
		where CodeID = ?
		group by Day
		order by Day;
	`, id)
	if err != nil {
		return list, fmt.Errorf("failed to query daily scan counts: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var dc database.DailyCount
		if err := rows.Scan(&dc.Day, &dc.Scans); err != nil {
			return list, fmt.Errorf("failed to scan daily count row: %w", err)
		}
		list = append(list, dc)
	}
	if err = rows.Err(); err != nil {
		return list, fmt.Errorf("error iterating daily count rows: %w", err)
	}
	return list, nil
}

func sqlCountCreatedSince(
	ctx context.Context,
	db *sql.DB,
	owner string,
	category database.Category,
	since time.Time,
) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		select count(*)
		from Codes
		where OwnerID = ? and Category = ? and CreatedAt >= ?;
	`, owner, string(category), since.Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count codes: %w", err)
	}
	return count, nil
}

func sqlCleanupScanEvents(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	stmt, err := db.PrepareContext(ctx, `delete from ScanEvents where Time < ?;`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare scan event cleanup statement: %w", err)
	}
	defer closeStmt(stmt)

	result, err := stmt.ExecContext(ctx, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to execute scan event cleanup: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	// Vacuum to reclaim disk space after cleanup
	if rowsAffected > 0 {
		if err := sqlVacuum(ctx, db); err != nil {
			return rowsAffected, fmt.Errorf("cleanup succeeded but vacuum failed: %w", err)
		}
	}

	return rowsAffected, nil
}
