// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package interactions

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/tomtom215/cadence/internal/catalog"
)

var sqlLogSchema = map[string][]string{
	catalog.DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS interaction_events (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			playlist_id TEXT NOT NULL,
			track_id    TEXT NOT NULL
		)`,
	},
	catalog.DriverDuckDB: {
		`CREATE SEQUENCE IF NOT EXISTS interaction_events_seq START 1`,
		`CREATE TABLE IF NOT EXISTS interaction_events (
			seq         BIGINT PRIMARY KEY DEFAULT nextval('interaction_events_seq'),
			playlist_id TEXT NOT NULL,
			track_id    TEXT NOT NULL
		)`,
	},
}

// SQLLog is an EventLog stored in an interaction_events table. It can
// share the catalog database.
type SQLLog struct {
	db     *sqlx.DB
	driver string
	owned  bool
}

// OpenSQLLog opens its own connection and creates the table.
func OpenSQLLog(ctx context.Context, driver, dsn string) (*SQLLog, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s event log: %w", driver, err)
	}
	if driver == catalog.DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	l, err := NewSQLLog(ctx, db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	l.owned = true
	return l, nil
}

// NewSQLLog uses an existing connection and creates the table.
func NewSQLLog(ctx context.Context, db *sqlx.DB, driver string) (*SQLLog, error) {
	stmts, ok := sqlLogSchema[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported event log driver %q", driver)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create event log schema: %w", err)
		}
	}
	return &SQLLog{db: db, driver: driver}, nil
}

// Append implements EventLog. All events are inserted in one transaction.
func (l *SQLLog) Append(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	norm, err := normalizeAll(events)
	if err != nil {
		return err
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO interaction_events (playlist_id, track_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range norm {
		if _, err := stmt.ExecContext(ctx, e.UserID, e.TrackID); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// ReadAll implements EventLog.
func (l *SQLLog) ReadAll(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := l.db.SelectContext(ctx, &events, `SELECT playlist_id, track_id FROM interaction_events ORDER BY seq`); err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	return events, nil
}

// Len implements EventLog.
func (l *SQLLog) Len(ctx context.Context) (int, error) {
	var n int
	if err := l.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM interaction_events`); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Close implements EventLog. A shared connection is left open.
func (l *SQLLog) Close() error {
	if l.owned {
		return l.db.Close()
	}
	return nil
}
