package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"github.com/arsal072-sys/protonsms072/internal/watermark"
	"github.com/arsal072-sys/protonsms072/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadWatermark reads the snapshot for a feed, nil when absent.
func (s *SQLite) LoadWatermark(ctx context.Context, feed string) (*watermark.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT strategy, high_water, last_identity FROM watermarks WHERE feed = ?`, feed,
	)

	var snap watermark.Snapshot
	var strategy string
	var highWater, lastKey sql.NullString
	err := row.Scan(&strategy, &highWater, &lastKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan watermark: %w", err)
	}
	snap.Strategy = watermark.Strategy(strategy)
	if highWater.Valid {
		t, err := time.Parse(timeLayout, highWater.String)
		if err != nil {
			return nil, fmt.Errorf("parse high water: %w", err)
		}
		snap.HighWater = t
	}
	if lastKey.Valid {
		snap.LastKey = lastKey.String
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT identity FROM recent_identities WHERE feed = ? ORDER BY position`, feed,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent identities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		snap.Recent = append(snap.Recent, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read recent identities: %w", err)
	}
	return &snap, nil
}

// SaveWatermark replaces the feed's snapshot in one transaction, so a
// crash mid-save never leaves half-written state.
func (s *SQLite) SaveWatermark(ctx context.Context, feed string, snap watermark.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var highWater, lastKey *string
	if !snap.HighWater.IsZero() {
		v := snap.HighWater.UTC().Format(timeLayout)
		highWater = &v
	}
	if snap.LastKey != "" {
		lastKey = &snap.LastKey
	}
	now := time.Now().UTC().Format(timeLayout)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO watermarks (feed, strategy, high_water, last_identity, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(feed) DO UPDATE SET
		   strategy = excluded.strategy,
		   high_water = excluded.high_water,
		   last_identity = excluded.last_identity,
		   updated_at = excluded.updated_at`,
		feed, string(snap.Strategy), highWater, lastKey, now,
	); err != nil {
		return fmt.Errorf("upsert watermark: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recent_identities WHERE feed = ?`, feed,
	); err != nil {
		return fmt.Errorf("clear recent identities: %w", err)
	}
	for pos, key := range snap.Recent {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recent_identities (feed, position, identity) VALUES (?, ?, ?)`,
			feed, pos, key,
		); err != nil {
			return fmt.Errorf("insert identity: %w", err)
		}
	}
	return tx.Commit()
}
