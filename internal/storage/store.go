// Package storage is the durable operation log behind the broadcast router.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/dkeye/Canvas/internal/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

type dialect struct {
	schema []string
	insert string
	recent string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		schema: []string{
			`PRAGMA journal_mode=WAL`,
			`CREATE TABLE IF NOT EXISTS operations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				room_id TEXT NOT NULL,
				author_id TEXT NOT NULL,
				payload TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_operations_room_id ON operations(room_id, id DESC)`,
		},
		insert: `INSERT INTO operations (room_id, author_id, payload) VALUES (?, ?, ?) RETURNING id`,
		recent: `SELECT id, room_id, author_id, payload, created_at FROM operations
			WHERE room_id = ? ORDER BY id DESC LIMIT ?`,
	},
	DriverPostgres: {
		schema: []string{
			`CREATE TABLE IF NOT EXISTS operations (
				id BIGSERIAL PRIMARY KEY,
				room_id TEXT NOT NULL,
				author_id TEXT NOT NULL,
				payload TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_operations_room_id ON operations(room_id, id DESC)`,
		},
		insert: `INSERT INTO operations (room_id, author_id, payload) VALUES ($1, $2, $3) RETURNING id`,
		recent: `SELECT id, room_id, author_id, payload, created_at FROM operations
			WHERE room_id = $1 ORDER BY id DESC LIMIT $2`,
	},
}

// Store is an append-only operation log. The autoincrement id is the
// sequence marker: it never decreases within a database.
type Store struct {
	db      *sql.DB
	queries dialect
}

// Open connects to driver/dsn and creates the schema when missing.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	q, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// One writer keeps the sqlite file lock out of the request path.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	for _, stmt := range q.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	log.Info().Str("module", "storage").Str("driver", driver).Msg("operation store ready")
	return &Store{db: db, queries: q}, nil
}

func (s *Store) Append(ctx context.Context, room domain.RoomID, author domain.UserID, payload string) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, s.queries.insert, string(room), string(author), payload).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) Recent(ctx context.Context, room domain.RoomID, limit int) ([]domain.Operation, error) {
	rows, err := s.db.QueryContext(ctx, s.queries.recent, string(room), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ops := make([]domain.Operation, 0, limit)
	for rows.Next() {
		var (
			op        domain.Operation
			createdAt time.Time
		)
		if err := rows.Scan(&op.ID, &op.RoomID, &op.AuthorID, &op.Payload, &createdAt); err != nil {
			return nil, err
		}
		op.CreatedAt = createdAt.UTC()
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
