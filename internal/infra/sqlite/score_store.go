// Package sqlite keeps cumulative scores in a single-file SQLite database for
// deployments without Postgres or Redis.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"trivia-bot/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS scores (
	user_id TEXT PRIMARY KEY,
	score INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);`

// ScoreStore is a SQLite-backed score store. Writes go through one connection, and each
// operation is a single upsert statement.
type ScoreStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*ScoreStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if path == ":memory:" {
		dsn = path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &ScoreStore{db: db, now: time.Now}, nil
}

// Migrate creates the scores table.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: create scores table: %w", err)
	}
	return nil
}

func (s *ScoreStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *ScoreStore) GetOrCreate(ctx context.Context, userID string) (domain.ScoreRecord, error) {
	var (
		score   int
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO scores (user_id, score, updated_at) VALUES (?, 0, ?)
		 ON CONFLICT (user_id) DO UPDATE SET user_id = excluded.user_id
		 RETURNING score, updated_at`,
		userID, toMillis(s.now()),
	).Scan(&score, &updated)
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("get score %s: %w", userID, err)
	}
	return domain.ScoreRecord{UserID: userID, Score: score, UpdatedAt: fromMillis(updated)}, nil
}

func (s *ScoreStore) Increment(ctx context.Context, userID string, delta int) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO scores (user_id, score, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET score = scores.score + excluded.score, updated_at = excluded.updated_at
		 RETURNING score`,
		userID, delta, toMillis(s.now()),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("increment score %s: %w", userID, err)
	}
	return total, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
