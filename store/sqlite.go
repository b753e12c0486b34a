package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	period     TEXT NOT NULL,
	area       TEXT NOT NULL DEFAULT '',
	content    BLOB NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_period ON documents(period, kind);
`

// SQLiteStore keeps artifacts in a single SQLite table keyed by logical path.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens the database file and creates the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Read(ctx context.Context, addr Address) ([]byte, bool, error) {
	if err := addr.Validate(); err != nil {
		return nil, false, err
	}
	var content []byte
	err := s.db.GetContext(ctx, &content, `SELECT content FROM documents WHERE path = ?`, addr.Key())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", addr, err)
	}
	return content, true, nil
}

func (s *SQLiteStore) Write(ctx context.Context, addr Address, content []byte) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, kind, period, area, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content = excluded.content,
			updated_at = excluded.updated_at
	`, addr.Key(), string(addr.Kind), addr.Period(), string(addr.Area), content, now, now)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", addr, err)
	}
	return nil
}

// ListPeriod returns the logical paths stored for a period, for inspection tools.
func (s *SQLiteStore) ListPeriod(ctx context.Context, periodKey string) ([]string, error) {
	var paths []string
	err := s.db.SelectContext(ctx, &paths, `SELECT path FROM documents WHERE period = ? ORDER BY path`, periodKey)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", periodKey, err)
	}
	return paths, nil
}
