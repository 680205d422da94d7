// Package sqlite stores documents in a single SQLite table keyed by path.
// A transaction maps onto a database transaction, so reads and writes made
// through a Tx are atomic together.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"eventbudget/internal/storage"

	_ "modernc.org/sqlite"
)

const (
	getQuery    = `SELECT data FROM documents WHERE path = ?`
	listQuery   = `SELECT path, data FROM documents WHERE parent = ? ORDER BY path`
	deleteQuery = `DELETE FROM documents WHERE path = ?`
	upsertQuery = `INSERT INTO documents (path, parent, data, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET parent = excluded.parent, data = excluded.data, updated_at = excluded.updated_at`
)

type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens (creating if needed) the database at dbPath and migrates it.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := Migrate(dbPath)
	if err != nil {
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection serializes transactions; SQLite has a single writer anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite document store ready", "path", dbPath, "schema_version", version)
	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	return get(ctx, s.db, path)
}

func (s *Store) List(ctx context.Context, collection string) ([]storage.Document, error) {
	return list(ctx, s.db, collection)
}

func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(ctx, &tx{q: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type tx struct {
	q querier
}

func (t *tx) Get(ctx context.Context, path string) ([]byte, error) {
	return get(ctx, t.q, path)
}

func (t *tx) List(ctx context.Context, collection string) ([]storage.Document, error) {
	return list(ctx, t.q, collection)
}

func (t *tx) Set(ctx context.Context, path string, data []byte) error {
	_, err := t.q.ExecContext(ctx, upsertQuery, path, storage.Parent(path), string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", path, err)
	}
	return nil
}

func (t *tx) Delete(ctx context.Context, path string) error {
	if _, err := t.q.ExecContext(ctx, deleteQuery, path); err != nil {
		return fmt.Errorf("delete document %s: %w", path, err)
	}
	return nil
}

func get(ctx context.Context, q querier, path string) ([]byte, error) {
	var data string
	err := q.QueryRowContext(ctx, getQuery, path).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", path, err)
	}
	return []byte(data), nil
}

func list(ctx context.Context, q querier, collection string) ([]storage.Document, error) {
	rows, err := q.QueryContext(ctx, listQuery, collection)
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", collection, err)
	}
	defer rows.Close()

	var out []storage.Document
	for rows.Next() {
		var path, data string
		if err := rows.Scan(&path, &data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, storage.Document{Path: path, Data: []byte(data)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents %s: %w", collection, err)
	}
	return out, nil
}
