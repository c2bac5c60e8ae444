package sqliterepository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"workOrders/internal/repository"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type SqliteRepository struct {
	db *sql.DB
}

// NewSqliteRepository opens (or creates) the database file at path and makes
// sure the cache table exists.
func NewSqliteRepository(path string) (*SqliteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite database %s", path)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating cache schema")
	}
	return &SqliteRepository{db: db}, nil
}

var _ repository.ReadWriteRepository = (*SqliteRepository)(nil)

func (s *SqliteRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM cache_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.NewErrorNotFound(fmt.Sprintf("Key %s not found", key))
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading key %s", key)
	}
	return value, nil
}

func (s *SqliteRepository) Set(ctx context.Context, key string, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	return errors.Wrapf(err, "writing key %s", key)
}

func (s *SqliteRepository) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
	return errors.Wrapf(err, "deleting key %s", key)
}

func (s *SqliteRepository) Close() error {
	return s.db.Close()
}
