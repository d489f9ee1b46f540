package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// PostgresKVRepository stores slots as rows of the kv_slots table.
type PostgresKVRepository struct {
	db *sqlx.DB
}

// NewPostgresKVRepository creates a new repository instance.
func NewPostgresKVRepository(db *sqlx.DB) *PostgresKVRepository {
	return &PostgresKVRepository{db: db}
}

// Get returns the stored value for key.
func (r *PostgresKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM kv_slots WHERE key = $1`
	var value string
	if err := r.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrKeyNotFound
		}
		return nil, fmt.Errorf("get kv slot %s: %w", key, err)
	}
	return []byte(value), nil
}

// Put upserts the value for key.
func (r *PostgresKVRepository) Put(ctx context.Context, key string, value []byte) error {
	const query = `INSERT INTO kv_slots (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("put kv slot %s: %w", key, err)
	}
	return nil
}

// Delete removes the row for key.
func (r *PostgresKVRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_slots WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete kv slot %s: %w", key, err)
	}
	return nil
}

// Close closes the connection pool.
func (r *PostgresKVRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
