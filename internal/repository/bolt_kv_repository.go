package repository

import (
	"context"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// BoltKVRepository stores slots as keys of a single bbolt bucket.
type BoltKVRepository struct {
	db     *bbolt.DB
	bucket []byte
}

// NewBoltKVRepository wraps an open bbolt handle. The bucket must already exist.
func NewBoltKVRepository(db *bbolt.DB, bucket string) *BoltKVRepository {
	return &BoltKVRepository{db: db, bucket: []byte(bucket)}
}

// Get reads the raw value for key.
func (r *BoltKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(r.bucket)
		if b == nil {
			return fmt.Errorf("bucket %s not found", r.bucket)
		}
		v := b.Get([]byte(key))
		if v == nil {
			return appErrors.ErrKeyNotFound
		}
		// bbolt values are only valid for the life of the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrKeyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("bolt get %s: %w", key, err)
	}
	return out, nil
}

// Put overwrites the value for key in one write transaction.
func (r *BoltKVRepository) Put(ctx context.Context, key string, value []byte) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(r.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("bolt put %s: %w", key, err)
	}
	return nil
}

// Delete removes key from the bucket.
func (r *BoltKVRepository) Delete(ctx context.Context, key string) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(r.bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bolt delete %s: %w", key, err)
	}
	return nil
}

// Close releases the bbolt file lock.
func (r *BoltKVRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
