package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/noah-isme/attendance-tracker/pkg/config"
)

// NewBolt opens (or creates) the local bbolt file and makes sure the bucket exists.
func NewBolt(cfg config.BoltConfig) (*bbolt.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("bolt path required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bolt bucket required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create bolt directory: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}

	db, err := bbolt.Open(cfg.Path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt file %s: %w", cfg.Path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cfg.Bucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bolt bucket %s: %w", cfg.Bucket, err)
	}

	return db, nil
}
