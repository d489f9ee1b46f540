package repository

import (
	"context"
	"sync"

	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// MemoryKVRepository keeps slots in process memory. Nothing survives a restart.
type MemoryKVRepository struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemoryKVRepository constructs an empty in-memory store.
func NewMemoryKVRepository() *MemoryKVRepository {
	return &MemoryKVRepository{slots: make(map[string][]byte)}
}

// Get returns a copy of the stored value.
func (r *MemoryKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.slots[key]
	if !ok {
		return nil, appErrors.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

// Put overwrites the slot.
func (r *MemoryKVRepository) Put(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes the slot if present.
func (r *MemoryKVRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slots, key)
	return nil
}

// Close is a no-op.
func (r *MemoryKVRepository) Close() error {
	return nil
}
