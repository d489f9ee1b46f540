package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/noah-isme/attendance-tracker/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// DefaultSubjectsKey is the slot holding the serialized subject list.
const DefaultSubjectsKey = "subjects"

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// SubjectRepository persists the whole ordered subject list as one JSON array.
type SubjectRepository struct {
	store kvStore
	key   string
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(store kvStore, key string) *SubjectRepository {
	if key == "" {
		key = DefaultSubjectsKey
	}
	return &SubjectRepository{store: store, key: key}
}

// Key returns the slot name in use.
func (r *SubjectRepository) Key() string {
	return r.key
}

// Save overwrites the slot with the full list.
func (r *SubjectRepository) Save(ctx context.Context, subjects []models.Subject) error {
	if subjects == nil {
		subjects = []models.Subject{}
	}
	payload, err := json.Marshal(subjects)
	if err != nil {
		return fmt.Errorf("marshal subjects: %w", err)
	}
	if err := r.store.Put(ctx, r.key, payload); err != nil {
		return fmt.Errorf("save subjects: %w", err)
	}
	return nil
}

// Load reads the slot. A missing slot is an empty list; an undecodable slot is an
// empty list together with the decode error so callers can report it.
func (r *SubjectRepository) Load(ctx context.Context) ([]models.Subject, error) {
	raw, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, appErrors.ErrKeyNotFound) {
			return []models.Subject{}, nil
		}
		return []models.Subject{}, fmt.Errorf("load subjects: %w", err)
	}

	var subjects []models.Subject
	if err := json.Unmarshal(raw, &subjects); err != nil {
		return []models.Subject{}, fmt.Errorf("decode subjects: %w", err)
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}
