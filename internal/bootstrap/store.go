package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/repository"
	"github.com/noah-isme/attendance-tracker/internal/service"
	"github.com/noah-isme/attendance-tracker/pkg/cache"
	"github.com/noah-isme/attendance-tracker/pkg/config"
	"github.com/noah-isme/attendance-tracker/pkg/database"
)

// KVStore is the slot storage every backend implements.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// OpenKVStore connects the backend named by STORE_BACKEND.
func OpenKVStore(ctx context.Context, cfg *config.Config) (KVStore, error) {
	switch cfg.Store.Backend {
	case config.BackendBolt:
		db, err := database.NewBolt(cfg.Bolt)
		if err != nil {
			return nil, err
		}
		return repository.NewBoltKVRepository(db, cfg.Bolt.Bucket), nil
	case config.BackendRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return repository.NewRedisKVRepository(client, cfg.Redis.KeyPrefix), nil
	case config.BackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresKVRepository(db), nil
	case config.BackendMemory:
		return repository.NewMemoryKVRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

// Store bundles the opened backend with the loaded subject store.
type Store struct {
	KV       KVStore
	Subjects *service.SubjectService
}

// Close releases the backend.
func (s *Store) Close() error {
	if s == nil || s.KV == nil {
		return nil
	}
	return s.KV.Close()
}

// OpenSubjectStore opens the backend and loads the persisted subjects. An
// unreadable slot is logged and the store starts empty.
func OpenSubjectStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *service.MetricsService) (*Store, error) {
	kv, err := OpenKVStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	repo := repository.NewSubjectRepository(kv, cfg.Store.Key)
	subjects := service.NewSubjectService(repo, nil, logger, metrics)
	if err := subjects.Load(ctx); err != nil && logger != nil {
		logger.Warn("continuing with empty subject list", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}

	return &Store{KV: kv, Subjects: subjects}, nil
}
