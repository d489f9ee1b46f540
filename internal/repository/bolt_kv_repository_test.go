package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/pkg/config"
	"github.com/noah-isme/attendance-tracker/pkg/database"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

func newBoltRepo(t *testing.T, path string) *BoltKVRepository {
	t.Helper()
	db, err := database.NewBolt(config.BoltConfig{Path: path, Bucket: "attendance", Timeout: time.Second})
	require.NoError(t, err)
	return NewBoltKVRepository(db, "attendance")
}

func TestBoltKVRepositoryGetPutDelete(t *testing.T) {
	repo := newBoltRepo(t, filepath.Join(t.TempDir(), "attendance.db"))
	defer repo.Close()
	ctx := context.Background()

	_, err := repo.Get(ctx, "subjects")
	require.ErrorIs(t, err, appErrors.ErrKeyNotFound)

	require.NoError(t, repo.Put(ctx, "subjects", []byte(`[]`)))
	value, err := repo.Get(ctx, "subjects")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(value))

	require.NoError(t, repo.Put(ctx, "subjects", []byte(`[{"id":"1"}]`)))
	value, err = repo.Get(ctx, "subjects")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(value))

	require.NoError(t, repo.Delete(ctx, "subjects"))
	_, err = repo.Get(ctx, "subjects")
	require.ErrorIs(t, err, appErrors.ErrKeyNotFound)
}

func TestBoltKVRepositorySurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.db")
	ctx := context.Background()
	subjects := []models.Subject{{ID: "id-1", Name: "Physics", Attended: 18, Total: 20}}

	first := newBoltRepo(t, path)
	require.NoError(t, NewSubjectRepository(first, "subjects").Save(ctx, subjects))
	require.NoError(t, first.Close())

	second := newBoltRepo(t, path)
	defer second.Close()
	loaded, err := NewSubjectRepository(second, "subjects").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, subjects, loaded)
}
