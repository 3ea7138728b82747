package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siap-api/internal/models"
	appErrors "github.com/noah-isme/siap-api/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, nil), mr
}

func TestCacheRepositorySetGet(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	var miss models.DocumentSummary
	assert.ErrorIs(t, repo.Get(ctx, "stats:summary:admin", &miss), appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "stats:summary:admin", models.DocumentSummary{TotalDocuments: 4}, time.Minute))
	assert.True(t, mr.Exists("siap:stats:summary:admin"))

	var got models.DocumentSummary
	require.NoError(t, repo.Get(ctx, "stats:summary:admin", &got))
	assert.Equal(t, 4, got.TotalDocuments)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "stats:summary:admin", &got), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "stats:summary:admin", 1, time.Minute))
	require.NoError(t, repo.Set(ctx, "stats:summary:user", 2, time.Minute))
	require.NoError(t, repo.Set(ctx, "other", 3, time.Minute))

	n, err := repo.DeleteByPattern(ctx, "stats:*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("siap:other"))
	assert.False(t, mr.Exists("siap:stats:summary:user"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var v int
	assert.ErrorIs(t, repo.Get(ctx, "k", &v), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "k", 1, time.Minute))
	n, err := repo.DeleteByPattern(ctx, "*")
	assert.NoError(t, err)
	assert.Zero(t, n)
}
