package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/studynotes-api/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, nil), srv
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	repo, srv := newCacheRepo(t)
	ctx := context.Background()

	var dest []string
	require.ErrorIs(t, repo.Get(ctx, "files:all", &dest), appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "files:all", []string{"a", "b"}, time.Minute))
	require.NoError(t, repo.Get(ctx, "files:all", &dest))
	assert.Equal(t, []string{"a", "b"}, dest)

	srv.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "files:all", &dest), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, srv := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "files:list:a", 1, time.Minute))
	require.NoError(t, repo.Set(ctx, "files:list:b", 2, time.Minute))
	require.NoError(t, repo.Set(ctx, "other", 3, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "files:*"))
	assert.False(t, srv.Exists("files:list:a"))
	assert.False(t, srv.Exists("files:list:b"))
	assert.True(t, srv.Exists("other"))
}

func TestCacheRepositoryCorruptEntryIsMiss(t *testing.T) {
	repo, srv := newCacheRepo(t)
	require.NoError(t, srv.Set("files:bad", "{not json"))

	var dest map[string]int
	assert.ErrorIs(t, repo.Get(context.Background(), "files:bad", &dest), appErrors.ErrCacheMiss)
	assert.False(t, srv.Exists("files:bad"))
}

func TestCacheRepositoryNilClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest int
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", 1, time.Second))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "*"))
	assert.NoError(t, repo.Close())
}
