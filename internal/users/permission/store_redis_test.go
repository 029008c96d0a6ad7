// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permission_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
	"github.com/TimGrootscholten/tournaments-server/internal/users/permission"
)

// countingRepository records how often the cache falls through.
type countingRepository struct {
	permission.Repository
	loads atomic.Int32
}

func (repository *countingRepository) FindByIDs(context context.Context, ids []string) ([]*permission.Group, error) {
	repository.loads.Add(1)
	return repository.Repository.FindByIDs(context, ids)
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set; skipping redis integration test")
	}

	options, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(options)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	return client
}

func TestCachedRepository_ReadThrough(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	inner := &countingRepository{Repository: permission.NewMemoryRepository(
		&permission.Group{ID: groupA, Name: "Organisers", Scopes: []sec.Scope{1, 2}},
		&permission.Group{ID: groupB, Name: "Referees", Scopes: []sec.Scope{2, 3}},
	)}
	t.Cleanup(func() { client.Del(ctx, "perm:group_scopes:"+groupA, "perm:group_scopes:"+groupB) })

	cached := permission.NewCachedRepository(inner, client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	first, err := cached.ScopesByGroupIDs(ctx, []string{groupA, groupB})
	require.NoError(t, err)
	assert.Equal(t, []sec.Scope{1, 2, 3}, first)
	assert.Equal(t, int32(1), inner.loads.Load())

	second, err := cached.ScopesByGroupIDs(ctx, []string{groupA, groupB})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), inner.loads.Load(), "second lookup must be served from redis")
}
