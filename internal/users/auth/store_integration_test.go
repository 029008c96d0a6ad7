// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/migration"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/postgres"
	"github.com/TimGrootscholten/tournaments-server/internal/users/auth"
)

func TestPostgresTokenRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres integration test")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, migration.RunUp(context.Background(), dsn, "", logger))

	pool, err := postgres.NewPool(context.Background(), dsn, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	runTokenRepositoryContract(t, func(t *testing.T, policy auth.ExpiryPolicy) auth.TokenRepository {
		return auth.NewPostgresTokenRepository(pool, policy)
	}, true)
}

func TestRedisTokenRepository(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set; skipping redis integration test")
	}

	options, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(options)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	runTokenRepositoryContract(t, func(t *testing.T, policy auth.ExpiryPolicy) auth.TokenRepository {
		return auth.NewRedisTokenRepository(client, policy)
	}, false)
}
