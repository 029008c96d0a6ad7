// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis opens the go-redis client shared by the permission scope cache
and the optional Redis refresh grant store.

Without REDIS_URL the cache is skipped and the permission resolver reads the
primary store directly.
*/
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/constants"
)

// Short timeouts: a stalled cache must not hold a login request.
const (
	dialTimeout  = 2 * time.Second
	ioTimeout    = 500 * time.Millisecond
	pingTimeout  = 2 * time.Second
	poolSize     = 10
	maxIdleConns = 4
)

// clientOptions parses redisURL and applies the service defaults. Options
// present in the URL, such as pool_size, win over the defaults.
func clientOptions(redisURL string) (*redis.Options, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	if options.PoolSize == 0 {
		options.PoolSize = poolSize
	}
	if options.MaxIdleConns == 0 {
		options.MaxIdleConns = maxIdleConns
	}
	if options.ClientName == "" {
		options.ClientName = constants.AppName
	}
	options.MinIdleConns = 1
	options.DialTimeout = dialTimeout
	options.ReadTimeout = ioTimeout
	options.WriteTimeout = ioTimeout
	options.ContextTimeoutEnabled = true

	return options, nil
}

// NewClient connects to redisURL and pings it once.
func NewClient(context context.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := clientOptions(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(options)
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Int("pool_size", options.PoolSize),
	)
	return client, nil
}

// Ping checks the server answers within pingTimeout.
func Ping(parent context.Context, client redis.Cmdable) error {
	context, cancel := context.WithTimeout(parent, pingTimeout)
	defer cancel()

	if err := client.Ping(context).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}
	return nil
}
