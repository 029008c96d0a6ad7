// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres owns the pgx connection pool shared by the account,
// permission and refresh token stores. The stores own their SQL.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/constants"
)

// Pool limits for a workload of short credential and grant queries.
const (
	maxConns          = 20
	minConns          = 2
	maxConnLifetime   = time.Hour
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second

	// statementTimeout stops a stuck query before the request deadline does.
	statementTimeout = constants.GlobalRequestTimeout - 5*time.Second
)

// NewPool opens a pool for dsn and pings it once before returning.
//
// Every connection reports the service name as application_name and carries
// a server-side statement_timeout, set as startup parameters so no extra round
// trip is spent per connection.
func NewPool(context context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod

	connConfig := poolConfig.ConnConfig
	connConfig.ConnectTimeout = connectTimeout
	if _, ok := connConfig.RuntimeParams["application_name"]; !ok {
		connConfig.RuntimeParams["application_name"] = constants.AppName
	}
	connConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(statementTimeout.Milliseconds(), 10)

	pool, err := pgxpool.NewWithConfig(context, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	if err := Ping(context, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres_pool_connected",
		slog.String("host", connConfig.Host),
		slog.String("database", connConfig.Database),
		slog.Int("max_conns", int(poolConfig.MaxConns)),
	)

	return pool, nil
}

// Ping checks the pool can serve a query within pingTimeout.
func Ping(parent context.Context, pool *pgxpool.Pool) error {
	context, cancel := context.WithTimeout(parent, pingTimeout)
	defer cancel()

	if err := pool.Ping(context); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}
	return nil
}

// InTx runs fn in a transaction that commits when fn returns nil and rolls
// back otherwise. Errors from fn are returned unwrapped so callers can still
// classify them.
func InTx(context context.Context, pool *pgxpool.Pool, fn func(transaction pgx.Tx) error) error {
	transaction, err := pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: begin transaction: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	if err := fn(transaction); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: commit transaction: %w", err)
	}
	return nil
}
