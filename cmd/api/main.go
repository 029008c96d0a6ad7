// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api serves the tournaments account and authentication API.
//
// Startup order: logger, configuration, PostgreSQL (plus migrations) when any
// store needs it, Redis when REDIS_URL is set, domain services, then the HTTP
// server. SIGINT or SIGTERM drains in-flight requests and exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/TimGrootscholten/tournaments-server/internal/api"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/config"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/constants"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/migration"
	pgstore "github.com/TimGrootscholten/tournaments-server/internal/platform/postgres"
	redisstore "github.com/TimGrootscholten/tournaments-server/internal/platform/redis"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
	"github.com/TimGrootscholten/tournaments-server/internal/users/account"
	"github.com/TimGrootscholten/tournaments-server/internal/users/auth"
	"github.com/TimGrootscholten/tournaments-server/internal/users/permission"
)

// startupTimeout bounds connecting, migrating and seeding.
const startupTimeout = 30 * time.Second

func main() {
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("service_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// infrastructure holds the optional shared clients; nil means not configured.
type infrastructure struct {
	pool   *pgxpool.Pool
	redis  *redis.Client
	health api.HealthDependencies
}

func (infra *infrastructure) close(log *slog.Logger) {
	if infra.redis != nil {
		if err := infra.redis.Close(); err != nil {
			log.Warn("redis_close_failed", slog.Any("error", err))
		}
	}
	if infra.pool != nil {
		infra.pool.Close()
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
	}

	log.Info("service_starting",
		slog.String("version", constants.AppVersion),
		slog.String("environment", cfg.Environment),
		slog.String("storage_backend", cfg.StorageBackend),
		slog.String("refresh_token_store", cfg.TokenStore()),
		slog.Bool("permission_cache", cfg.RedisURL != ""),
	)

	// The root context lives until SIGINT/SIGTERM; background workers stop with it.
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startupCtx, cancelStartup := context.WithTimeout(rootCtx, startupTimeout)
	defer cancelStartup()

	infra, err := connect(startupCtx, cfg, log)
	defer infra.close(log)
	if err != nil {
		return err
	}

	tokenService, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, cfg.JWTIssuer, cfg.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("load signing keys: %w", err)
	}

	handlers, tokenRepository, err := wireUsers(startupCtx, cfg, infra, tokenService, log)
	if err != nil {
		return err
	}
	handlers.Liveness, handlers.Readiness = api.NewHealthHandlers(infra.health, log)

	go reapExpiredGrants(rootCtx, tokenRepository, log)

	server := api.NewServer(rootCtx, cfg, log, tokenService, handlers)
	return serve(rootCtx, server, log)
}

// connect opens PostgreSQL when either store uses it and Redis when a URL is
// configured. The returned infrastructure is safe to close on error.
func connect(startupCtx context.Context, cfg *config.Config, log *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{}

	if cfg.StorageBackend == config.StoragePostgres || cfg.TokenStore() == config.StoragePostgres {
		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		if err != nil {
			return infra, fmt.Errorf("connect to postgres: %w", err)
		}
		infra.pool = pool
		infra.health.CheckDatabase = func(context context.Context) error { return pgstore.Ping(context, pool) }

		if err := migration.RunUp(startupCtx, cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			return infra, fmt.Errorf("run migrations: %w", err)
		}
	}

	if cfg.RedisURL != "" {
		client, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		if err != nil {
			return infra, fmt.Errorf("connect to redis: %w", err)
		}
		infra.redis = client
		infra.health.CheckCache = func(context context.Context) error { return redisstore.Ping(context, client) }
	}

	return infra, nil
}

// wireUsers builds the permission, account and auth services over the
// configured stores.
func wireUsers(context context.Context, cfg *config.Config, infra *infrastructure, tokens *sec.TokenService, log *slog.Logger) (api.Handlers, auth.TokenRepository, error) {
	groups, users := openAccountStores(cfg, infra.pool)
	if infra.redis != nil {
		groups = permission.NewCachedRepository(groups, infra.redis, cfg.PermissionCacheTTL, log)
	}

	resolver := permission.NewResolver(groups, log)
	if err := resolver.EnsureGroupExists(context, cfg.DefaultPermissionGroupID); err != nil {
		return api.Handlers{}, nil, fmt.Errorf("resolve default permission group: %w", err)
	}

	grants := openTokenStore(cfg, infra, auth.NewExpiryPolicy(cfg.RefreshTokenMonths))
	hasher := sec.NewPasswordHasher(cfg.BcryptCost)

	authService, err := auth.NewService(users, resolver, grants, tokens, hasher, log)
	if err != nil {
		return api.Handlers{}, nil, fmt.Errorf("initialize auth service: %w", err)
	}
	accountService := account.NewService(users, resolver, grants, hasher, cfg.DefaultPermissionGroupID, log)

	return api.Handlers{
		Auth:  auth.NewHandler(authService),
		Users: account.NewHandler(accountService, sec.Scope(cfg.PermissionAdminScope)),
	}, grants, nil
}

// openAccountStores returns the permission group and user repositories for
// STORAGE_BACKEND. The memory backend starts with the two seeded groups.
func openAccountStores(cfg *config.Config, pool *pgxpool.Pool) (permission.Repository, account.UserRepository) {
	if cfg.StorageBackend == config.StorageMemory {
		groups := permission.NewMemoryRepository(
			&permission.Group{ID: cfg.DefaultPermissionGroupID, Name: "Everyone"},
			&permission.Group{
				ID:     constants.AdministratorsGroupID,
				Name:   "Administrators",
				Scopes: []sec.Scope{sec.Scope(cfg.PermissionAdminScope)},
			},
		)
		return groups, account.NewMemoryUserRepository(groups)
	}

	return permission.NewPostgresRepository(pool), account.NewPostgresUserRepository(pool)
}

// openTokenStore returns the refresh grant store selected by REFRESH_TOKEN_STORE.
func openTokenStore(cfg *config.Config, infra *infrastructure, policy auth.ExpiryPolicy) auth.TokenRepository {
	switch cfg.TokenStore() {
	case config.StorageRedis:
		return auth.NewRedisTokenRepository(infra.redis, policy)
	case config.StorageMemory:
		return auth.NewMemoryTokenRepository(policy)
	default:
		return auth.NewPostgresTokenRepository(infra.pool, policy)
	}
}

// serve runs the server until context is cancelled or ListenAndServe fails,
// then drains in-flight requests.
func serve(context context.Context, server *api.Server, log *slog.Logger) error {
	failed := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case <-context.Done():
		log.Info("shutdown_signal_received", slog.Duration("drain_timeout", constants.ShutdownTimeout))
	case err := <-failed:
		return fmt.Errorf("http server: %w", err)
	}

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server_stopped_cleanly")
	return nil
}

// reapExpiredGrants deletes expired refresh grants at startup and then on
// every tick until context is cancelled.
func reapExpiredGrants(context context.Context, grants auth.TokenRepository, log *slog.Logger) {
	ticker := time.NewTicker(constants.RefreshGrantReapInterval)
	defer ticker.Stop()

	for {
		removed, err := grants.DeleteExpired(context)
		switch {
		case err != nil:
			log.Warn("refresh_grant_reap_failed", slog.Any("error", err))
		case removed > 0:
			log.Info("refresh_grants_reaped", slog.Int64("removed", removed))
		}

		select {
		case <-ticker.C:
		case <-context.Done():
			return
		}
	}
}
