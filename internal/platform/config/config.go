// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config reads the server settings from environment variables with
caarlos0/env and checks the rules that span several variables.

Load is called once in main; the resulting *Config is passed to constructors
and never mutated.
*/
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Storage backends accepted by STORAGE_BACKEND and REFRESH_TOKEN_STORE.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
	StorageRedis    = "redis"
)

const environmentDevelopment = "development"

// Config is the full runtime configuration.
type Config struct {
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Debug       bool   `env:"DEBUG"`

	// StorageBackend holds accounts and permission groups: "postgres" or
	// "memory". The memory backend loses state on restart.
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`

	// MigrationPath overrides the migrations embedded in the binary.
	MigrationPath string `env:"MIGRATION_PATH"`

	// RedisURL enables the permission scope cache. Empty disables it.
	RedisURL           string        `env:"REDIS_URL"`
	PermissionCacheTTL time.Duration `env:"PERMISSION_CACHE_TTL" envDefault:"5m"`

	JWTPrivKeyPath string        `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH,required"`
	JWTIssuer      string        `env:"JWT_ISSUER" envDefault:"tournaments-server"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`

	// RefreshTokenStore is "postgres", "memory" or "redis"; empty follows
	// StorageBackend.
	RefreshTokenStore  string `env:"REFRESH_TOKEN_STORE"`
	RefreshTokenMonths int    `env:"REFRESH_TOKEN_MONTHS" envDefault:"6"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// DefaultPermissionGroupID is granted to every new account.
	DefaultPermissionGroupID string `env:"DEFAULT_PERMISSION_GROUP_ID" envDefault:"9cc607c1-7b93-4245-98f5-0d788cf94895"`

	// PermissionAdminScope lets a caller list accounts and assign groups.
	PermissionAdminScope int `env:"PERMISSION_ADMIN_SCOPE" envDefault:"1"`

	// ExtraOrigins are the browser origins allowed outside development.
	ExtraOrigins []string `env:"EXTRA_ORIGINS" envSeparator:","`

	// TrustProxyHeaders takes the client address from X-Real-IP or
	// X-Forwarded-For. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var problems []error

	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, errors.New("DATABASE_URL is required for the postgres storage backend"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}

	switch c.TokenStore() {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, errors.New("DATABASE_URL is required for the postgres refresh token store"))
		}
	case StorageRedis:
		if c.RedisURL == "" {
			problems = append(problems, errors.New("REDIS_URL is required for the redis refresh token store"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown REFRESH_TOKEN_STORE %q", c.RefreshTokenStore))
	}

	if err := uuid.Validate(c.DefaultPermissionGroupID); err != nil {
		problems = append(problems, fmt.Errorf("DEFAULT_PERMISSION_GROUP_ID must be a UUID: %w", err))
	}
	if c.RefreshTokenMonths < 1 {
		problems = append(problems, errors.New("REFRESH_TOKEN_MONTHS must be at least 1"))
	}
	if c.AccessTokenTTL <= 0 {
		problems = append(problems, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	return errors.Join(problems...)
}

// TokenStore returns the effective refresh grant backend.
func (c *Config) TokenStore() string {
	if c.RefreshTokenStore == "" {
		return c.StorageBackend
	}
	return c.RefreshTokenStore
}

// IsDevelopment reports whether CORS should accept any origin.
func (c *Config) IsDevelopment() bool {
	return c.Environment == environmentDevelopment
}

// AllowedOrigins returns EXTRA_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	return c.ExtraOrigins
}
