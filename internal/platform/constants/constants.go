// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package constants holds the fixed values shared across packages: server
// timeouts, rate limit budgets, access token claim names, header names and
// Redis key prefixes. Anything an operator may tune lives in config instead.
package constants

import "time"

const (
	AppName    = "tournaments-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	DefaultReadHeaderTimeout = 2 * time.Second
	DefaultReadTimeout       = 5 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 2 * time.Minute

	// GlobalRequestTimeout caps a whole request, handler included.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is the drain window for in-flight requests.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

// Budgets are per client address. The credential endpoints get a much
// smaller bucket on top of the global one.
const (
	DefaultRateLimitRPS   = 20.0
	DefaultRateLimitBurst = 40

	AuthRateLimitRPS   = 2.0
	AuthRateLimitBurst = 10

	RateLimitCleanupInterval = time.Minute
	RateLimitClientTTL       = 3 * time.Minute
)

// # Access Token Claims

const (
	ClaimSubject   = "sub"
	ClaimUsername  = "username"
	ClaimFirstName = "firstName"

	// ClaimScopes repeats once per granted permission scope.
	ClaimScopes = "scopes"
)

// RefreshGrantReapInterval is the pause between expired grant sweeps.
const RefreshGrantReapInterval = time.Hour

// AdministratorsGroupID is the seeded group holding the admin scope.
const AdministratorsGroupID = "0191f3a0-5c1e-7b6a-9f42-3d1e8a7c0001"

// # HTTP Headers

const (
	HeaderAuthorization = "Authorization"
	HeaderOrigin        = "Origin"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
)

// # Redis Keys

const (
	// RedisPrefixGroupScopes + group id caches that group's scope list.
	RedisPrefixGroupScopes = "perm:group_scopes:"

	// RedisPrefixRefreshGrant + client id holds that client's refresh grant.
	RedisPrefixRefreshGrant = "auth:refresh_grant:"
)
