// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/ctxutil"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
)

func TestAccessors_EmptyContext(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, ctxutil.GetRequestID(ctx))
	assert.Empty(t, ctxutil.GetClientIP(ctx))
	assert.Same(t, slog.Default(), ctxutil.GetLogger(ctx))
	assert.Nil(t, ctxutil.GetAuthUser(ctx))
}

func TestAccessors_RoundTrip(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	claims := &sec.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "0191f3a0-0000-7000-8000-000000000007"},
		Username:         "alice",
		Scopes:           sec.StringList{"2", "5"},
	}

	ctx := ctxutil.WithRequestID(context.Background(), "edge-42")
	ctx = ctxutil.WithClientIP(ctx, "198.51.100.4")
	ctx = ctxutil.WithLogger(ctx, logger)
	ctx = ctxutil.WithAuthUser(ctx, claims)

	assert.Equal(t, "edge-42", ctxutil.GetRequestID(ctx))
	assert.Equal(t, "198.51.100.4", ctxutil.GetClientIP(ctx))
	assert.Same(t, logger, ctxutil.GetLogger(ctx))

	got := ctxutil.GetAuthUser(ctx)
	require.NotNil(t, got)
	assert.Equal(t, claims.Subject, got.UserID())
	assert.True(t, got.HasScope(sec.Scope(5)))
	assert.False(t, got.HasScope(sec.Scope(1)))
}

func TestGetLogger_IgnoresNilLogger(t *testing.T) {
	ctx := ctxutil.WithLogger(context.Background(), nil)
	assert.Same(t, slog.Default(), ctxutil.GetLogger(ctx))
}
