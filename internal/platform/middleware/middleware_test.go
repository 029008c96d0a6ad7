// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/ctxutil"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/middleware"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
)

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	tests := []struct {
		name   string
		header string
		reused bool
	}{
		{"absent", "", false},
		{"well_formed", "edge-7f3a.01_b", true},
		{"log_injection", "abc\n{\"level\":\"ERROR\"}", false},
		{"too_long", strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				request.Header.Set("X-Request-ID", tt.header)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, seen, recorder.Header().Get("X-Request-ID"))
			if tt.reused {
				assert.Equal(t, tt.header, seen)
				return
			}
			parsed, err := uuid.Parse(seen)
			require.NoError(t, err)
			assert.Equal(t, uuid.Version(7), parsed.Version())
		})
	}
}

/*
TestRateLimit rejects requests beyond the burst for a single address.
*/
func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	send := func(handler http.Handler, realIP string) int {
		request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
		request.Header.Set("X-Real-IP", realIP)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder.Code
	}

	t.Run("trusted_proxy_header", func(t *testing.T) {
		handler := middleware.ClientIP(true)(middleware.RateLimit(ctx, 0.001, 2)(okHandler()))

		codes := []int{send(handler, "203.0.113.7"), send(handler, "203.0.113.7"), send(handler, "203.0.113.7")}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

		assert.Equal(t, http.StatusOK, send(handler, "203.0.113.8"))
	})

	t.Run("spoofed_header_ignored", func(t *testing.T) {
		handler := middleware.ClientIP(false)(middleware.RateLimit(ctx, 0.001, 2)(okHandler()))

		codes := []int{send(handler, "198.51.100.1"), send(handler, "198.51.100.2"), send(handler, "198.51.100.3")}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("error_envelope", func(t *testing.T) {
		handler := middleware.RateLimit(ctx, 0.001, 1)(okHandler())
		send(handler, "")

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
		assert.Equal(t, "1", recorder.Header().Get("Retry-After"))
		assert.Contains(t, recorder.Body.String(), `"code":"RATE_LIMITED"`)
	})
}

func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.NotContains(t, recorder.Body.String(), "boom")
}

type originPolicy struct {
	development bool
	origins     []string
}

func (policy originPolicy) IsDevelopment() bool      { return policy.development }
func (policy originPolicy) AllowedOrigins() []string { return policy.origins }

func TestCORS(t *testing.T) {
	production := originPolicy{origins: []string{"https://bracket.example"}}

	tests := []struct {
		name        string
		policy      originPolicy
		method      string
		origin      string
		wantAllowed bool
		wantStatus  int
	}{
		{"no_origin", production, http.MethodGet, "", false, http.StatusOK},
		{"listed_origin", production, http.MethodGet, "https://bracket.example", true, http.StatusOK},
		{"unlisted_origin", production, http.MethodGet, "https://evil.example", false, http.StatusOK},
		{"development_any_origin", originPolicy{development: true}, http.MethodGet, "http://localhost:5173", true, http.StatusOK},
		{"preflight", production, http.MethodOptions, "https://bracket.example", true, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(tt.method, "/api/v1/auth/token", nil)
			if tt.origin != "" {
				request.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				request.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			recorder := httptest.NewRecorder()

			middleware.CORS(tt.policy)(okHandler()).ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantAllowed {
				assert.Equal(t, tt.origin, recorder.Header().Get("Access-Control-Allow-Origin"))
				assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

/*
TestStructuredLogger_TagsAuthenticatedUser checks that handler log lines carry
the caller's user id and that the access entry records the final status.
*/
func TestStructuredLogger_TagsAuthenticatedUser(t *testing.T) {
	var output bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&output, nil))

	verifier := fakeVerifier{claims: map[string]*sec.AuthClaims{
		"member": {RegisteredClaims: jwt.RegisteredClaims{Subject: "0191f3a0-0000-7000-8000-000000000042"}, Username: "alice"},
	}}

	inner := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "handler_ran")
		writer.WriteHeader(http.StatusAccepted)
	})
	handler := middleware.RequestID()(middleware.StructuredLogger(logger)(middleware.Authenticate(verifier)(inner)))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	request.Header.Set("Authorization", "Bearer member")
	handler.ServeHTTP(httptest.NewRecorder(), request)

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"handler_ran"`)
	assert.Contains(t, lines[0], `"user_id":"0191f3a0-0000-7000-8000-000000000042"`)
	assert.Contains(t, lines[1], `"msg":"http_request_finished"`)
	assert.Contains(t, lines[1], `"status":202`)
	assert.Contains(t, lines[1], `"ip":"192.0.2.1"`)
}
