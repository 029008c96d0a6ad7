// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/ctxutil"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/respond"
	"github.com/TimGrootscholten/tournaments-server/pkg/pagination"
)

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantLog    string
	}{
		{
			name:       "client_error_cause_at_debug",
			err:        fmt.Errorf("auth_service_login: %w", apperr.Unauthorized("Invalid credentials").WithCause(errors.New("password mismatch"))),
			wantStatus: http.StatusUnauthorized,
			wantCode:   apperr.CodeUnauthorized,
			wantLog:    `"level":"DEBUG"`,
		},
		{
			name:       "plain_error_becomes_internal",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperr.CodeInternal,
			wantLog:    `"msg":"api_server_error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

			request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
			request = request.WithContext(ctxutil.WithLogger(request.Context(), logger))
			recorder := httptest.NewRecorder()

			respond.Error(recorder, request, tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, "no-store", recorder.Header().Get("Cache-Control"))

			var body respond.ErrorEnvelope
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotContains(t, body.Error, "password mismatch")
			assert.NotContains(t, body.Error, "connection reset")
			assert.Contains(t, logs.String(), tt.wantLog)
		})
	}
}

func TestPaginated(t *testing.T) {
	recorder := httptest.NewRecorder()
	meta := pagination.NewMeta(pagination.Params{Page: 2, Limit: 10}, 25)

	respond.Paginated(recorder, []string{"alice"}, meta)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":["alice"],"meta":`+mustJSON(t, meta)+`}`, recorder.Body.String())
}

func mustJSON(t *testing.T, value any) string {
	t.Helper()
	encoded, err := json.Marshal(value)
	require.NoError(t, err)
	return string(encoded)
}
