// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/ctxutil"
	requestutil "github.com/TimGrootscholten/tournaments-server/internal/platform/request"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		ClientID string `json:"client_id"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"single_object", `{"client_id":"web"}`, false},
		{"trailing_whitespace", "{\"client_id\":\"web\"}\n", false},
		{"malformed", `{"client_id":`, true},
		{"trailing_object", `{"client_id":"web"}{"client_id":"cli"}`, true},
		{"oversized", `{"client_id":"` + strings.Repeat("x", requestutil.MaxBodyBytes) + `"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var target payload
			err := requestutil.DecodeJSON(httptest.NewRecorder(), request, &target)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "web", target.ClientID)
				return
			}
			assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		})
	}
}

func TestPathUUID(t *testing.T) {
	withParam := func(value string) *http.Request {
		routeContext := chi.NewRouteContext()
		routeContext.URLParams.Add("id", value)
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		return request.WithContext(context.WithValue(request.Context(), chi.RouteCtxKey, routeContext))
	}

	id, err := requestutil.PathUUID(withParam("0191f3a0-5c1e-7b6a-9f42-3d1e8a7c0001"), "id")
	require.NoError(t, err)
	assert.Equal(t, "0191f3a0-5c1e-7b6a-9f42-3d1e8a7c0001", id)

	_, err = requestutil.PathUUID(withParam("me"), "id")
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

func TestRequiredClaims(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := requestutil.RequiredClaims(request)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	claims := &sec.AuthClaims{Username: "alice"}
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))

	got, err := requestutil.RequiredClaims(request)
	require.NoError(t, err)
	assert.Same(t, claims, got)
}
