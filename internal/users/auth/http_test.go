// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/respond"
	"github.com/TimGrootscholten/tournaments-server/internal/users/auth"
)

func post(handler http.Handler, target, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeTokens(t *testing.T, recorder *httptest.ResponseRecorder) auth.AuthResponse {
	t.Helper()

	var envelope struct {
		Data auth.AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Data
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) respond.ErrorEnvelope {
	t.Helper()

	var envelope respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope
}

func TestHandler_TokenLifecycle(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "alice", "pw123")
	routes := auth.NewHandler(h.service).Routes()

	recorder := post(routes, "/token", `{"username":"alice","password":"pw123","client_id":"web"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "no-store", recorder.Header().Get("Cache-Control"))

	login := decodeTokens(t, recorder)
	require.NotEmpty(t, login.AccessToken)
	require.NotEmpty(t, login.RefreshToken)
	assert.Equal(t, "Bearer", login.TokenType)

	recorder = post(routes, "/refresh", `{"client_id":"web","refresh_token":"`+login.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	refreshed := decodeTokens(t, recorder)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	recorder = post(routes, "/refresh", `{"client_id":"web","refresh_token":"`+login.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code, "replayed token")

	recorder = post(routes, "/revoke", `{"client_id":"web","refresh_token":"`+refreshed.RefreshToken+`"}`)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = post(routes, "/refresh", `{"client_id":"web","refresh_token":"`+refreshed.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code, "revoked token")
}

func TestHandler_LoginFailuresShareOneResponse(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "alice", "pw123")
	routes := auth.NewHandler(h.service).Routes()

	wrongPassword := post(routes, "/token", `{"username":"alice","password":"nope","client_id":"web"}`)
	unknownUser := post(routes, "/token", `{"username":"bob","password":"pw123","client_id":"web"}`)

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, decodeError(t, wrongPassword), decodeError(t, unknownUser))
}

func TestHandler_BadRequests(t *testing.T) {
	h := newHarness(t)
	routes := auth.NewHandler(h.service).Routes()

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"token_malformed", "/token", `{"username":`},
		{"token_missing_client", "/token", `{"username":"alice","password":"pw123"}`},
		{"refresh_missing_token", "/refresh", `{"client_id":"web"}`},
		{"revoke_missing_client", "/revoke", `{"refresh_token":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := post(routes, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}
