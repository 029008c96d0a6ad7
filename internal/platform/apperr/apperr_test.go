// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperr.AppError
		status int
		code   string
	}{
		{"not_found", apperr.NotFound("User"), http.StatusNotFound, apperr.CodeNotFound},
		{"unauthorized", apperr.Unauthorized("Invalid credentials"), http.StatusUnauthorized, apperr.CodeUnauthorized},
		{"forbidden", apperr.Forbidden("Insufficient permissions"), http.StatusForbidden, apperr.CodeForbidden},
		{"conflict", apperr.Conflict("Username is not unique"), http.StatusConflict, apperr.CodeConflict},
		{"validation", apperr.ValidationError("Validation failed"), http.StatusBadRequest, apperr.CodeValidation},
		{"rate_limited", apperr.TooManyRequests("slow down"), http.StatusTooManyRequests, apperr.CodeRateLimited},
		{"internal", apperr.Internal(errors.New("pool closed")), http.StatusInternalServerError, apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}

	assert.Equal(t, "User not found", apperr.NotFound("User").Error())
	assert.NotContains(t, apperr.Internal(errors.New("pool closed")).Error(), "pool closed")
}

func TestWithCause(t *testing.T) {
	sentinel := apperr.Conflict("Username is not unique")
	cause := errors.New("duplicate key value violates unique constraint")

	wrapped := fmt.Errorf("account_service_create_failed: %w", sentinel.WithCause(cause))

	assert.Nil(t, sentinel.Cause, "WithCause must not mutate the sentinel")
	assert.True(t, errors.Is(wrapped, sentinel))
	assert.True(t, errors.Is(wrapped, cause))
	assert.False(t, errors.Is(wrapped, apperr.Conflict("Group name is not unique")))

	appError := apperr.As(wrapped)
	require.NotNil(t, appError)
	assert.Equal(t, sentinel.Message, appError.Message)
	assert.True(t, apperr.HasCode(wrapped, apperr.CodeConflict))
	assert.False(t, apperr.HasCode(cause, apperr.CodeConflict))
}
