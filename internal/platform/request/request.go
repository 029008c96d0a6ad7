// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package requestutil reads JSON bodies, path parameters and caller identity
// off an incoming request, returning [apperr.AppError] values on failure.
package requestutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/ctxutil"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/validate"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 64 << 10

/*
DecodeJSON decodes exactly one JSON value from the request body into target.

Parameters:
  - writer: http.ResponseWriter (lets net/http close oversized connections)
  - request: *http.Request
  - target: any (pointer to the destination struct)

Returns:
  - error: a VALIDATION_ERROR for oversized, malformed or trailing input
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(writer, request.Body, MaxBodyBytes))

	if err := decoder.Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.ValidationError(fmt.Sprintf("Request body exceeds %d bytes", MaxBodyBytes))
		}
		return validate.ErrInvalidJSON.WithCause(err)
	}

	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return validate.ErrInvalidJSON.WithCause(errors.New("trailing data after JSON body"))
	}
	return nil
}

// PathUUID returns the named URL parameter after checking it is a UUID.
func PathUUID(request *http.Request, name string) (string, error) {
	value := chi.URLParam(request, name)
	if err := (&validate.Validator{}).UUID(name, value).Err(); err != nil {
		return "", err
	}
	return value, nil
}

// RequiredClaims returns the verified access token claims, or 401 when the
// request carried no token.
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return claims, nil
}
