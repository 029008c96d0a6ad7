// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements credential authentication and the refresh token
rotation protocol.

# Architecture

  - Service: Verifies passwords, assembles claims, mints access tokens and
    rotates refresh tokens.
  - TokenRepository: One refresh token grant per client, rotated by
    compare-and-swap so only the holder of the current token can mint the next.
  - Security: Refresh tokens are opaque and stored as SHA-256 digests only.
*/
package auth

import (
	"errors"
	"time"
)

// # Domain Entities

// Token is the refresh token grant held by a single client (device or session).
type Token struct {
	ClientID  string    `json:"client_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`

	// Username is a denormalised reference to the owner. Refresh resolves the
	// live account from it rather than trusting any other cached field.
	Username string `json:"username"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the grant can no longer be used at instant now.
func (token *Token) Expired(now time.Time) bool {
	return !now.Before(token.ExpiresAt)
}

// AuthResponse is the credential pair returned by a successful login or refresh.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// # Internal Failure Causes

// These never reach the client; they ride on the cause of a uniform 401 and
// are only visible in logs.
var (
	ErrUnknownUser         = errors.New("auth: unknown user")
	ErrPasswordMismatch    = errors.New("auth: password mismatch")
	ErrRefreshTokenInvalid = errors.New("auth: refresh token missing, mismatched or expired")
	ErrReplayRejected      = errors.New("auth: refresh token is no longer current")
)

// # Field Identifiers

const (
	FieldUsername     = "username"
	FieldPassword     = "password"
	FieldClientID     = "client_id"
	FieldRefreshToken = "refresh_token"
)
