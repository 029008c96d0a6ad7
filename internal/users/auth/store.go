// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
)

// # Refresh Token Data Access

// TokenRepository persists at most one refresh grant per client.
//
// Implementations receive raw tokens and store only their SHA-256 digest.
// Every method is independently atomic.
type TokenRepository interface {

	/*
		SaveRefreshToken creates or rotates the grant for a client.

		Description: With no grant present the new token is stored
		unconditionally. With a grant present it is rotated only if oldToken is
		the current token; an empty oldToken never matches. Concurrent rotations
		from the same oldToken have exactly one winner.

		Parameters:
		  - context: context.Context
		  - clientID: string
		  - newToken: string
		  - username: string
		  - oldToken: string ("" for none)

		Returns:
		  - bool: true if the grant now holds newToken
		  - error: Storage failures only; a stale oldToken is (false, nil)
	*/
	SaveRefreshToken(context context.Context, clientID, newToken, username, oldToken string) (bool, error)

	/*
		RotateRefreshToken replaces oldToken with newToken on an existing grant.

		Description: Unlike SaveRefreshToken it never creates a grant. A grant
		that was deleted, reaped or expired since the caller checked it stays
		gone, and the call reports false.

		Parameters:
		  - context: context.Context
		  - clientID: string
		  - newToken: string
		  - username: string
		  - oldToken: string

		Returns:
		  - bool: true if the grant now holds newToken
		  - error: Storage failures only
	*/
	RotateRefreshToken(context context.Context, clientID, newToken, username, oldToken string) (bool, error)

	/*
		CheckRefreshToken returns the grant if token is current and unexpired.

		Parameters:
		  - context: context.Context
		  - clientID: string
		  - token: string

		Returns:
		  - *Token: The live grant
		  - error: apperr.NotFound for missing, mismatched and expired alike
	*/
	CheckRefreshToken(context context.Context, clientID, token string) (*Token, error)

	/*
		DeleteClientGrant removes the client's grant.

		Parameters:
		  - context: context.Context
		  - clientID: string

		Returns:
		  - *Token: The removed grant
		  - error: apperr.NotFound if the client had none
	*/
	DeleteClientGrant(context context.Context, clientID string) (*Token, error)

	/*
		DeleteUserGrants removes every grant issued under username.

		Description: Called when an account changes its username, so a later
		account with the old name cannot refresh through those grants. The
		match is exact.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - int64: Number of removed grants
		  - error: Storage failures
	*/
	DeleteUserGrants(context context.Context, username string) (int64, error)

	/*
		IssueRefreshToken stores newToken for the client, replacing any grant.

		Description: Used after a password login, which proves identity without
		a prior refresh token.

		Parameters:
		  - context: context.Context
		  - clientID: string
		  - newToken: string
		  - username: string

		Returns:
		  - error: Storage failures
	*/
	IssueRefreshToken(context context.Context, clientID, newToken, username string) error

	/*
		DeleteExpired reaps grants that can no longer be used.

		Parameters:
		  - context: context.Context

		Returns:
		  - int64: Number of removed grants
		  - error: Storage failures
	*/
	DeleteExpired(context context.Context) (int64, error)
}
