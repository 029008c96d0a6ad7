// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/constants"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/validate"
	"github.com/TimGrootscholten/tournaments-server/internal/users/account"
)

// # Contracts & Types

// UserFinder loads accounts by username. Satisfied by [account.UserRepository].
type UserFinder interface {
	FindByUsername(context context.Context, username string) (*account.User, error)
}

// ScopeResolver flattens permission groups into scopes.
type ScopeResolver interface {
	GetPermissionsByGroupIDs(context context.Context, ids []string) ([]sec.Scope, error)
}

// TokenIssuer signs an ordered claim list into an access token.
type TokenIssuer interface {
	GenerateAccessToken(claims []sec.Claim) (string, error)
}

// Client-facing failures. Each carries a distinct internal cause when returned.
var (
	errInvalidCredentials = apperr.Unauthorized("Invalid login credentials")
	errInvalidRefresh     = apperr.Unauthorized("Invalid or expired refresh token")
)

// Service authenticates users and manages refresh grants.
//
// It owns no persisted state: every step delegates to an independently
// atomic store call, so an abandoned request leaves no partial grant behind.
type Service struct {
	users       UserFinder
	scopes      ScopeResolver
	tokens      TokenRepository
	issuer      TokenIssuer
	hasher      *sec.PasswordHasher
	logger      *slog.Logger
	newToken    func() string
	decoyDigest string
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	users UserFinder,
	scopes ScopeResolver,
	tokens TokenRepository,
	issuer TokenIssuer,
	hasher *sec.PasswordHasher,
	logger *slog.Logger,
) (*Service, error) {
	// Unknown usernames are verified against this digest so both failure
	// paths cost one bcrypt comparison.
	decoy, err := hasher.Hash(sec.GenerateRefreshToken())
	if err != nil {
		return nil, fmt.Errorf("auth_service_decoy_hash_failed: %w", err)
	}

	return &Service{
		users:       users,
		scopes:      scopes,
		tokens:      tokens,
		issuer:      issuer,
		hasher:      hasher,
		logger:      logger,
		newToken:    sec.GenerateRefreshToken,
		decoyDigest: decoy,
	}, nil
}

// # Password Login

// AuthenticateInput holds a password login attempt for one client.
type AuthenticateInput struct {
	Username string
	Password string
	ClientID string
}

/*
Authenticate exchanges a username and password for a credential pair.

Description: An unknown username and a wrong password yield the identical
401; only the logged cause differs. On success the client's refresh grant is
replaced, since the password proves identity without the previous token.

Parameters:
  - context: context.Context
  - input: AuthenticateInput

Returns:
  - *AuthResponse: Access and refresh tokens
  - error: Validation, Unauthorized or storage failures
*/
func (service *Service) Authenticate(context context.Context, input AuthenticateInput) (*AuthResponse, error) {
	v := &validate.Validator{}
	v.Required(FieldUsername, input.Username).
		Required(FieldPassword, input.Password).
		Required(FieldClientID, input.ClientID).
		MaxLen(FieldClientID, input.ClientID, MaxClientIDLength)
	if err := v.Err(); err != nil {
		return nil, err
	}

	// 1. Credential lookup
	user, err := service.users.FindByUsername(context, input.Username)
	if err != nil {
		if !apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, fmt.Errorf("auth_service_user_lookup_failed: %w", err)
		}
		service.hasher.Verify(input.Password, service.decoyDigest)
		return nil, service.rejectLogin(context, input.ClientID, ErrUnknownUser)
	}

	// 2. Password verification
	if !service.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, service.rejectLogin(context, input.ClientID, ErrPasswordMismatch)
	}

	// 3. Claims and access token
	accessToken, err := service.mintAccessToken(context, user)
	if err != nil {
		return nil, err
	}

	// 4. Refresh grant
	refreshToken := service.newToken()
	if err := service.tokens.IssueRefreshToken(context, input.ClientID, refreshToken, user.Username); err != nil {
		return nil, fmt.Errorf("auth_service_issue_refresh_failed: %w", err)
	}

	service.logger.InfoContext(context, "user_authenticated",
		slog.String("user_id", user.ID),
		slog.String("client_id", input.ClientID),
	)

	return &AuthResponse{AccessToken: accessToken, RefreshToken: refreshToken, TokenType: TokenTypeBearer}, nil
}

func (service *Service) rejectLogin(context context.Context, clientID string, cause error) error {
	service.logger.DebugContext(context, "authentication_failed",
		slog.String("client_id", clientID),
		slog.String("reason", cause.Error()),
	)
	return errInvalidCredentials.WithCause(cause)
}

// # Refresh Rotation

/*
Refresh exchanges the client's current refresh token for a new pair.

Description: The grant is checked, the owner's live account is reloaded so
claims reflect current permissions, and the grant is rotated by
compare-and-swap against the presented token. A token that lost a concurrent
rotation, or was already rotated, is rejected as a replay.

Parameters:
  - context: context.Context
  - clientID: string
  - refreshToken: string

Returns:
  - *AuthResponse: New access and refresh tokens
  - error: Unauthorized or storage failures
*/
func (service *Service) Refresh(context context.Context, clientID, refreshToken string) (*AuthResponse, error) {
	v := &validate.Validator{}
	v.Required(FieldClientID, clientID).Required(FieldRefreshToken, refreshToken)
	if err := v.Err(); err != nil {
		return nil, err
	}

	// 1. Grant check
	grant, err := service.tokens.CheckRefreshToken(context, clientID, refreshToken)
	if err != nil {
		if !apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, fmt.Errorf("auth_service_refresh_check_failed: %w", err)
		}
		return nil, service.rejectRefresh(context, clientID, refreshToken, ErrRefreshTokenInvalid)
	}

	// 2. Live account
	user, err := service.users.FindByUsername(context, grant.Username)
	if err != nil {
		if !apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, fmt.Errorf("auth_service_refresh_user_failed: %w", err)
		}
		return nil, service.rejectRefresh(context, clientID, refreshToken, ErrUnknownUser)
	}

	// 3. Claims and access token
	accessToken, err := service.mintAccessToken(context, user)
	if err != nil {
		return nil, err
	}

	// 4. Compare-and-swap rotation
	nextToken := service.newToken()
	rotated, err := service.tokens.RotateRefreshToken(context, clientID, nextToken, user.Username, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("auth_service_rotate_failed: %w", err)
	}
	if !rotated {
		service.logger.WarnContext(context, "refresh_token_replay_rejected",
			slog.String("client_id", clientID),
			slog.String("token_fingerprint", sec.TokenFingerprint(refreshToken)),
		)
		return nil, errInvalidRefresh.WithCause(ErrReplayRejected)
	}

	service.logger.InfoContext(context, "refresh_token_rotated",
		slog.String("user_id", user.ID),
		slog.String("client_id", clientID),
	)

	return &AuthResponse{AccessToken: accessToken, RefreshToken: nextToken, TokenType: TokenTypeBearer}, nil
}

func (service *Service) rejectRefresh(context context.Context, clientID, refreshToken string, cause error) error {
	service.logger.DebugContext(context, "refresh_rejected",
		slog.String("client_id", clientID),
		slog.String("token_fingerprint", sec.TokenFingerprint(refreshToken)),
		slog.String("reason", cause.Error()),
	)
	return errInvalidRefresh.WithCause(cause)
}

// # Revocation

/*
Revoke deletes the client's grant if refreshToken is its current token.

Description: Mismatched, expired and unknown grants are treated as already
revoked, so the call never tells a caller whether a grant exists.

Parameters:
  - context: context.Context
  - clientID: string
  - refreshToken: string

Returns:
  - error: Validation or storage failures
*/
func (service *Service) Revoke(context context.Context, clientID, refreshToken string) error {
	v := &validate.Validator{}
	v.Required(FieldClientID, clientID).Required(FieldRefreshToken, refreshToken)
	if err := v.Err(); err != nil {
		return err
	}

	if _, err := service.tokens.CheckRefreshToken(context, clientID, refreshToken); err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil
		}
		return fmt.Errorf("auth_service_revoke_check_failed: %w", err)
	}

	if _, err := service.tokens.DeleteClientGrant(context, clientID); err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil
		}
		return fmt.Errorf("auth_service_revoke_failed: %w", err)
	}

	service.logger.InfoContext(context, "client_grant_revoked", slog.String("client_id", clientID))

	return nil
}

// # Claims Assembly

// mintAccessToken builds the ordered claim list for user and signs it.
//
// Scopes are resolved before anything is signed; a user without groups gets
// an empty scope list.
func (service *Service) mintAccessToken(context context.Context, user *account.User) (string, error) {
	scopes, err := service.scopes.GetPermissionsByGroupIDs(context, user.PermissionGroupIDs)
	if err != nil {
		return "", fmt.Errorf("auth_service_resolve_scopes_failed: %w", err)
	}

	claims := make([]sec.Claim, 0, 3+len(scopes))
	claims = append(claims,
		sec.Claim{Type: constants.ClaimSubject, Value: user.ID},
		sec.Claim{Type: constants.ClaimUsername, Value: user.Username},
		sec.Claim{Type: constants.ClaimFirstName, Value: user.FirstName},
	)
	for _, scope := range scopes {
		claims = append(claims, sec.Claim{Type: constants.ClaimScopes, Value: scope.String()})
	}

	accessToken, err := service.issuer.GenerateAccessToken(claims)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("auth_service_sign_failed: %w", err))
	}

	return accessToken, nil
}
