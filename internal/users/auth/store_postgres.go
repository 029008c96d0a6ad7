// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/database/schema"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
)

// # Repository Implementations

// PostgresTokenRepository implements [TokenRepository] on users.token.
//
// Rotation is a single conditional UPDATE keyed on (clientid, tokenhash), so
// row-level locking serialises competing rotations and only one can match.
type PostgresTokenRepository struct {
	pool   *pgxpool.Pool
	policy ExpiryPolicy
}

// NewPostgresTokenRepository creates a new Postgres refresh grant store.
func NewPostgresTokenRepository(pool *pgxpool.Pool, policy ExpiryPolicy) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool, policy: policy}
}

var (
	tokenColumns = fmt.Sprintf("%s, %s, %s, %s, %s, %s",
		schema.UserToken.ClientID, schema.UserToken.TokenHash, schema.UserToken.ExpiresAt,
		schema.UserToken.Username, schema.UserToken.CreatedAt, schema.UserToken.UpdatedAt)

	insertTokenQuery = fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (%s) DO NOTHING`,
		schema.UserToken.Table, tokenColumns, schema.UserToken.ClientID)

	rotateTokenQuery = fmt.Sprintf(`
		UPDATE %s
		SET %s = $3, %s = $4, %s = $5, %s = $6
		WHERE %s = $1 AND %s = $2`,
		schema.UserToken.Table,
		schema.UserToken.TokenHash, schema.UserToken.ExpiresAt, schema.UserToken.Username, schema.UserToken.UpdatedAt,
		schema.UserToken.ClientID, schema.UserToken.TokenHash)

	// $6 doubles as the liveness bound: only grants expiring after now rotate.
	rotateLiveTokenQuery = rotateTokenQuery + fmt.Sprintf(` AND %s > $6`, schema.UserToken.ExpiresAt)
)

func scanToken(row pgx.Row) (*Token, error) {
	token := &Token{}
	err := row.Scan(
		&token.ClientID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.Username,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	return token, err
}

/*
SaveRefreshToken creates the grant or rotates it by compare-and-swap.

Description: A non-empty oldToken first attempts the conditional UPDATE. If
nothing matched, an INSERT that yields on conflict covers the no-grant case;
when a grant exists but did not match, both statements affect zero rows and
the rotation is rejected.

Parameters:
  - context: context.Context
  - clientID: string
  - newToken: string
  - username: string
  - oldToken: string ("" for none)

Returns:
  - bool: true if the grant now holds newToken
  - error: Database failures
*/
func (repository *PostgresTokenRepository) SaveRefreshToken(context context.Context, clientID, newToken, username, oldToken string) (bool, error) {
	now := repository.policy.now()
	expiresAt := repository.policy.nextExpiry(now)
	newHash := sec.HashToken(newToken)

	if oldToken != "" {
		tag, err := repository.pool.Exec(context, rotateTokenQuery,
			clientID, sec.HashToken(oldToken), newHash, expiresAt, username, now)
		if err != nil {
			return false, fmt.Errorf("postgres_token_repo_rotate_failed: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return true, nil
		}
	}

	tag, err := repository.pool.Exec(context, insertTokenQuery, clientID, newHash, expiresAt, username, now)
	if err != nil {
		return false, fmt.Errorf("postgres_token_repo_insert_failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

/*
RotateRefreshToken runs the compare-and-swap UPDATE with no insert fallback.

Parameters:
  - context: context.Context
  - clientID: string
  - newToken: string
  - username: string
  - oldToken: string

Returns:
  - bool: true if a live grant held oldToken and now holds newToken
  - error: Database failures
*/
func (repository *PostgresTokenRepository) RotateRefreshToken(context context.Context, clientID, newToken, username, oldToken string) (bool, error) {
	if oldToken == "" {
		return false, nil
	}

	now := repository.policy.now()
	tag, err := repository.pool.Exec(context, rotateLiveTokenQuery,
		clientID, sec.HashToken(oldToken), sec.HashToken(newToken), repository.policy.nextExpiry(now), username, now)
	if err != nil {
		return false, fmt.Errorf("postgres_token_repo_rotate_failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

/*
CheckRefreshToken loads the grant only if the digest matches and it is unexpired.

Parameters:
  - context: context.Context
  - clientID: string
  - token: string

Returns:
  - *Token: Live grant
  - error: apperr.NotFound or database failures
*/
func (repository *PostgresTokenRepository) CheckRefreshToken(context context.Context, clientID, token string) (*Token, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s = $2 AND %s > $3`,
		tokenColumns, schema.UserToken.Table,
		schema.UserToken.ClientID, schema.UserToken.TokenHash, schema.UserToken.ExpiresAt)

	grant, err := scanToken(repository.pool.QueryRow(context, query, clientID, sec.HashToken(token), repository.policy.now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Refresh token")
		}
		return nil, fmt.Errorf("postgres_token_repo_check_failed: %w", err)
	}

	return grant, nil
}

/*
DeleteClientGrant removes the client's grant and returns it.

Parameters:
  - context: context.Context
  - clientID: string

Returns:
  - *Token: Removed grant
  - error: apperr.NotFound or database failures
*/
func (repository *PostgresTokenRepository) DeleteClientGrant(context context.Context, clientID string) (*Token, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 RETURNING %s`,
		schema.UserToken.Table, schema.UserToken.ClientID, tokenColumns)

	grant, err := scanToken(repository.pool.QueryRow(context, query, clientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Client grant")
		}
		return nil, fmt.Errorf("postgres_token_repo_delete_failed: %w", err)
	}

	return grant, nil
}

/*
IssueRefreshToken upserts the grant for a password login.

Parameters:
  - context: context.Context
  - clientID: string
  - newToken: string
  - username: string

Returns:
  - error: Database failures
*/
func (repository *PostgresTokenRepository) IssueRefreshToken(context context.Context, clientID, newToken, username string) error {
	now := repository.policy.now()

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (%s) DO UPDATE
		SET %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s`,
		schema.UserToken.Table, tokenColumns, schema.UserToken.ClientID,
		schema.UserToken.TokenHash, schema.UserToken.TokenHash,
		schema.UserToken.ExpiresAt, schema.UserToken.ExpiresAt,
		schema.UserToken.Username, schema.UserToken.Username,
		schema.UserToken.UpdatedAt, schema.UserToken.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		clientID, sec.HashToken(newToken), repository.policy.nextExpiry(now), username, now)
	if err != nil {
		return fmt.Errorf("postgres_token_repo_issue_failed: %w", err)
	}

	return nil
}

/*
DeleteUserGrants removes every grant held under username.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - int64: Number of removed grants
  - error: Database failures
*/
func (repository *PostgresTokenRepository) DeleteUserGrants(context context.Context, username string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.UserToken.Table, schema.UserToken.Username)

	tag, err := repository.pool.Exec(context, query, username)
	if err != nil {
		return 0, fmt.Errorf("postgres_token_repo_delete_user_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}

/*
DeleteExpired removes every grant whose expiry has passed.

Parameters:
  - context: context.Context

Returns:
  - int64: Number of removed grants
  - error: Database failures
*/
func (repository *PostgresTokenRepository) DeleteExpired(context context.Context) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s <= $1`, schema.UserToken.Table, schema.UserToken.ExpiresAt)

	tag, err := repository.pool.Exec(context, query, repository.policy.now())
	if err != nil {
		return 0, fmt.Errorf("postgres_token_repo_reap_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}
