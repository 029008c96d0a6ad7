// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account (Postgres) implements the storage layer for user credentials.

# Schema Table Mapping
  - users.account: Master identity and credential data.
  - users.accountpermissiongroup: Many-to-many link to users.permissiongroup.
*/
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/database/schema"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/dberr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/postgres"
)

// ErrUsernameTaken is the client-facing conflict for duplicate usernames.
var ErrUsernameTaken = apperr.Conflict("Username is not unique")

// # Repository Implementations

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new Postgres implementation for credential storage.
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// userSelect loads an account row with its group ids aggregated into an array.
var userSelect = fmt.Sprintf(`
	SELECT
		a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s,
		COALESCE(array_agg(m.%s::text) FILTER (WHERE m.%s IS NOT NULL), '{}')
	FROM %s a
	LEFT JOIN %s m ON m.%s = a.%s`,
	schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.PasswordHash,
	schema.UserAccount.FirstName, schema.UserAccount.LastName, schema.UserAccount.Email,
	schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	schema.UserAccountPermissionGroup.GroupID, schema.UserAccountPermissionGroup.GroupID,
	schema.UserAccount.Table,
	schema.UserAccountPermissionGroup.Table, schema.UserAccountPermissionGroup.AccountID, schema.UserAccount.ID,
)

// scanUser reads one userSelect row.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.PermissionGroupIDs,
	)
	return user, err
}

// findOne runs userSelect filtered on a single account column.
func (repository *PostgresUserRepository) findOne(context context.Context, column, value string) (*User, error) {
	query := fmt.Sprintf(`%s
	WHERE a.%s = $1
	GROUP BY a.%s`, userSelect, column, schema.UserAccount.ID)

	user, err := scanUser(repository.pool.QueryRow(context, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_failed: %w", err)
	}

	return user, nil
}

/*
FindByUsername retrieves an account by its case-folded username key.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	return repository.findOne(context, schema.UserAccount.UsernameKey, NormalizeUsername(username))
}

/*
FindByID retrieves an account from the users.account table.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *User: Hydrated account
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	return repository.findOne(context, schema.UserAccount.ID, id)
}

/*
IsUsernameUnique checks the unique username index for a free slot.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - bool: true if unused
  - error: Query failures
*/
func (repository *PostgresUserRepository) IsUsernameUnique(context context.Context, username string) (bool, error) {
	query := fmt.Sprintf(`SELECT NOT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`,
		schema.UserAccount.Table, schema.UserAccount.UsernameKey)

	var unique bool
	if err := repository.pool.QueryRow(context, query, NormalizeUsername(username)).Scan(&unique); err != nil {
		return false, fmt.Errorf("postgres_user_repo_unique_check_failed: %w", err)
	}

	return unique, nil
}

/*
Create inserts the account and its initial memberships in one transaction.

Description: The unique index on usernamekey closes the window between the
service's pre-check and this insert; a violation maps to ErrUsernameTaken.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: ErrUsernameTaken, apperr.NotFound for unknown groups, or database failures
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s, %s`,
		schema.UserAccount.Table,
		schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.UsernameKey,
		schema.UserAccount.PasswordHash, schema.UserAccount.FirstName, schema.UserAccount.LastName,
		schema.UserAccount.Email,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	)

	err := postgres.InTx(context, repository.pool, func(transaction pgx.Tx) error {
		err := transaction.QueryRow(context, query,
			user.ID,
			user.Username,
			NormalizeUsername(user.Username),
			user.PasswordHash,
			user.FirstName,
			user.LastName,
			user.Email,
		).Scan(&user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return err
		}

		return insertMemberships(context, transaction, user.ID, user.PermissionGroupIDs)
	})

	return classifyWriteError(err, "postgres_user_repo_create_failed")
}

/*
Update modifies the profile fields of an existing account.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: apperr.NotFound, ErrUsernameTaken or database failures
*/
func (repository *PostgresUserRepository) Update(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = now()
		WHERE %s = $1
		RETURNING %s`,
		schema.UserAccount.Table,
		schema.UserAccount.Username, schema.UserAccount.UsernameKey, schema.UserAccount.FirstName,
		schema.UserAccount.LastName, schema.UserAccount.Email, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID,
		schema.UserAccount.UpdatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		user.ID,
		user.Username,
		NormalizeUsername(user.Username),
		user.FirstName,
		user.LastName,
		user.Email,
	).Scan(&user.UpdatedAt)

	return classifyWriteError(err, "postgres_user_repo_update_failed")
}

/*
SetPermissionGroups replaces every membership row of the user.

Description: Locks the account row so concurrent replacements serialize, then
deletes and re-inserts the memberships and touches updatedat.

Parameters:
  - context: context.Context
  - userID: string
  - groupIDs: []string

Returns:
  - error: apperr.NotFound for a missing user or group
*/
func (repository *PostgresUserRepository) SetPermissionGroups(context context.Context, userID string, groupIDs []string) error {
	lockQuery := fmt.Sprintf(`UPDATE %s SET %s = now() WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.UpdatedAt, schema.UserAccount.ID)

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.UserAccountPermissionGroup.Table, schema.UserAccountPermissionGroup.AccountID)

	err := postgres.InTx(context, repository.pool, func(transaction pgx.Tx) error {
		tag, err := transaction.Exec(context, lockQuery, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("User")
		}

		if _, err := transaction.Exec(context, deleteQuery, userID); err != nil {
			return err
		}

		return insertMemberships(context, transaction, userID, groupIDs)
	})

	return classifyWriteError(err, "postgres_user_repo_set_groups_failed")
}

// insertMemberships links an account to groups with a single unnest insert.
func insertMemberships(context context.Context, transaction pgx.Tx, userID string, groupIDs []string) error {
	if len(groupIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING`,
		schema.UserAccountPermissionGroup.Table,
		schema.UserAccountPermissionGroup.AccountID, schema.UserAccountPermissionGroup.GroupID,
	)

	_, err := transaction.Exec(context, query, userID, groupIDs)
	return err
}

// classifyWriteError maps constraint violations to client errors.
func classifyWriteError(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case apperr.As(err) != nil:
		return err
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.NotFound("User")
	case dberr.IsUniqueViolation(err):
		return ErrUsernameTaken.WithCause(fmt.Errorf("%s: %w", action, err))
	case dberr.IsForeignKeyViolation(err):
		return apperr.NotFound("Permission group").WithCause(fmt.Errorf("%s: %w", action, err))
	}
	return dberr.Wrap(err, action)
}

/*
List pages through accounts, optionally restricted to members of any of the
given groups.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*User: Accounts on the page
  - int: Total matching accounts
  - error: Query failures
*/
func (repository *PostgresUserRepository) List(context context.Context, filter Filter, limit, offset int) ([]*User, int, error) {
	where := ""
	args := []any{}

	if len(filter.GroupIDs) > 0 {
		where = fmt.Sprintf(`WHERE EXISTS (
		SELECT 1 FROM %s f WHERE f.%s = a.%s AND f.%s = ANY($1::uuid[]))`,
			schema.UserAccountPermissionGroup.Table,
			schema.UserAccountPermissionGroup.AccountID, schema.UserAccount.ID,
			schema.UserAccountPermissionGroup.GroupID,
		)
		args = append(args, filter.GroupIDs)
	}

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s a %s`, schema.UserAccount.Table, where)

	var total int
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_users")
	}

	query := fmt.Sprintf(`%s
	%s
	GROUP BY a.%s
	ORDER BY a.%s ASC
	LIMIT $%d OFFSET $%d`,
		userSelect, where, schema.UserAccount.ID, schema.UserAccount.UsernameKey, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_users")
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, 0, dberr.Wrap(err, "scan_users")
	}

	return users, total, nil
}
