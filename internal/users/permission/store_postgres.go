// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permission

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

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed permission group store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var (
	groupTable = schema.UserPermissionGroup
	scopeTable = schema.UserPermissionGroupScope

	// groupSelect aggregates each group's scopes into an ordered int array.
	groupSelect = fmt.Sprintf(`
	SELECT
		g.%s, g.%s, g.%s, g.%s,
		COALESCE(array_agg(s.%s ORDER BY s.%s) FILTER (WHERE s.%s IS NOT NULL), '{}')
	FROM %s g
	LEFT JOIN %s s ON s.%s = g.%s`,
		groupTable.ID, groupTable.Name, groupTable.CreatedAt, groupTable.UpdatedAt,
		scopeTable.Scope, scopeTable.Scope, scopeTable.Scope,
		groupTable.Table, scopeTable.Table, scopeTable.GroupID, groupTable.ID)

	findGroupByIDQuery = groupSelect + fmt.Sprintf(`
	WHERE g.%s = $1
	GROUP BY g.%s`, groupTable.ID, groupTable.ID)

	findGroupsByIDsQuery = groupSelect + fmt.Sprintf(`
	WHERE g.%s = ANY($1::uuid[])
	GROUP BY g.%s
	ORDER BY g.%s ASC`, groupTable.ID, groupTable.ID, groupTable.Name)

	scopesByGroupIDsQuery = fmt.Sprintf(`
		SELECT DISTINCT %s
		FROM %s
		WHERE %s = ANY($1::uuid[])
		ORDER BY %s ASC`, scopeTable.Scope, scopeTable.Table, scopeTable.GroupID, scopeTable.Scope)
)

// scanGroup hydrates a [Group] from a groupSelect row.
func scanGroup(row pgx.Row) (*Group, error) {
	group := &Group{}
	var scopes []int32

	if err := row.Scan(&group.ID, &group.Name, &group.CreatedAt, &group.UpdatedAt, &scopes); err != nil {
		return nil, err
	}

	group.Scopes = make([]sec.Scope, len(scopes))
	for i, scope := range scopes {
		group.Scopes[i] = sec.Scope(scope)
	}

	return group, nil
}

/*
FindByID retrieves a single permission group with its scopes.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Group: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Group, error) {
	group, err := scanGroup(repository.pool.QueryRow(context, findGroupByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Permission group")
		}
		return nil, fmt.Errorf("postgres_permission_repo_find_by_id_failed: %w", err)
	}

	return group, nil
}

/*
FindByIDs retrieves every existing group among ids.

Description: Uses ANY($1) so the lookup is a single round trip regardless of
how many groups are requested.

Parameters:
  - context: context.Context
  - ids: []string

Returns:
  - []*Group: Matching groups ordered by name
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) FindByIDs(context context.Context, ids []string) ([]*Group, error) {
	if len(ids) == 0 {
		return []*Group{}, nil
	}

	rows, err := repository.pool.Query(context, findGroupsByIDsQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres_permission_repo_find_by_ids_failed: %w", err)
	}
	defer rows.Close()

	groups := make([]*Group, 0, len(ids))
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_permission_repo_scan_failed: %w", err)
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_permission_repo_iterate_failed: %w", err)
	}

	return groups, nil
}

/*
ScopesByGroupIDs returns the distinct scopes granted by the given groups.

Parameters:
  - context: context.Context
  - ids: []string

Returns:
  - []sec.Scope: Deduplicated, ascending scopes
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ScopesByGroupIDs(context context.Context, ids []string) ([]sec.Scope, error) {
	if len(ids) == 0 {
		return []sec.Scope{}, nil
	}

	rows, err := repository.pool.Query(context, scopesByGroupIDsQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres_permission_repo_scopes_failed: %w", err)
	}

	scopes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (sec.Scope, error) {
		var scope int32
		err := row.Scan(&scope)
		return sec.Scope(scope), err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres_permission_repo_scopes_scan_failed: %w", err)
	}

	return scopes, nil
}
