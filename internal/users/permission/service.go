// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
)

// # Service Layer

// Resolver maps permission group references to the scopes they grant.
type Resolver struct {
	repository Repository
	logger     *slog.Logger
}

// NewResolver constructs a new [Resolver].
func NewResolver(repository Repository, logger *slog.Logger) *Resolver {
	return &Resolver{repository: repository, logger: logger}
}

/*
GetPermissionGroupByID retrieves a single group.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Group: The group with its scopes
  - error: apperr.NotFound if the group does not exist
*/
func (resolver *Resolver) GetPermissionGroupByID(context context.Context, id string) (*Group, error) {
	group, err := resolver.repository.FindByID(context, id)
	if err != nil {
		return nil, fmt.Errorf("permission_resolver_get_group_failed: %w", err)
	}
	return group, nil
}

/*
GetPermissionGroupsByIDs retrieves every group in ids.

Description: Duplicate ids collapse. Any id that does not resolve to a group
fails the whole call with NOT_FOUND, so callers never persist dangling
memberships.

Parameters:
  - context: context.Context
  - ids: []string

Returns:
  - []*Group: Resolved groups
  - error: apperr.NotFound naming the first unknown id
*/
func (resolver *Resolver) GetPermissionGroupsByIDs(context context.Context, ids []string) ([]*Group, error) {
	groups, err := resolver.repository.FindByIDs(context, ids)
	if err != nil {
		return nil, fmt.Errorf("permission_resolver_get_groups_failed: %w", err)
	}

	found := make(map[string]bool, len(groups))
	for _, group := range groups {
		found[group.ID] = true
	}

	for _, id := range ids {
		if !found[id] {
			return nil, apperr.NotFound(fmt.Sprintf("Permission group %s", id))
		}
	}

	return groups, nil
}

/*
GetPermissionsByGroupIDs flattens the scopes granted by the given groups.

Description: An empty id set yields an empty scope set, never an error.

Parameters:
  - context: context.Context
  - ids: []string

Returns:
  - []sec.Scope: Deduplicated, ascending scopes
  - error: Storage failures
*/
func (resolver *Resolver) GetPermissionsByGroupIDs(context context.Context, ids []string) ([]sec.Scope, error) {
	if len(ids) == 0 {
		return []sec.Scope{}, nil
	}

	scopes, err := resolver.repository.ScopesByGroupIDs(context, ids)
	if err != nil {
		return nil, fmt.Errorf("permission_resolver_scopes_failed: %w", err)
	}
	return scopes, nil
}

// EnsureGroupExists fails unless the group is present. Used at startup for the default group.
func (resolver *Resolver) EnsureGroupExists(context context.Context, id string) error {
	group, err := resolver.repository.FindByID(context, id)
	if err != nil {
		return fmt.Errorf("permission_resolver_default_group_missing: %w", err)
	}

	resolver.logger.Info("default_permission_group_resolved",
		slog.String("group_id", group.ID),
		slog.String("group_name", group.Name),
	)
	return nil
}
