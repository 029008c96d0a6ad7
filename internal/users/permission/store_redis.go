// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/constants"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
)

// CachedRepository decorates a [Repository] with a Redis read-through cache of
// per-group scope lists. Groups are immutable here, so entries only expire by TTL.
//
// Cache failures are logged and fall through to the wrapped repository.
type CachedRepository struct {
	Repository

	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRepository wraps next with a scope cache.
func NewCachedRepository(next Repository, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	return &CachedRepository{
		Repository: next,
		client:     client,
		ttl:        ttl,
		logger:     logger,
	}
}

func groupScopesKey(groupID string) string {
	return constants.RedisPrefixGroupScopes + groupID
}

/*
ScopesByGroupIDs resolves scopes from the cache, loading misses from the
wrapped repository in one batch.

Parameters:
  - context: context.Context
  - ids: []string

Returns:
  - []sec.Scope: Deduplicated, ascending scopes
  - error: Failures from the wrapped repository
*/
func (repository *CachedRepository) ScopesByGroupIDs(context context.Context, ids []string) ([]sec.Scope, error) {
	if len(ids) == 0 {
		return []sec.Scope{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = groupScopesKey(id)
	}

	cached, err := repository.client.MGet(context, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		repository.logger.Warn("permission_cache_read_failed", slog.Any("error", err))
		return repository.Repository.ScopesByGroupIDs(context, ids)
	}

	groups := make([]*Group, 0, len(ids))
	misses := make([]string, 0)

	for i, id := range ids {
		var raw string
		if i < len(cached) {
			raw, _ = cached[i].(string)
		}
		if raw == "" {
			misses = append(misses, id)
			continue
		}

		var scopes []sec.Scope
		if err := json.Unmarshal([]byte(raw), &scopes); err != nil {
			misses = append(misses, id)
			continue
		}
		groups = append(groups, &Group{ID: id, Scopes: scopes})
	}

	if len(misses) > 0 {
		loaded, err := repository.Repository.FindByIDs(context, misses)
		if err != nil {
			return nil, fmt.Errorf("permission_cache_load_failed: %w", err)
		}
		repository.store(context, loaded)
		groups = append(groups, loaded...)
	}

	return FlattenScopes(groups), nil
}

// store writes loaded groups back to the cache in a single pipeline.
func (repository *CachedRepository) store(context context.Context, groups []*Group) {
	if len(groups) == 0 {
		return
	}

	_, err := repository.client.Pipelined(context, func(pipe redis.Pipeliner) error {
		for _, group := range groups {
			scopes := slices.Clone(group.Scopes)
			if scopes == nil {
				scopes = []sec.Scope{}
			}
			payload, err := json.Marshal(scopes)
			if err != nil {
				return err
			}
			pipe.Set(context, groupScopesKey(group.ID), payload, repository.ttl)
		}
		return nil
	})
	if err != nil {
		repository.logger.Warn("permission_cache_write_failed", slog.Any("error", err))
	}
}
