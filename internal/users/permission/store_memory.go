// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permission

import (
	"context"
	"slices"
	"sync"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
)

// MemoryRepository is an in-process [Repository] used by the memory storage
// backend and by tests. Callers always receive copies.
type MemoryRepository struct {
	mu     sync.RWMutex
	groups map[string]*Group
}

// NewMemoryRepository returns a store seeded with groups.
func NewMemoryRepository(groups ...*Group) *MemoryRepository {
	repository := &MemoryRepository{groups: make(map[string]*Group, len(groups))}
	for _, group := range groups {
		repository.Put(group)
	}
	return repository
}

// Put inserts or replaces a group.
func (repository *MemoryRepository) Put(group *Group) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.groups[group.ID] = cloneGroup(group)
}

func cloneGroup(group *Group) *Group {
	clone := *group
	clone.Scopes = slices.Clone(group.Scopes)
	return &clone
}

// FindByID implements [Repository].
func (repository *MemoryRepository) FindByID(_ context.Context, id string) (*Group, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	group, ok := repository.groups[id]
	if !ok {
		return nil, apperr.NotFound("Permission group")
	}
	return cloneGroup(group), nil
}

// FindByIDs implements [Repository].
func (repository *MemoryRepository) FindByIDs(_ context.Context, ids []string) ([]*Group, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	groups := make([]*Group, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		group, ok := repository.groups[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		groups = append(groups, cloneGroup(group))
	}

	slices.SortFunc(groups, func(a, b *Group) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return groups, nil
}

// ScopesByGroupIDs implements [Repository].
func (repository *MemoryRepository) ScopesByGroupIDs(context context.Context, ids []string) ([]sec.Scope, error) {
	groups, err := repository.FindByIDs(context, ids)
	if err != nil {
		return nil, err
	}
	return FlattenScopes(groups), nil
}
