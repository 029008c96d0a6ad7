// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/users/permission"
)

// GroupChecker reports whether a permission group exists. The memory store
// uses it to mirror the foreign key on memberships.
type GroupChecker interface {
	FindByIDs(context context.Context, ids []string) ([]*permission.Group, error)
}

// MemoryUserRepository is an in-process [UserRepository] for the memory
// storage backend and tests. Callers always receive copies.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	byID   map[string]*User
	byKey  map[string]string
	groups GroupChecker
	now    func() time.Time
}

// NewMemoryUserRepository returns an empty store. groups may be nil to skip
// membership checks.
func NewMemoryUserRepository(groups GroupChecker) *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:   make(map[string]*User),
		byKey:  make(map[string]string),
		groups: groups,
		now:    time.Now,
	}
}

func cloneUser(user *User) *User {
	clone := *user
	clone.PermissionGroupIDs = slices.Clone(user.PermissionGroupIDs)
	if clone.PermissionGroupIDs == nil {
		clone.PermissionGroupIDs = []string{}
	}
	return &clone
}

// FindByUsername implements [UserRepository].
func (repository *MemoryUserRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	id, ok := repository.byKey[NormalizeUsername(username)]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return cloneUser(repository.byID[id]), nil
}

// FindByID implements [UserRepository].
func (repository *MemoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	user, ok := repository.byID[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return cloneUser(user), nil
}

// IsUsernameUnique implements [UserRepository].
func (repository *MemoryUserRepository) IsUsernameUnique(_ context.Context, username string) (bool, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	_, taken := repository.byKey[NormalizeUsername(username)]
	return !taken, nil
}

// Create implements [UserRepository].
func (repository *MemoryUserRepository) Create(context context.Context, user *User) error {
	if err := repository.checkGroups(context, user.PermissionGroupIDs); err != nil {
		return err
	}

	repository.mu.Lock()
	defer repository.mu.Unlock()

	key := NormalizeUsername(user.Username)
	if _, taken := repository.byKey[key]; taken {
		return ErrUsernameTaken
	}
	if _, exists := repository.byID[user.ID]; exists {
		return apperr.Conflict("User already exists")
	}

	now := repository.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	repository.byID[user.ID] = cloneUser(user)
	repository.byKey[key] = user.ID
	return nil
}

// Update implements [UserRepository].
func (repository *MemoryUserRepository) Update(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.byID[user.ID]
	if !ok {
		return apperr.NotFound("User")
	}

	oldKey := NormalizeUsername(stored.Username)
	newKey := NormalizeUsername(user.Username)
	if newKey != oldKey {
		if _, taken := repository.byKey[newKey]; taken {
			return ErrUsernameTaken
		}
		delete(repository.byKey, oldKey)
		repository.byKey[newKey] = user.ID
	}

	stored.Username = user.Username
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Email = user.Email
	stored.UpdatedAt = repository.now().UTC()

	user.UpdatedAt = stored.UpdatedAt
	return nil
}

// SetPermissionGroups implements [UserRepository].
func (repository *MemoryUserRepository) SetPermissionGroups(context context.Context, userID string, groupIDs []string) error {
	if err := repository.checkGroups(context, groupIDs); err != nil {
		return err
	}

	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}

	ids := slices.Clone(groupIDs)
	slices.Sort(ids)
	stored.PermissionGroupIDs = slices.Compact(ids)
	stored.UpdatedAt = repository.now().UTC()
	return nil
}

func (repository *MemoryUserRepository) checkGroups(context context.Context, groupIDs []string) error {
	if repository.groups == nil || len(groupIDs) == 0 {
		return nil
	}

	groups, err := repository.groups.FindByIDs(context, groupIDs)
	if err != nil {
		return err
	}

	found := make(map[string]bool, len(groups))
	for _, group := range groups {
		found[group.ID] = true
	}
	for _, id := range groupIDs {
		if !found[id] {
			return apperr.NotFound("Permission group")
		}
	}
	return nil
}

// List implements [UserRepository].
func (repository *MemoryUserRepository) List(_ context.Context, filter Filter, limit, offset int) ([]*User, int, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	keys := make([]string, 0, len(repository.byKey))
	for key := range repository.byKey {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	matched := make([]*User, 0, len(keys))
	for _, key := range keys {
		user := repository.byID[repository.byKey[key]]
		if len(filter.GroupIDs) > 0 && !slices.ContainsFunc(user.PermissionGroupIDs, func(id string) bool {
			return slices.Contains(filter.GroupIDs, id)
		}) {
			continue
		}
		matched = append(matched, user)
	}

	total := len(matched)
	start := min(offset, total)
	end := min(start+limit, total)

	page := make([]*User, 0, end-start)
	for _, user := range matched[start:end] {
		page = append(page, cloneUser(user))
	}

	return page, total, nil
}
