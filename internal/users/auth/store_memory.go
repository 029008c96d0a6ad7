// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
)

// MemoryTokenRepository is an in-process [TokenRepository].
//
// A single mutex serialises every read-modify-write, which is what makes
// rotation a compare-and-swap. Callers always receive copies.
type MemoryTokenRepository struct {
	mu     sync.Mutex
	grants map[string]*Token
	policy ExpiryPolicy
}

// NewMemoryTokenRepository returns an empty grant store.
func NewMemoryTokenRepository(policy ExpiryPolicy) *MemoryTokenRepository {
	return &MemoryTokenRepository{
		grants: make(map[string]*Token),
		policy: policy,
	}
}

// hashesEqual compares two hex digests in constant time.
func hashesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// SaveRefreshToken implements [TokenRepository].
func (repository *MemoryTokenRepository) SaveRefreshToken(_ context.Context, clientID, newToken, username, oldToken string) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	now := repository.policy.now()
	current, exists := repository.grants[clientID]

	if !exists {
		repository.grants[clientID] = &Token{
			ClientID:  clientID,
			TokenHash: sec.HashToken(newToken),
			ExpiresAt: repository.policy.nextExpiry(now),
			Username:  username,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return true, nil
	}

	if oldToken == "" || !hashesEqual(current.TokenHash, sec.HashToken(oldToken)) {
		return false, nil
	}

	current.TokenHash = sec.HashToken(newToken)
	current.ExpiresAt = repository.policy.nextExpiry(now)
	current.Username = username
	current.UpdatedAt = now
	return true, nil
}

// RotateRefreshToken implements [TokenRepository].
func (repository *MemoryTokenRepository) RotateRefreshToken(_ context.Context, clientID, newToken, username, oldToken string) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	now := repository.policy.now()
	current, exists := repository.grants[clientID]
	if !exists || oldToken == "" || current.Expired(now) ||
		!hashesEqual(current.TokenHash, sec.HashToken(oldToken)) {
		return false, nil
	}

	current.TokenHash = sec.HashToken(newToken)
	current.ExpiresAt = repository.policy.nextExpiry(now)
	current.Username = username
	current.UpdatedAt = now
	return true, nil
}

// CheckRefreshToken implements [TokenRepository].
func (repository *MemoryTokenRepository) CheckRefreshToken(_ context.Context, clientID, token string) (*Token, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	current, exists := repository.grants[clientID]
	if !exists ||
		!hashesEqual(current.TokenHash, sec.HashToken(token)) ||
		current.Expired(repository.policy.now()) {
		return nil, apperr.NotFound("Refresh token")
	}

	clone := *current
	return &clone, nil
}

// DeleteClientGrant implements [TokenRepository].
func (repository *MemoryTokenRepository) DeleteClientGrant(_ context.Context, clientID string) (*Token, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	current, exists := repository.grants[clientID]
	if !exists {
		return nil, apperr.NotFound("Client grant")
	}

	delete(repository.grants, clientID)
	return current, nil
}

// DeleteUserGrants implements [TokenRepository].
func (repository *MemoryTokenRepository) DeleteUserGrants(_ context.Context, username string) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var removed int64
	for clientID, grant := range repository.grants {
		if grant.Username == username {
			delete(repository.grants, clientID)
			removed++
		}
	}
	return removed, nil
}

// IssueRefreshToken implements [TokenRepository].
func (repository *MemoryTokenRepository) IssueRefreshToken(_ context.Context, clientID, newToken, username string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	now := repository.policy.now()
	grant := &Token{
		ClientID:  clientID,
		TokenHash: sec.HashToken(newToken),
		ExpiresAt: repository.policy.nextExpiry(now),
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if current, exists := repository.grants[clientID]; exists {
		grant.CreatedAt = current.CreatedAt
	}

	repository.grants[clientID] = grant
	return nil
}

// DeleteExpired implements [TokenRepository].
func (repository *MemoryTokenRepository) DeleteExpired(_ context.Context) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	now := repository.policy.now()
	var removed int64
	for clientID, grant := range repository.grants {
		if grant.Expired(now) {
			delete(repository.grants, clientID)
			removed++
		}
	}
	return removed, nil
}
