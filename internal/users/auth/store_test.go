// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
	"github.com/TimGrootscholten/tournaments-server/internal/users/auth"
)

// fakeClock is a settable time source shared by a store and its test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) Set(now time.Time) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = now
}

// storeFactory builds a fresh repository bound to the given policy.
type storeFactory func(t *testing.T, policy auth.ExpiryPolicy) auth.TokenRepository

// runTokenRepositoryContract exercises the rotation state machine against any backend.
//
// reapsExplicitly is false for stores whose backend expires grants by itself.
func runTokenRepositoryContract(t *testing.T, newStore storeFactory, reapsExplicitly bool) {
	ctx := context.Background()

	setup := func(t *testing.T) (auth.TokenRepository, *fakeClock, string) {
		clock := newFakeClock()
		store := newStore(t, auth.ExpiryPolicy{Months: 6, Now: clock.Now})
		return store, clock, "client-" + uuid.NewString()
	}

	t.Run("creates_grant_when_absent", func(t *testing.T) {
		store, _, client := setup(t)

		ok, err := store.SaveRefreshToken(ctx, client, "T1", "alice", "")
		require.NoError(t, err)
		assert.True(t, ok)

		grant, err := store.CheckRefreshToken(ctx, client, "T1")
		require.NoError(t, err)
		assert.Equal(t, client, grant.ClientID)
		assert.Equal(t, "alice", grant.Username)
		assert.Equal(t, sec.HashToken("T1"), grant.TokenHash)
	})

	t.Run("stale_old_token_on_absent_grant_still_creates", func(t *testing.T) {
		store, _, client := setup(t)

		ok, err := store.SaveRefreshToken(ctx, client, "T1", "alice", "never-issued")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rotation_and_replay", func(t *testing.T) {
		store, _, client := setup(t)

		_, err := store.SaveRefreshToken(ctx, client, "T1", "alice", "")
		require.NoError(t, err)

		ok, err := store.SaveRefreshToken(ctx, client, "T2", "alice", "T1")
		require.NoError(t, err)
		assert.True(t, ok, "rotation from the current token succeeds")

		_, err = store.CheckRefreshToken(ctx, client, "T2")
		assert.NoError(t, err)

		_, err = store.CheckRefreshToken(ctx, client, "T1")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound), "rotated-out token is dead")

		ok, err = store.SaveRefreshToken(ctx, client, "T3", "alice", "T1")
		require.NoError(t, err)
		assert.False(t, ok, "replaying a stale token is rejected")

		_, err = store.CheckRefreshToken(ctx, client, "T2")
		assert.NoError(t, err, "a rejected replay leaves the current grant intact")
	})

	t.Run("empty_old_token_never_rotates", func(t *testing.T) {
		store, _, client := setup(t)

		_, err := store.SaveRefreshToken(ctx, client, "T1", "alice", "")
		require.NoError(t, err)

		ok, err := store.SaveRefreshToken(ctx, client, "T2", "alice", "")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = store.CheckRefreshToken(ctx, client, "T1")
		assert.NoError(t, err)
	})

	t.Run("rotation_extends_expiry", func(t *testing.T) {
		store, clock, client := setup(t)

		_, err := store.SaveRefreshToken(ctx, client, "T1", "alice", "")
		require.NoError(t, err)
		issued := clock.Now()

		clock.Set(issued.AddDate(0, 5, 0))
		ok, err := store.SaveRefreshToken(ctx, client, "T2", "alice", "T1")
		require.NoError(t, err)
		require.True(t, ok)

		clock.Set(issued.AddDate(0, 7, 0))
		grant, err := store.CheckRefreshToken(ctx, client, "T2")
		require.NoError(t, err)
		assert.True(t, grant.ExpiresAt.Equal(issued.AddDate(0, 11, 0)))
	})

	t.Run("expired_grant_fails_check", func(t *testing.T) {
		store, clock, client := setup(t)

		_, err := store.SaveRefreshToken(ctx, client, "T1", "alice", "")
		require.NoError(t, err)
		issued := clock.Now()

		clock.Set(issued.AddDate(0, 6, 0).Add(-time.Second))
		_, err = store.CheckRefreshToken(ctx, client, "T1")
		assert.NoError(t, err, "one second before expiry")

		clock.Set(issued.AddDate(0, 6, 0))
		_, err = store.CheckRefreshToken(ctx, client, "T1")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound), "at expiry")

		if reapsExplicitly {
			removed, err := store.DeleteExpired(ctx)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, removed, int64(1))

			_, err = store.DeleteClientGrant(ctx, client)
			assert.True(t, apperr.HasCode(err, apperr.CodeNotFound), "reaped grant is gone")
		}
	})

	t.Run("rotate_swaps_current_token", func(t *testing.T) {
		store, _, client := setup(t)

		_, err := store.SaveRefreshToken(ctx, client, "T1", "alice", "")
		require.NoError(t, err)

		ok, err := store.RotateRefreshToken(ctx, client, "T2", "alice", "T1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.RotateRefreshToken(ctx, client, "T3", "alice", "T1")
		require.NoError(t, err)
		assert.False(t, ok, "replaying a stale token is rejected")

		_, err = store.CheckRefreshToken(ctx, client, "T2")
		assert.NoError(t, err)
	})

	t.Run("rotate_never_creates_grant", func(t *testing.T) {
		store, _, client := setup(t)

		ok, err := store.RotateRefreshToken(ctx, client, "T1", "alice", "never-issued")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = store.CheckRefreshToken(ctx, client, "T1")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})

	t.Run("rotate_after_delete_keeps_grant_deleted", func(t *testing.T) {
		store, _, client := setup(t)
		owner := "user-" + uuid.NewString()

		_, err := store.SaveRefreshToken(ctx, client, "T1", owner, "")
		require.NoError(t, err)
		_, err = store.DeleteUserGrants(ctx, owner)
		require.NoError(t, err)

		ok, err := store.RotateRefreshToken(ctx, client, "T2", owner, "T1")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = store.CheckRefreshToken(ctx, client, "T2")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound), "a revoked grant stays revoked")
	})

	if reapsExplicitly {
		t.Run("rotate_rejects_expired_grant", func(t *testing.T) {
			store, clock, client := setup(t)

			_, err := store.SaveRefreshToken(ctx, client, "T1", "alice", "")
			require.NoError(t, err)
			clock.Set(clock.Now().AddDate(0, 6, 0))

			ok, err := store.RotateRefreshToken(ctx, client, "T2", "alice", "T1")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	t.Run("delete_client_grant", func(t *testing.T) {
		store, _, client := setup(t)

		_, err := store.SaveRefreshToken(ctx, client, "T1", "alice", "")
		require.NoError(t, err)

		grant, err := store.DeleteClientGrant(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, "alice", grant.Username)

		_, err = store.CheckRefreshToken(ctx, client, "T1")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

		_, err = store.DeleteClientGrant(ctx, client)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

		ok, err := store.SaveRefreshToken(ctx, client, "T2", "alice", "")
		require.NoError(t, err)
		assert.True(t, ok, "a deleted client starts over")
	})

	t.Run("delete_user_grants", func(t *testing.T) {
		store, _, client := setup(t)
		other := client + "-other"
		owner := "user-" + uuid.NewString()

		require.NoError(t, store.IssueRefreshToken(ctx, client, "T1", owner))
		require.NoError(t, store.IssueRefreshToken(ctx, other, "T2", owner+"-x"))

		removed, err := store.DeleteUserGrants(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		_, err = store.CheckRefreshToken(ctx, client, "T1")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
		_, err = store.CheckRefreshToken(ctx, other, "T2")
		assert.NoError(t, err)
	})

	t.Run("issue_overwrites_grant", func(t *testing.T) {
		store, _, client := setup(t)

		require.NoError(t, store.IssueRefreshToken(ctx, client, "T1", "alice"))
		require.NoError(t, store.IssueRefreshToken(ctx, client, "T2", "alice"))

		_, err := store.CheckRefreshToken(ctx, client, "T1")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

		_, err = store.CheckRefreshToken(ctx, client, "T2")
		assert.NoError(t, err)
	})

	t.Run("concurrent_rotation_has_one_winner", func(t *testing.T) {
		store, _, client := setup(t)

		_, err := store.SaveRefreshToken(ctx, client, "T0", "alice", "")
		require.NoError(t, err)

		const contenders = 16
		var winners atomic.Int32
		var wg sync.WaitGroup

		for i := range contenders {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := store.SaveRefreshToken(ctx, client, "next-"+uuid.NewString(), "alice", "T0")
				assert.NoError(t, err, "contender %d", i)
				if ok {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), winners.Load())
	})
}

func TestMemoryTokenRepository(t *testing.T) {
	runTokenRepositoryContract(t, func(t *testing.T, policy auth.ExpiryPolicy) auth.TokenRepository {
		return auth.NewMemoryTokenRepository(policy)
	}, true)
}

func TestExpiryPolicy_DefaultsToSixMonths(t *testing.T) {
	policy := auth.NewExpiryPolicy(0)
	assert.Equal(t, auth.DefaultRefreshTokenMonths, policy.Months)
}
