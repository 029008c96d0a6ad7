// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/constants"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
)

// RedisTokenRepository implements [TokenRepository] with one hash per client.
//
// Each key carries a PEXPIREAT at the grant's expiry, so Redis reaps expired
// grants on its own. Rotation runs as a Lua script, which Redis executes
// atomically.
type RedisTokenRepository struct {
	client redis.Cmdable
	policy ExpiryPolicy
}

// NewRedisTokenRepository creates a new Redis-backed refresh grant store.
func NewRedisTokenRepository(client redis.Cmdable, policy ExpiryPolicy) *RedisTokenRepository {
	return &RedisTokenRepository{client: client, policy: policy}
}

// Hash fields of a grant. Instants are unix milliseconds.
const (
	fieldTokenHash = "tokenhash"
	fieldUsername  = "username"
	fieldExpiresAt = "expiresat"
	fieldCreatedAt = "createdat"
	fieldUpdatedAt = "updatedat"
)

// saveScript: KEYS[1] grant key; ARGV old hash ("" for none), new hash,
// username, expiry ms, now ms. Returns 1 when the grant holds the new hash.
var saveScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'tokenhash')
if not current then
	redis.call('HSET', KEYS[1], 'tokenhash', ARGV[2], 'username', ARGV[3], 'expiresat', ARGV[4], 'createdat', ARGV[5], 'updatedat', ARGV[5])
	redis.call('PEXPIREAT', KEYS[1], ARGV[4])
	return 1
end
if ARGV[1] == '' or current ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'tokenhash', ARGV[2], 'username', ARGV[3], 'expiresat', ARGV[4], 'updatedat', ARGV[5])
redis.call('PEXPIREAT', KEYS[1], ARGV[4])
return 1
`)

// rotateScript: same arguments as saveScript, but an absent grant is never
// created. Returns 1 when the grant holds the new hash.
var rotateScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'tokenhash')
if not current or ARGV[1] == '' or current ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'tokenhash', ARGV[2], 'username', ARGV[3], 'expiresat', ARGV[4], 'updatedat', ARGV[5])
redis.call('PEXPIREAT', KEYS[1], ARGV[4])
return 1
`)

// deleteIfOwnerScript: KEYS[1] grant key; ARGV[1] username. Deletes the grant
// only while it still belongs to that username and returns the deleted count.
var deleteIfOwnerScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'username') == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// scanBatch is the COUNT hint for SCAN over grant keys.
const scanBatch = 200

func grantKey(clientID string) string {
	return constants.RedisPrefixRefreshGrant + clientID
}

func parseMillis(value string) time.Time {
	millis, _ := strconv.ParseInt(value, 10, 64)
	return time.UnixMilli(millis).UTC()
}

// decodeGrant maps an HGETALL result onto a [Token]. Empty means absent.
func decodeGrant(clientID string, fields map[string]string) (*Token, bool) {
	if len(fields) == 0 || fields[fieldTokenHash] == "" {
		return nil, false
	}
	return &Token{
		ClientID:  clientID,
		TokenHash: fields[fieldTokenHash],
		Username:  fields[fieldUsername],
		ExpiresAt: parseMillis(fields[fieldExpiresAt]),
		CreatedAt: parseMillis(fields[fieldCreatedAt]),
		UpdatedAt: parseMillis(fields[fieldUpdatedAt]),
	}, true
}

/*
SaveRefreshToken creates or rotates the grant inside a single script call.

Parameters:
  - context: context.Context
  - clientID: string
  - newToken: string
  - username: string
  - oldToken: string ("" for none)

Returns:
  - bool: true if the grant now holds newToken
  - error: Connectivity failures
*/
func (repository *RedisTokenRepository) SaveRefreshToken(context context.Context, clientID, newToken, username, oldToken string) (bool, error) {
	now := repository.policy.now()

	oldHash := ""
	if oldToken != "" {
		oldHash = sec.HashToken(oldToken)
	}

	result, err := saveScript.Run(context, repository.client, []string{grantKey(clientID)},
		oldHash,
		sec.HashToken(newToken),
		username,
		repository.policy.nextExpiry(now).UnixMilli(),
		now.UnixMilli(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis_token_save_failed: %w", err)
	}

	return result == 1, nil
}

/*
RotateRefreshToken swaps the digest on an existing grant inside one script call.

Parameters:
  - context: context.Context
  - clientID: string
  - newToken: string
  - username: string
  - oldToken: string

Returns:
  - bool: true if the grant held oldToken and now holds newToken
  - error: Connectivity failures
*/
func (repository *RedisTokenRepository) RotateRefreshToken(context context.Context, clientID, newToken, username, oldToken string) (bool, error) {
	if oldToken == "" {
		return false, nil
	}

	now := repository.policy.now()
	result, err := rotateScript.Run(context, repository.client, []string{grantKey(clientID)},
		sec.HashToken(oldToken),
		sec.HashToken(newToken),
		username,
		repository.policy.nextExpiry(now).UnixMilli(),
		now.UnixMilli(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis_token_rotate_failed: %w", err)
	}

	return result == 1, nil
}

/*
CheckRefreshToken returns the grant if the digest matches and it is unexpired.

Parameters:
  - context: context.Context
  - clientID: string
  - token: string

Returns:
  - *Token: Live grant
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisTokenRepository) CheckRefreshToken(context context.Context, clientID, token string) (*Token, error) {
	fields, err := repository.client.HGetAll(context, grantKey(clientID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis_token_check_failed: %w", err)
	}

	grant, ok := decodeGrant(clientID, fields)
	if !ok || !hashesEqual(grant.TokenHash, sec.HashToken(token)) || grant.Expired(repository.policy.now()) {
		return nil, apperr.NotFound("Refresh token")
	}

	return grant, nil
}

/*
DeleteClientGrant reads and deletes the grant in one MULTI/EXEC transaction.

Parameters:
  - context: context.Context
  - clientID: string

Returns:
  - *Token: Removed grant
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisTokenRepository) DeleteClientGrant(context context.Context, clientID string) (*Token, error) {
	key := grantKey(clientID)

	var read *redis.MapStringStringCmd
	_, err := repository.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		read = pipe.HGetAll(context, key)
		pipe.Del(context, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis_token_delete_failed: %w", err)
	}

	grant, ok := decodeGrant(clientID, read.Val())
	if !ok {
		return nil, apperr.NotFound("Client grant")
	}

	return grant, nil
}

/*
IssueRefreshToken overwrites the grant, keeping its original creation time.

Parameters:
  - context: context.Context
  - clientID: string
  - newToken: string
  - username: string

Returns:
  - error: Connectivity failures
*/
func (repository *RedisTokenRepository) IssueRefreshToken(context context.Context, clientID, newToken, username string) error {
	key := grantKey(clientID)
	now := repository.policy.now()
	expiresAt := repository.policy.nextExpiry(now)

	_, err := repository.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(context, key, fieldCreatedAt, now.UnixMilli())
		pipe.HSet(context, key,
			fieldTokenHash, sec.HashToken(newToken),
			fieldUsername, username,
			fieldExpiresAt, expiresAt.UnixMilli(),
			fieldUpdatedAt, now.UnixMilli(),
		)
		pipe.PExpireAt(context, key, expiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_token_issue_failed: %w", err)
	}

	return nil
}

/*
DeleteUserGrants scans every grant key and deletes those owned by username.

Description: Grants are keyed by client, so this walks the keyspace with
SCAN. Each delete re-checks the owner atomically, so a grant re-issued to
another account in the meantime survives.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - int64: Number of removed grants
  - error: Connectivity failures
*/
func (repository *RedisTokenRepository) DeleteUserGrants(context context.Context, username string) (int64, error) {
	var removed int64

	iterator := repository.client.Scan(context, 0, constants.RedisPrefixRefreshGrant+"*", scanBatch).Iterator()
	for iterator.Next(context) {
		deleted, err := deleteIfOwnerScript.Run(context, repository.client, []string{iterator.Val()}, username).Int64()
		if err != nil {
			return removed, fmt.Errorf("redis_token_delete_user_failed: %w", err)
		}
		removed += deleted
	}
	if err := iterator.Err(); err != nil {
		return removed, fmt.Errorf("redis_token_scan_failed: %w", err)
	}

	return removed, nil
}

// DeleteExpired is a no-op: key expiry already removed every expired grant.
func (repository *RedisTokenRepository) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}
