// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateRefreshToken returns a new opaque refresh token (a random 128-bit UUIDv4).
func GenerateRefreshToken() string {
	return uuid.NewString()
}

// HashToken returns the hex SHA-256 digest of an opaque token.
//
// Refresh tokens are only ever persisted in this form.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenFingerprint returns a short, log-safe prefix of a token digest.
func TokenFingerprint(token string) string {
	return HashToken(token)[:12]
}
