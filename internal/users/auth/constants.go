// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// DefaultRefreshTokenMonths is the lifetime of a refresh grant.
	DefaultRefreshTokenMonths = 6

	// TokenTypeBearer is the OAuth token_type of issued access tokens.
	TokenTypeBearer = "Bearer"

	// MaxClientIDLength bounds the client identifier stored as the grant key.
	MaxClientIDLength = 64
)

// ExpiryPolicy computes refresh grant expiry and supplies the store clock.
type ExpiryPolicy struct {
	Months int
	Now    func() time.Time
}

// NewExpiryPolicy returns a policy on the wall clock.
func NewExpiryPolicy(months int) ExpiryPolicy {
	if months < 1 {
		months = DefaultRefreshTokenMonths
	}
	return ExpiryPolicy{Months: months, Now: time.Now}
}

func (policy ExpiryPolicy) now() time.Time {
	if policy.Now == nil {
		return time.Now().UTC()
	}
	return policy.Now().UTC()
}

// nextExpiry is the expiry of a grant issued or rotated at now.
func (policy ExpiryPolicy) nextExpiry(now time.Time) time.Time {
	return now.AddDate(0, policy.Months, 0)
}
