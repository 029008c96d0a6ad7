// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "strconv"

// # Permission Scopes

// Scope is a single permission unit granted through permission group membership.
type Scope int

// String renders the scope as it appears in the "scopes" access token claim.
func (s Scope) String() string {
	return strconv.Itoa(int(s))
}

// ParseScope parses a claim value back into a [Scope].
func ParseScope(value string) (Scope, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return Scope(n), nil
}

// HasScope reports whether the claims grant the target scope.
func (claims *AuthClaims) HasScope(target Scope) bool {
	for _, s := range claims.Scopes {
		if s == target.String() {
			return true
		}
	}
	return false
}
