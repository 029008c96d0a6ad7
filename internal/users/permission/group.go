// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package permission resolves permission groups into the flattened set of scopes
granted to an account.

Groups are read-only in this service: they are seeded by migrations and looked
up by id. A user is granted the union of the scopes of every group it belongs to.
*/
package permission

import (
	"slices"
	"time"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
)

// # Domain Entities

// Group is a named bundle of permission scopes.
type Group struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Scopes    []sec.Scope `json:"scopes"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// FlattenScopes returns the union of the groups' scopes, deduplicated and ascending.
func FlattenScopes(groups []*Group) []sec.Scope {
	seen := make(map[sec.Scope]struct{})
	scopes := make([]sec.Scope, 0)

	for _, group := range groups {
		for _, scope := range group.Scopes {
			if _, ok := seen[scope]; ok {
				continue
			}
			seen[scope] = struct{}{}
			scopes = append(scopes, scope)
		}
	}

	slices.Sort(scopes)
	return scopes
}

// # Field Identifiers

const (
	FieldGroupIDs = "group_ids"
)
