// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permission

import (
	"context"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
)

// # Permission Group Data Access

// Repository defines the read-only data access contract for permission groups.
type Repository interface {

	/*
		FindByID returns the group with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Group: Hydrated entity including its scopes
		  - error: apperr.NotFound if missing
	*/
	FindByID(context context.Context, id string) (*Group, error)

	/*
		FindByIDs returns every existing group among ids. Unknown ids are skipped.

		Parameters:
		  - context: context.Context
		  - ids: []string

		Returns:
		  - []*Group: Matching groups
		  - error: Database retrieval failures
	*/
	FindByIDs(context context.Context, ids []string) ([]*Group, error)

	/*
		ScopesByGroupIDs returns the union of scopes granted by the given groups.

		Parameters:
		  - context: context.Context
		  - ids: []string

		Returns:
		  - []sec.Scope: Deduplicated scopes in ascending order
		  - error: Database retrieval failures
	*/
	ScopesByGroupIDs(context context.Context, ids []string) ([]sec.Scope, error)
}
