// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresQueries(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"find_by_id", findGroupByIDQuery, []string{
			"FROM users.permissiongroup g",
			"LEFT JOIN users.permissiongroupscope s ON s.groupid = g.id",
			"WHERE g.id = $1",
		}},
		{"find_by_ids", findGroupsByIDsQuery, []string{
			"WHERE g.id = ANY($1::uuid[])",
			"ORDER BY g.name ASC",
		}},
		{"scopes_by_group_ids", scopesByGroupIDsQuery, []string{
			"SELECT DISTINCT scope",
			"FROM users.permissiongroupscope",
			"WHERE groupid = ANY($1::uuid[])",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, fragment := range tt.want {
				assert.Contains(t, tt.query, fragment)
			}
			assert.NotContains(t, tt.query, "%!", "every verb has an argument")
		})
	}
}
