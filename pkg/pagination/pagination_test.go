// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TimGrootscholten/tournaments-server/pkg/pagination"
)

func TestFromQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want pagination.Params
	}{
		{"", pagination.Params{Page: 1, Limit: 20}},
		{"page=3&limit=10", pagination.Params{Page: 3, Limit: 10}},
		{"page=-1&limit=1000", pagination.Params{Page: 1, Limit: 20}},
		{"page=two&limit=", pagination.Params{Page: 1, Limit: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			values, err := url.ParseQuery(tt.raw)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, pagination.FromQuery(values))
		})
	}
}

func TestMeta(t *testing.T) {
	params := pagination.Params{Page: 2, Limit: 10}

	assert.Equal(t, 10, params.Offset())
	assert.Equal(t, pagination.Meta{Page: 2, Limit: 10, Total: 21, TotalPages: 3}, pagination.NewMeta(params, 21))
	assert.Equal(t, 0, pagination.NewMeta(params, 0).TotalPages)
}
