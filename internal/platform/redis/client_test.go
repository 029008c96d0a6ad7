// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		options, err := clientOptions("redis://cache:6379/2")
		require.NoError(t, err)

		assert.Equal(t, "cache:6379", options.Addr)
		assert.Equal(t, 2, options.DB)
		assert.Equal(t, poolSize, options.PoolSize)
		assert.Equal(t, "tournaments-api", options.ClientName)
		assert.True(t, options.ContextTimeoutEnabled)
	})

	t.Run("url_overrides_pool_size", func(t *testing.T) {
		options, err := clientOptions("redis://cache:6379/0?pool_size=32")
		require.NoError(t, err)
		assert.Equal(t, 32, options.PoolSize)
	})

	t.Run("invalid_url", func(t *testing.T) {
		_, err := clientOptions("memcached://cache:11211")
		assert.ErrorContains(t, err, "redis: invalid URL")
	})
}
