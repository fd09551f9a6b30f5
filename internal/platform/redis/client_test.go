package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenance/internal/platform/config"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without url", func(t *testing.T) {
		client, err := New(ctx, config.RedisConfig{})
		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("ready against a live server", func(t *testing.T) {
		server := miniredis.RunT(t)
		client, err := New(ctx, config.RedisConfig{URL: "redis://" + server.Addr() + "/0", PoolSize: 2})
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })
		assert.NoError(t, client.Health(ctx))

		server.Close()
		assert.Error(t, client.Health(ctx))
	})

	t.Run("unreachable server", func(t *testing.T) {
		server := miniredis.RunT(t)
		addr := server.Addr()
		server.Close()
		_, err := New(ctx, config.RedisConfig{URL: "redis://" + addr, DialTimeout: 100 * time.Millisecond})
		assert.ErrorContains(t, err, "unreachable")
	})

	t.Run("malformed url", func(t *testing.T) {
		_, err := New(ctx, config.RedisConfig{URL: "://nope"})
		assert.ErrorContains(t, err, "parse redis URL")
	})
}

func TestOptionsKeepDefaultsForUnsetFields(t *testing.T) {
	opts, err := options(config.RedisConfig{URL: "redis://cache:6380/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Zero(t, opts.MinIdleConns)
	assert.Zero(t, opts.DialTimeout)
}
