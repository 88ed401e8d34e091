package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/herdadmin/config"
)

func TestDisabledCache(t *testing.T) {
	c, err := NewRedisCache(config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	ctx := context.Background()
	var out []string
	assert.ErrorIs(t, c.Get(ctx, GetProductsCacheKey(), &out), ErrDisabled)
	assert.ErrorIs(t, c.Set(ctx, GetProductsCacheKey(), []string{"x"}, 0), ErrDisabled)
	assert.ErrorIs(t, c.Delete(ctx, GetProductsCacheKey()), ErrDisabled)
	assert.NoError(t, c.Close())
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "herd:products", GetProductsCacheKey())
	assert.Equal(t, "herd:referrer:9876543210", GetReferrerCacheKey("9876543210"))
}
