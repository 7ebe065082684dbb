package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T, opts ...MemoryOption) (*MemoryCache, *time.Time) {
	t.Helper()
	mc := NewMemoryCache(opts...)
	t.Cleanup(func() { _ = mc.Close() })
	now := time.Date(2024, 11, 27, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }
	return mc, &now
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestMemory(t)

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), time.Second))
	got, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	*now = now.Add(2 * time.Second)
	_, err = mc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Zero(t, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestMemory(t, WithMemoryMaxSize(2))

	require.NoError(t, mc.Set(ctx, "a", []byte("1"), time.Minute))
	*now = now.Add(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", []byte("2"), time.Minute))
	*now = now.Add(time.Millisecond)
	_, err := mc.Get(ctx, "a")
	require.NoError(t, err)
	*now = now.Add(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "c", []byte("3"), time.Minute))

	_, err = mc.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = mc.Get(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, 2, mc.Len())
}

func TestMemoryCacheCopiesValue(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t)
	buf := []byte("abc")
	require.NoError(t, mc.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'x'

	got, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t)
	type payload struct {
		TS    int64   `json:"ts"`
		Close float64 `json:"close"`
	}

	require.NoError(t, SetJSON(ctx, mc, Key("latest", "binance", "BTCUSDT", "1h"), payload{TS: 1, Close: 2.5}, time.Minute))
	got, err := GetJSON[payload](ctx, mc, "latest:binance:BTCUSDT:1h")
	require.NoError(t, err)
	assert.Equal(t, payload{TS: 1, Close: 2.5}, got)

	require.NoError(t, mc.Set(ctx, "garbage", []byte("{"), time.Minute))
	_, err = GetJSON[payload](ctx, mc, "garbage")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheWrapsKeys(t *testing.T) {
	c := &RedisCache{prefix: "barpull:"}
	assert.Equal(t, "barpull:latest:x", c.wrapKey("latest:x"))
	assert.Equal(t, []string{"barpull:a", "barpull:b"}, c.wrapKeys("a", "b"))
}

func TestRedisCacheSurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	c := &RedisCache{client: client, prefix: "t:"}
	defer c.Close()

	_, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
