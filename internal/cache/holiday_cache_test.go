package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/vendacerta/backend-go/internal/config"
	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

func newTestRedisCache(t *testing.T) (HolidayCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisHolidayCache(client, time.Hour), mr
}

func TestRedisHolidayCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	_, ok, err := c.GetYear(ctx, 2024)
	require.NoError(t, err)
	assert.False(t, ok)

	holidays := []domain.Holiday{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Name: "Confraternização mundial", Type: "national"},
		{Date: time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), Name: "Natal", Type: "national"},
	}
	require.NoError(t, c.SetYear(ctx, 2024, holidays))

	got, ok, err := c.GetYear(ctx, 2024)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, holidays, got)

	ttl := mr.TTL("calendar:holidays:2024")
	assert.Equal(t, time.Hour, ttl)
}

func TestRedisHolidayCache_EmptyYearIsAHit(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedisCache(t)

	require.NoError(t, c.SetYear(ctx, 2030, nil))

	got, ok, err := c.GetYear(ctx, 2030)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestRedisHolidayCache_Expires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	require.NoError(t, c.SetYear(ctx, 2024, []domain.Holiday{{Date: time.Date(2024, 4, 21, 0, 0, 0, 0, time.UTC), Name: "Tiradentes"}}))
	mr.FastForward(2 * time.Hour)

	_, ok, err := c.GetYear(ctx, 2024)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisHolidayCache_InvalidateAll(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	require.NoError(t, c.SetYear(ctx, 2023, nil))
	require.NoError(t, c.SetYear(ctx, 2024, nil))
	require.NoError(t, mr.Set("unrelated", "x"))

	removed, err := c.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.False(t, mr.Exists("calendar:holidays:2023"))
	assert.False(t, mr.Exists("calendar:holidays:2024"))
	assert.True(t, mr.Exists("unrelated"))
}

func TestRedisHolidayCache_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	require.NoError(t, mr.Set("calendar:holidays:2024", "not-json"))

	_, ok, err := c.GetYear(ctx, 2024)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewHolidayCache_DisabledIsNoop(t *testing.T) {
	c, err := NewHolidayCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.SetYear(ctx, 2024, []domain.Holiday{{Name: "x"}}))
	_, ok, err := c.GetYear(ctx, 2024)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewHolidayCache_EnabledConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewHolidayCache(config.CacheConfig{Enabled: true, RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)

	require.NoError(t, c.SetYear(context.Background(), 2025, nil))
	assert.True(t, mr.Exists("calendar:holidays:2025"))
	assert.Equal(t, defaultHolidayTTL, mr.TTL("calendar:holidays:2025"))
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = redisOptions(config.CacheConfig{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	_, err = redisOptions(config.CacheConfig{RedisURL: "://bad"})
	assert.Error(t, err)
}
