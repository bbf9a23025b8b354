package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBlacklistRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	bl := NewTokenBlacklist(rc)
	ctx := context.Background()

	assert.False(t, bl.IsRevoked(ctx, "tok"))
	require.NoError(t, bl.Revoke(ctx, "tok", time.Now().Add(time.Minute)))
	assert.True(t, bl.IsRevoked(ctx, "tok"))
	assert.False(t, bl.IsRevoked(ctx, "other"))

	key := blacklistPrefix + tokenKey("tok")
	assert.True(t, mr.Exists(key), "tokens are stored hashed")
	assert.Positive(t, mr.TTL(key))

	mr.FastForward(2 * time.Minute)
	assert.False(t, bl.IsRevoked(ctx, "tok"))
}

func TestTokenBlacklistRedisDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rc.Close() })

	bl := NewTokenBlacklist(rc)
	require.NoError(t, bl.Revoke(context.Background(), "tok", time.Now().Add(time.Minute)))
	mr.Close()

	assert.False(t, bl.IsRevoked(context.Background(), "tok"))
}

func TestTokenBlacklistMemory(t *testing.T) {
	bl := NewTokenBlacklist(nil)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "tok", time.Now().Add(time.Minute)))
	assert.True(t, bl.IsRevoked(ctx, "tok"))

	require.NoError(t, bl.Revoke(ctx, "stale", time.Now().Add(-time.Minute)))
	assert.False(t, bl.IsRevoked(ctx, "stale"), "already expired tokens are not stored")

	bl.revoked[tokenKey("short")] = time.Now().Add(-time.Second)
	assert.False(t, bl.IsRevoked(ctx, "short"))
	assert.NotContains(t, bl.revoked, tokenKey("short"))
}
