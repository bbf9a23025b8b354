package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "jwt:blacklist:"

// TokenBlacklist remembers revoked tokens until they expire. Redis is used when
// configured so every instance sees a logout; otherwise entries live in memory.
type TokenBlacklist struct {
	rc *redis.Client

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewTokenBlacklist creates a blacklist. rc may be nil.
func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, revoked: map[string]time.Time{}}
}

// Revoke stores the token until expiresAt.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	key := tokenKey(token)
	if b.rc != nil {
		return b.rc.Set(ctx, blacklistPrefix+key, "1", ttl).Err()
	}
	b.mu.Lock()
	b.revoked[key] = expiresAt
	b.mu.Unlock()
	return nil
}

// IsRevoked reports whether the token was revoked before its natural expiration.
// Redis errors fail open so an outage does not lock every user out.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) bool {
	key := tokenKey(token)
	if b.rc != nil {
		n, err := b.rc.Exists(ctx, blacklistPrefix+key).Result()
		if err != nil {
			Sugar.Warnf("token blacklist lookup failed: %v", err)
			return false
		}
		return n > 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	expiresAt, ok := b.revoked[key]
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		delete(b.revoked, key)
		return false
	}
	return true
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
