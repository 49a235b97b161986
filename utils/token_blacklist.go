package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

var (
	revokedTokens   = map[string]time.Time{}
	revokedTokensMu sync.RWMutex
)

// tokenKey digests the JWT so Redis keys stay short and the raw token
// never appears in key listings.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "jwt:revoked:" + hex.EncodeToString(sum[:])
}

// BlacklistToken marks a token revoked until its natural expiry, which
// makes logout effective before the JWT itself expires.
func BlacklistToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rc.Set(ctx, tokenKey(token), "1", ttl).Err()
		return
	}
	revokedTokensMu.Lock()
	revokedTokens[tokenKey(token)] = expiresAt
	revokedTokensMu.Unlock()
}

// IsTokenBlacklisted reports whether a token was revoked by logout.
// A Redis error counts as not revoked.
func IsTokenBlacklisted(token string) bool {
	key := tokenKey(token)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, key).Result()
		if err == nil {
			return n > 0
		}
		return false
	}

	revokedTokensMu.RLock()
	expiresAt, ok := revokedTokens[key]
	revokedTokensMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		revokedTokensMu.Lock()
		delete(revokedTokens, key)
		revokedTokensMu.Unlock()
		return false
	}
	return true
}
