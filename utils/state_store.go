package utils

import (
	"context"
	"sync"
	"time"
)

const stateKeyPrefix = "oauth:state:"

var (
	localStates   = map[string]time.Time{}
	localStatesMu sync.Mutex
)

// SaveState records an OAuth state token so the callback can verify the
// round trip. Stored in Redis when available so any instance can serve
// the callback; the in-memory map only covers single-instance setups.
func SaveState(state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rc.Set(ctx, stateKeyPrefix+state, "1", ttl).Err()
		return
	}
	localStatesMu.Lock()
	for s, exp := range localStates {
		if time.Now().After(exp) {
			delete(localStates, s)
		}
	}
	localStates[state] = time.Now().Add(ttl)
	localStatesMu.Unlock()
}

// ConsumeState reports whether the state token is valid and removes it,
// so a captured callback URL cannot be replayed.
func ConsumeState(state string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		v, err := rc.GetDel(ctx, stateKeyPrefix+state).Result()
		return err == nil && v != ""
	}
	localStatesMu.Lock()
	exp, ok := localStates[state]
	delete(localStates, state)
	localStatesMu.Unlock()
	return ok && time.Now().Before(exp)
}
