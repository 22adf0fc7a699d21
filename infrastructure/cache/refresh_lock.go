package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const refreshLockPrefix = "social:refresh-lock:"

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RefreshLock is a best-effort cross-process mutex keyed by account id.
// Without a Redis client every Acquire succeeds.
type RefreshLock struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

func NewRefreshLock(client *redis.Client, ttl time.Duration) *RefreshLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RefreshLock{client: client, ttl: ttl, tokens: make(map[string]string)}
}

func (l *RefreshLock) Acquire(ctx context.Context, accountID string) (bool, error) {
	if l.client == nil {
		return true, nil
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, refreshLockPrefix+accountID, token, l.ttl).Result()
	if err != nil || !ok {
		return false, err
	}
	l.mu.Lock()
	l.tokens[accountID] = token
	l.mu.Unlock()
	return true, nil
}

// Release drops the lock if this process still owns it. A lock that expired
// and was taken by another process is left alone.
func (l *RefreshLock) Release(ctx context.Context, accountID string) error {
	if l.client == nil {
		return nil
	}
	l.mu.Lock()
	token, ok := l.tokens[accountID]
	delete(l.tokens, accountID)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, l.client, []string{refreshLockPrefix + accountID}, token).Err()
}
