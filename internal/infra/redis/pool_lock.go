package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"trivia-quiz-service/internal/app"
)

var _ app.PoolLock = (*PoolLock)(nil)

const poolLockKey = "trivia:pool:lock"

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PoolLock makes one replenishment run at a time across every instance
// sharing the Redis server. The TTL bounds how long a crashed holder blocks others.
type PoolLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPoolLock(client *redis.Client, ttl time.Duration) *PoolLock {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PoolLock{client: client, ttl: ttl}
}

func (l *PoolLock) Acquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, poolLockKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// best effort; the TTL clears it otherwise
		_ = releaseScript.Run(context.Background(), l.client, []string{poolLockKey}, token).Err()
	}
	return release, true, nil
}
