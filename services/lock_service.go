// File: /services/lock_service.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld means somebody else currently holds the lock.
var ErrLockHeld = errors.New("lock already held")

// releaseScript deletes the key only when it still carries our token, so an
// expired-and-reacquired lock is never released by the previous holder.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// LockService provides short-lived exclusive locks backed by redis.
// Its one consumer is the per-user trip-creation critical section that keeps
// a double-submitted "create trip" from producing two trips.
type LockService struct {
	client *redis.Client
}

func NewLockService(client *redis.Client) *LockService {
	return &LockService{client: client}
}

// Acquire takes the lock and returns a release function. ErrLockHeld when the
// key is already taken; other errors mean redis itself is unavailable.
func (s *LockService) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()

	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func() {
		// TTL is the safety net if this fails.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.client.Eval(releaseCtx, releaseScript, []string{key}, token)
	}
	return release, nil
}
