package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired means another worker holds the slot's critical section.
var ErrLockNotAcquired = errors.New("scheduling: slot lock not acquired")

// Locker guards the book critical section per (office, doctor, instant).
// The Postgres unique index remains the authority; the lock just turns most
// races into a clean early rejection instead of a constraint violation.
type Locker interface {
	WithSlotLock(ctx context.Context, officeID, doctorID string, at time.Time, fn func(ctx context.Context) error) error
}

type redisSlotLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSlotLocker creates a locker keyed per slot in Redis.
func NewRedisSlotLocker(client *redis.Client, ttl time.Duration) Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &redisSlotLocker{client: client, ttl: ttl}
}

func (l *redisSlotLocker) WithSlotLock(ctx context.Context, officeID, doctorID string, at time.Time, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:slot:%s:%s:%d", officeID, doctorID, SlotKey(at).Unix())
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("scheduling: acquire slot lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(lockCtx)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisSlotLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("scheduling: release slot lock: %w", err)
	}
	return nil
}

// NoopLocker skips locking; used where Redis is unavailable and the unique
// index alone carries collision safety.
type NoopLocker struct{}

func (NoopLocker) WithSlotLock(ctx context.Context, _, _ string, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
