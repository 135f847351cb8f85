package distributed

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock provides distributed locking using Redis. It serializes the
// engine's per-video critical sections across API instances sharing
// one Redis backend.
type Lock struct {
	client *redis.Client
	key    string
	value  string // Unique identifier for this lock holder
	ttl    time.Duration
}

// NewLock creates a new distributed lock for key.
func NewLock(client *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{
		client: client,
		key:    key,
		value:  generateLockValue(),
		ttl:    ttl,
	}
}

func generateLockValue() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Lock acquires the lock, polling until it is available or the context
// or timeout expires. A zero timeout uses a 30 second default.
func (l *Lock) Lock(ctx context.Context, timeout time.Duration) error {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	deadline := time.Now().Add(timeout)

	for {
		acquired, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if acquired {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("lock acquisition timeout for %s", l.key)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// Unlock releases the lock. A Lua script guards against deleting a lock
// that has expired and been re-acquired by another holder.
func (l *Lock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`

	result, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	if err != nil {
		return fmt.Errorf("failed to unlock: %w", err)
	}
	if result.(int64) == 0 {
		return fmt.Errorf("lock %s was not held by this instance", l.key)
	}

	return nil
}

// LockManager hands out distributed locks under a common prefix.
type LockManager struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewLockManager creates a new lock manager.
func NewLockManager(client *redis.Client, prefix string, ttl time.Duration) *LockManager {
	return &LockManager{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Acquire blocks until the lock for key is held, then returns a release
// function. It satisfies the engine's resource-locker contract.
func (lm *LockManager) Acquire(ctx context.Context, key string) (func(), error) {
	lock := NewLock(lm.client, lm.prefix+key, lm.ttl)
	if err := lock.Lock(ctx, 0); err != nil {
		return nil, err
	}
	return func() {
		// Release is best effort; an expired lock is already free.
		_ = lock.Unlock(context.WithoutCancel(ctx))
	}, nil
}
