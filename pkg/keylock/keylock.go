package keylock

import (
	"context"
	"sync"
)

// KeyedMutex serializes critical sections per key. Operations on
// different keys never contend on the same mutex, only on the short
// map access that hands the per-key entry out.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func New() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*entry),
	}
}

// Acquire satisfies the engine's resource-locker contract. In-process
// acquisition cannot fail, so the error is always nil.
func (k *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	return k.Lock(key), nil
}

// Lock acquires the exclusive section for key. The returned function
// releases it and must be called exactly once, typically via defer.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
