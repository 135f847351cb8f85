package ports

import "context"

// ResourceLocker hands out the per-video exclusive sections the engine
// wraps around every read-then-write sequence. Implementations are the
// in-process keyed mutex or the Redis lock manager for multi-instance
// deployments.
type ResourceLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
