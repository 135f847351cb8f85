package repositories

import (
	"context"
	"time"

	"clipcoach/internal/core/ports"
	"clipcoach/internal/infrastructure/repositories/memory"
	redisrepo "clipcoach/internal/infrastructure/repositories/redis"
	"clipcoach/pkg/config"
	"clipcoach/pkg/distributed"
	"clipcoach/pkg/keylock"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	// Try to connect to Redis if enabled
	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// CreateVideoRepository creates a video repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateVideoRepository() ports.VideoRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisVideoRepository(f.redisClient)
	}
	return memory.NewMemoryVideoRepository()
}

// CreateGrantRepository creates a grant repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateGrantRepository() ports.GrantRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisGrantRepository(f.redisClient)
	}
	return memory.NewMemoryGrantRepository()
}

// CreateRequestRepository creates an annotation-request repository (always memory for now)
func (f *RepositoryFactory) CreateRequestRepository() ports.RequestRepository {
	return memory.NewMemoryRequestRepository()
}

// CreateCoachRepository creates a coach repository (always memory for now)
func (f *RepositoryFactory) CreateCoachRepository() ports.CoachRepository {
	return memory.NewMemoryCoachRepository()
}

// CreateResourceLocker creates the per-video locker matching the
// repository backend: Redis-backed repositories need a lock shared
// across instances, memory repositories only an in-process one.
func (f *RepositoryFactory) CreateResourceLocker() ports.ResourceLocker {
	if f.useRedis && f.redisClient != nil {
		return distributed.NewLockManager(f.redisClient, "clipcoach:lock:", 15*time.Second)
	}
	return keylock.New()
}

// Close closes Redis connection if used
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks Redis connection health
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
