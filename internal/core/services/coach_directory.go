package services

import (
	"context"
	"time"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"
	"clipcoach/pkg/cache"
)

// CoachDirectory fronts the coach repository with a TTL cache; coach
// profiles change rarely but are read on every request submission.
type CoachDirectory struct {
	repo  ports.CoachRepository
	cache *cache.Cache
}

func NewCoachDirectory(repo ports.CoachRepository, ttl time.Duration) *CoachDirectory {
	return &CoachDirectory{
		repo:  repo,
		cache: cache.New(ttl),
	}
}

func (d *CoachDirectory) Get(ctx context.Context, id domain.ActorID) (*domain.Coach, error) {
	if cached, ok := d.cache.Get(string(id)); ok {
		return cached.(*domain.Coach), nil
	}

	coach, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d.cache.Set(string(id), coach)
	return coach, nil
}

func (d *CoachDirectory) Save(ctx context.Context, coach *domain.Coach) error {
	if err := d.repo.Save(ctx, coach); err != nil {
		return err
	}
	d.cache.Delete(string(coach.ID))
	return nil
}

func (d *CoachDirectory) ListActive(ctx context.Context) ([]*domain.Coach, error) {
	return d.repo.ListActive(ctx)
}

func (d *CoachDirectory) Close() {
	d.cache.Stop()
}
