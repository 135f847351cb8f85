package memory

import (
	"context"
	"sync"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"
)

type MemoryCoachRepository struct {
	coaches map[domain.ActorID]*domain.Coach
	mu      sync.RWMutex
}

func NewMemoryCoachRepository() ports.CoachRepository {
	return &MemoryCoachRepository{
		coaches: make(map[domain.ActorID]*domain.Coach),
	}
}

func (r *MemoryCoachRepository) Save(ctx context.Context, coach *domain.Coach) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *coach
	r.coaches[coach.ID] = &stored
	return nil
}

func (r *MemoryCoachRepository) GetByID(ctx context.Context, id domain.ActorID) (*domain.Coach, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coach, exists := r.coaches[id]
	if !exists {
		return nil, domain.ErrCoachNotFound
	}

	out := *coach
	return &out, nil
}

func (r *MemoryCoachRepository) ListActive(ctx context.Context) ([]*domain.Coach, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []*domain.Coach
	for _, coach := range r.coaches {
		if coach.Status == domain.CoachActive {
			copied := *coach
			active = append(active, &copied)
		}
	}

	return active, nil
}
