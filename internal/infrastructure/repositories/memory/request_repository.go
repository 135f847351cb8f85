package memory

import (
	"context"
	"sort"
	"sync"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"
)

type MemoryRequestRepository struct {
	requests map[domain.RequestID]*domain.AnnotationRequest
	mu       sync.RWMutex
}

func NewMemoryRequestRepository() ports.RequestRepository {
	return &MemoryRequestRepository{
		requests: make(map[domain.RequestID]*domain.AnnotationRequest),
	}
}

func (r *MemoryRequestRepository) Create(ctx context.Context, req *domain.AnnotationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.requests[req.ID]; exists {
		return domain.ErrIDConflict
	}

	stored := *req
	r.requests[req.ID] = &stored
	return nil
}

func (r *MemoryRequestRepository) GetByID(ctx context.Context, id domain.RequestID) (*domain.AnnotationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, exists := r.requests[id]
	if !exists {
		return nil, domain.ErrRequestNotFound
	}

	out := *req
	return &out, nil
}

func (r *MemoryRequestRepository) Update(ctx context.Context, req *domain.AnnotationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.requests[req.ID]; !exists {
		return domain.ErrRequestNotFound
	}

	stored := *req
	r.requests[req.ID] = &stored
	return nil
}

func (r *MemoryRequestRepository) ListByStudent(ctx context.Context, studentID domain.ActorID) ([]*domain.AnnotationRequest, error) {
	return r.list(func(req *domain.AnnotationRequest) bool {
		return req.StudentID == studentID
	}), nil
}

func (r *MemoryRequestRepository) ListByCoach(ctx context.Context, coachID domain.ActorID) ([]*domain.AnnotationRequest, error) {
	return r.list(func(req *domain.AnnotationRequest) bool {
		return req.CoachID == coachID
	}), nil
}

func (r *MemoryRequestRepository) list(match func(*domain.AnnotationRequest) bool) []*domain.AnnotationRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.AnnotationRequest
	for _, req := range r.requests {
		if match(req) {
			copied := *req
			out = append(out, &copied)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
