package memory

import (
	"context"
	"sync"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"
)

type MemoryGrantRepository struct {
	// grants is keyed by video, then actor; at most one grant per pair.
	grants map[domain.VideoID]map[domain.ActorID]*domain.Grant
	mu     sync.RWMutex
}

func NewMemoryGrantRepository() ports.GrantRepository {
	return &MemoryGrantRepository{
		grants: make(map[domain.VideoID]map[domain.ActorID]*domain.Grant),
	}
}

func (r *MemoryGrantRepository) Upsert(ctx context.Context, grant *domain.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byActor, exists := r.grants[grant.VideoID]
	if !exists {
		byActor = make(map[domain.ActorID]*domain.Grant)
		r.grants[grant.VideoID] = byActor
	}

	stored := *grant
	stored.Capabilities = grant.Capabilities.Clone()
	byActor[grant.ActorID] = &stored
	return nil
}

func (r *MemoryGrantRepository) Revoke(ctx context.Context, videoID domain.VideoID, actorID domain.ActorID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byActor, exists := r.grants[videoID]
	if !exists {
		return domain.ErrGrantNotFound
	}
	if _, exists := byActor[actorID]; !exists {
		return domain.ErrGrantNotFound
	}

	delete(byActor, actorID)
	if len(byActor) == 0 {
		delete(r.grants, videoID)
	}
	return nil
}

func (r *MemoryGrantRepository) Capabilities(ctx context.Context, videoID domain.VideoID, actorID domain.ActorID) (domain.CapabilitySet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if byActor, exists := r.grants[videoID]; exists {
		if grant, exists := byActor[actorID]; exists {
			return grant.Capabilities.Clone(), nil
		}
	}

	// Absence of a grant is a normal state, not an error.
	return domain.CapabilitySet{}, nil
}

func (r *MemoryGrantRepository) ListByVideo(ctx context.Context, videoID domain.VideoID) ([]*domain.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var grants []*domain.Grant
	for _, grant := range r.grants[videoID] {
		grants = append(grants, cloneGrant(grant))
	}
	return grants, nil
}

func (r *MemoryGrantRepository) ListByActor(ctx context.Context, actorID domain.ActorID) ([]*domain.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var grants []*domain.Grant
	for _, byActor := range r.grants {
		if grant, exists := byActor[actorID]; exists {
			grants = append(grants, cloneGrant(grant))
		}
	}
	return grants, nil
}

func (r *MemoryGrantRepository) Purge(ctx context.Context, videoID domain.VideoID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := len(r.grants[videoID])
	delete(r.grants, videoID)
	return count, nil
}

func cloneGrant(g *domain.Grant) *domain.Grant {
	out := *g
	out.Capabilities = g.Capabilities.Clone()
	return &out
}
