package memory

import (
	"context"
	"sync"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"
)

type MemoryVideoRepository struct {
	videos map[domain.VideoID]*domain.Video
	mu     sync.RWMutex
}

func NewMemoryVideoRepository() ports.VideoRepository {
	return &MemoryVideoRepository{
		videos: make(map[domain.VideoID]*domain.Video),
	}
}

func (r *MemoryVideoRepository) Create(ctx context.Context, video *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.videos[video.ID]; exists {
		return domain.ErrIDConflict
	}

	r.videos[video.ID] = cloneVideo(video)
	return nil
}

func (r *MemoryVideoRepository) GetByID(ctx context.Context, id domain.VideoID) (*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	video, exists := r.videos[id]
	if !exists {
		return nil, domain.ErrVideoNotFound
	}

	return cloneVideo(video), nil
}

func (r *MemoryVideoRepository) AppendAnnotations(ctx context.Context, id domain.VideoID, annotations []domain.Annotation) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, exists := r.videos[id]
	if !exists || video.Status != domain.VideoActive {
		return 0, domain.ErrVideoNotFound
	}

	seq := domain.AnnotationSeq(len(video.Annotations))
	for _, a := range annotations {
		seq++
		a.Seq = seq
		video.Annotations = append(video.Annotations, a)
	}

	return len(annotations), nil
}

func (r *MemoryVideoRepository) SetAnalysis(ctx context.Context, id domain.VideoID, snapshot *domain.AnalysisSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, exists := r.videos[id]
	if !exists || video.Status != domain.VideoActive {
		return domain.ErrVideoNotFound
	}

	snap := *snapshot
	video.Analysis = &snap
	return nil
}

func (r *MemoryVideoRepository) Delete(ctx context.Context, id domain.VideoID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.videos[id]; !exists {
		return domain.ErrVideoNotFound
	}

	delete(r.videos, id)
	return nil
}

func (r *MemoryVideoRepository) ListByOwner(ctx context.Context, ownerID domain.ActorID) ([]*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []*domain.Video
	for _, video := range r.videos {
		if video.OwnerID == ownerID {
			owned = append(owned, cloneVideo(video))
		}
	}

	return owned, nil
}

// cloneVideo copies the record so callers never alias the stored
// annotations slice or analysis snapshot.
func cloneVideo(v *domain.Video) *domain.Video {
	out := *v
	if v.Annotations != nil {
		out.Annotations = make([]domain.Annotation, len(v.Annotations))
		copy(out.Annotations, v.Annotations)
	}
	if v.Analysis != nil {
		snap := *v.Analysis
		out.Analysis = &snap
	}
	return &out
}
