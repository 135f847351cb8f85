package ports

import (
	"context"

	"clipcoach/internal/core/domain"
)

// VideoRepository is the resource store: canonical video records and
// their mutable content. It performs no authorization.
type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) error
	GetByID(ctx context.Context, id domain.VideoID) (*domain.Video, error)
	AppendAnnotations(ctx context.Context, id domain.VideoID, annotations []domain.Annotation) (int, error)
	SetAnalysis(ctx context.Context, id domain.VideoID, snapshot *domain.AnalysisSnapshot) error
	Delete(ctx context.Context, id domain.VideoID) error
	ListByOwner(ctx context.Context, ownerID domain.ActorID) ([]*domain.Video, error)
}

// GrantRepository is the permission ledger: the (video, actor) to
// capability-set mapping. It never validates that a video exists.
type GrantRepository interface {
	// Upsert replaces the whole capability set for the (video, actor)
	// pair. Granting a narrower set than before narrows the actor's rights.
	Upsert(ctx context.Context, grant *domain.Grant) error
	Revoke(ctx context.Context, videoID domain.VideoID, actorID domain.ActorID) error
	// Capabilities returns the empty set, not an error, when no grant exists.
	Capabilities(ctx context.Context, videoID domain.VideoID, actorID domain.ActorID) (domain.CapabilitySet, error)
	ListByVideo(ctx context.Context, videoID domain.VideoID) ([]*domain.Grant, error)
	ListByActor(ctx context.Context, actorID domain.ActorID) ([]*domain.Grant, error)
	// Purge removes every grant for a video and returns how many it removed.
	Purge(ctx context.Context, videoID domain.VideoID) (int, error)
}

type RequestRepository interface {
	Create(ctx context.Context, req *domain.AnnotationRequest) error
	GetByID(ctx context.Context, id domain.RequestID) (*domain.AnnotationRequest, error)
	Update(ctx context.Context, req *domain.AnnotationRequest) error
	ListByStudent(ctx context.Context, studentID domain.ActorID) ([]*domain.AnnotationRequest, error)
	ListByCoach(ctx context.Context, coachID domain.ActorID) ([]*domain.AnnotationRequest, error)
}

type CoachRepository interface {
	Save(ctx context.Context, coach *domain.Coach) error
	GetByID(ctx context.Context, id domain.ActorID) (*domain.Coach, error)
	ListActive(ctx context.Context) ([]*domain.Coach, error)
}
