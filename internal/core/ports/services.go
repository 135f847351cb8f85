package ports

import (
	"context"

	"clipcoach/internal/core/domain"
)

// AccessService is the access-control engine. Every video read or
// mutation goes through it; callers never reach the repositories directly.
type AccessService interface {
	UploadVideo(ctx context.Context, ownerID domain.ActorID, meta domain.VideoMeta) (*domain.Video, error)
	GetVideo(ctx context.Context, videoID domain.VideoID, callerID domain.ActorID) (*domain.Video, error)
	DeleteVideo(ctx context.Context, videoID domain.VideoID, callerID domain.ActorID) error

	Delegate(ctx context.Context, videoID domain.VideoID, granterID, granteeID domain.ActorID, caps domain.CapabilitySet) error
	Revoke(ctx context.Context, videoID domain.VideoID, revokerID, targetID domain.ActorID) error
	CapabilitiesOf(ctx context.Context, videoID domain.VideoID, actorID domain.ActorID) (domain.CapabilitySet, error)

	AppendAnnotations(ctx context.Context, videoID domain.VideoID, callerID domain.ActorID, annotations []domain.Annotation) (int, error)
	GetAnnotations(ctx context.Context, videoID domain.VideoID, callerID domain.ActorID) ([]domain.Annotation, error)
	SetAnalysis(ctx context.Context, videoID domain.VideoID, callerID domain.ActorID, data map[string]interface{}) error

	ListVideosFor(ctx context.Context, actorID domain.ActorID) ([]*domain.VideoAccess, error)
}

type RequestService interface {
	Submit(ctx context.Context, studentID domain.ActorID, studentName string, coachID domain.ActorID, videoID domain.VideoID, message string) (*domain.AnnotationRequest, error)
	Approve(ctx context.Context, requestID domain.RequestID, coachID domain.ActorID) (*domain.AnnotationRequest, error)
	Decline(ctx context.Context, requestID domain.RequestID, coachID domain.ActorID) (*domain.AnnotationRequest, error)
	ListForStudent(ctx context.Context, studentID domain.ActorID) ([]*domain.AnnotationRequest, error)
	ListForCoach(ctx context.Context, coachID domain.ActorID) ([]*domain.AnnotationRequest, error)
}

// Notifier is the outbound notification boundary. Delivery transport
// (email, push) lives behind it and failures never abort the request flow.
type Notifier interface {
	NotifyRequestSubmitted(ctx context.Context, req *domain.AnnotationRequest) error
	NotifyRequestResolved(ctx context.Context, req *domain.AnnotationRequest) error
}

// EventPublisher fans video lifecycle events out to dashboard subscribers.
type EventPublisher interface {
	PublishVideoEvent(event VideoEvent)
}

type VideoEvent struct {
	Type    string         `json:"type"`
	VideoID domain.VideoID `json:"video_id"`
	ActorID domain.ActorID `json:"actor_id"`
	Detail  string         `json:"detail,omitempty"`
}

const (
	EventVideoUploaded   = "video.uploaded"
	EventVideoDeleted    = "video.deleted"
	EventVideoAnnotated  = "video.annotated"
	EventAnalysisUpdated = "video.analysis_updated"
	EventAccessDelegated = "access.delegated"
	EventAccessRevoked   = "access.revoked"
)
