package domain

import "time"

type VideoID string
type ActorID string
type AnnotationSeq int

type VideoStatus string

const (
	VideoActive VideoStatus = "active"
)

type Video struct {
	ID          VideoID
	OwnerID     ActorID
	Filename    string
	Status      VideoStatus
	CreatedAt   time.Time
	Annotations []Annotation
	Analysis    *AnalysisSnapshot
}

// Annotation is append-only: once stored it is never edited or removed
// until the whole video is deleted.
type Annotation struct {
	Seq       AnnotationSeq
	AuthorID  ActorID
	CreatedAt time.Time
	Body      string
	Kind      string
}

type AnalysisSnapshot struct {
	Data      map[string]interface{}
	UpdatedBy ActorID
	UpdatedAt time.Time
}

// VideoMeta carries the caller-supplied fields of a new video.
type VideoMeta struct {
	Filename string
}

// VideoAccess pairs a video with the capabilities the querying actor
// holds on it.
type VideoAccess struct {
	Video        *Video
	Capabilities CapabilitySet
}
