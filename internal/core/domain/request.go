package domain

import "time"

type RequestID string

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestDeclined RequestStatus = "declined"
)

// AnnotationRequest is a student's ask for a coach to annotate one of
// their videos. Approval is what triggers the bounded delegation.
type AnnotationRequest struct {
	ID            RequestID
	StudentID     ActorID
	StudentName   string
	CoachID       ActorID
	CoachName     string
	VideoID       VideoID
	Message       string
	Status        RequestStatus
	Priority      string
	EstimatedCost float64
	CreatedAt     time.Time
	NotifiedAt    *time.Time
	RespondedAt   *time.Time
}
