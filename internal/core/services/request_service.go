package services

import (
	"context"
	"fmt"
	"time"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"
	"clipcoach/pkg/utils"

	"go.uber.org/zap"
)

type requestService struct {
	requests    ports.RequestRepository
	coaches     *CoachDirectory
	access      ports.AccessService
	notifier    ports.Notifier
	logger      *zap.SugaredLogger
	costPerHour float64
}

// NewRequestService wires the annotation-request flow. costHourFraction
// is the fraction of a coach's hourly rate charged per request.
func NewRequestService(
	requests ports.RequestRepository,
	coaches *CoachDirectory,
	access ports.AccessService,
	notifier ports.Notifier,
	logger *zap.SugaredLogger,
	costHourFraction float64,
) ports.RequestService {
	return &requestService{
		requests:    requests,
		coaches:     coaches,
		access:      access,
		notifier:    notifier,
		logger:      logger,
		costPerHour: costHourFraction,
	}
}

func (s *requestService) Submit(ctx context.Context, studentID domain.ActorID, studentName string, coachID domain.ActorID, videoID domain.VideoID, message string) (*domain.AnnotationRequest, error) {
	coach, err := s.coaches.Get(ctx, coachID)
	if err != nil {
		return nil, err
	}
	if coach.Status != domain.CoachActive {
		return nil, domain.ErrCoachNotFound
	}

	// Only an actor who could delegate the video themselves may ask a
	// coach to annotate it.
	caps, err := s.access.CapabilitiesOf(ctx, videoID, studentID)
	if err != nil {
		return nil, err
	}
	if !caps.Has(domain.CapDelete) {
		return nil, domain.ErrForbidden
	}

	req := &domain.AnnotationRequest{
		ID:            domain.RequestID(utils.GenerateRequestID()),
		StudentID:     studentID,
		StudentName:   studentName,
		CoachID:       coachID,
		CoachName:     coach.Name,
		VideoID:       videoID,
		Message:       message,
		Status:        domain.RequestPending,
		Priority:      "normal",
		EstimatedCost: coach.HourlyRate * s.costPerHour,
		CreatedAt:     time.Now(),
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to store request: %w", err)
	}

	// Notification failures are logged and swallowed; the request stands.
	if err := s.notifier.NotifyRequestSubmitted(ctx, req); err != nil {
		s.logger.Warnw("failed to notify coach of new request",
			"request_id", req.ID,
			"coach_id", coachID,
			"error", err,
		)
	} else {
		now := time.Now()
		req.NotifiedAt = &now
		if err := s.requests.Update(ctx, req); err != nil {
			s.logger.Warnw("failed to record notification time",
				"request_id", req.ID,
				"error", err,
			)
		}
	}

	s.logger.Infow("annotation request submitted",
		"request_id", req.ID,
		"student_id", studentID,
		"coach_id", coachID,
		"video_id", videoID,
		"estimated_cost", req.EstimatedCost,
	)

	return req, nil
}

func (s *requestService) Approve(ctx context.Context, requestID domain.RequestID, coachID domain.ActorID) (*domain.AnnotationRequest, error) {
	req, err := s.loadOpenRequest(ctx, requestID, coachID)
	if err != nil {
		return nil, err
	}

	// The student delegates read+edit to the coach; the coach never
	// receives delete.
	err = s.access.Delegate(ctx, req.VideoID, req.StudentID, coachID, domain.DelegableCapabilities())
	if err != nil {
		return nil, fmt.Errorf("failed to delegate video access: %w", err)
	}

	if err := s.resolve(ctx, req, domain.RequestApproved); err != nil {
		return nil, err
	}

	s.logger.Infow("annotation request approved",
		"request_id", req.ID,
		"coach_id", coachID,
		"video_id", req.VideoID,
	)

	return req, nil
}

func (s *requestService) Decline(ctx context.Context, requestID domain.RequestID, coachID domain.ActorID) (*domain.AnnotationRequest, error) {
	req, err := s.loadOpenRequest(ctx, requestID, coachID)
	if err != nil {
		return nil, err
	}

	if err := s.resolve(ctx, req, domain.RequestDeclined); err != nil {
		return nil, err
	}

	s.logger.Infow("annotation request declined",
		"request_id", req.ID,
		"coach_id", coachID,
	)

	return req, nil
}

func (s *requestService) ListForStudent(ctx context.Context, studentID domain.ActorID) ([]*domain.AnnotationRequest, error) {
	return s.requests.ListByStudent(ctx, studentID)
}

func (s *requestService) ListForCoach(ctx context.Context, coachID domain.ActorID) ([]*domain.AnnotationRequest, error) {
	return s.requests.ListByCoach(ctx, coachID)
}

func (s *requestService) loadOpenRequest(ctx context.Context, requestID domain.RequestID, coachID domain.ActorID) (*domain.AnnotationRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CoachID != coachID {
		return nil, domain.ErrForbidden
	}
	if req.Status != domain.RequestPending {
		return nil, domain.ErrRequestClosed
	}
	return req, nil
}

func (s *requestService) resolve(ctx context.Context, req *domain.AnnotationRequest, status domain.RequestStatus) error {
	now := time.Now()
	req.Status = status
	req.RespondedAt = &now

	if err := s.requests.Update(ctx, req); err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}

	if err := s.notifier.NotifyRequestResolved(ctx, req); err != nil {
		s.logger.Warnw("failed to notify student of request resolution",
			"request_id", req.ID,
			"student_id", req.StudentID,
			"error", err,
		)
	}

	return nil
}
