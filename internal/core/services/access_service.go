package services

import (
	"context"
	"fmt"
	"time"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"
	"clipcoach/pkg/retry"
	"clipcoach/pkg/utils"

	"go.uber.org/zap"
)

type accessService struct {
	videoRepo ports.VideoRepository
	grantRepo ports.GrantRepository
	locks     ports.ResourceLocker
	events    ports.EventPublisher
	metrics   *MetricsService
	logger    *zap.SugaredLogger
}

func NewAccessService(
	videoRepo ports.VideoRepository,
	grantRepo ports.GrantRepository,
	locks ports.ResourceLocker,
	events ports.EventPublisher,
	metrics *MetricsService,
	logger *zap.SugaredLogger,
) ports.AccessService {
	return &accessService{
		videoRepo: videoRepo,
		grantRepo: grantRepo,
		locks:     locks,
		events:    events,
		metrics:   metrics,
		logger:    logger,
	}
}

// idConflictRetry retries exactly once on an id-generation collision
// before surfacing it as a fault.
var idConflictRetry = retry.Config{
	MaxAttempts:     2,
	InitialDelay:    time.Millisecond,
	MaxDelay:        10 * time.Millisecond,
	Multiplier:      2.0,
	RetryableErrors: []error{domain.ErrIDConflict},
}

func (s *accessService) UploadVideo(ctx context.Context, ownerID domain.ActorID, meta domain.VideoMeta) (*domain.Video, error) {
	video, err := retry.DoWithResult(ctx, idConflictRetry, func() (*domain.Video, error) {
		return s.createWithOwnerGrant(ctx, ownerID, meta)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordUpload()
	s.publish(ports.VideoEvent{Type: ports.EventVideoUploaded, VideoID: video.ID, ActorID: ownerID})
	s.logger.Infow("video uploaded",
		"video_id", video.ID,
		"owner_id", ownerID,
		"filename", video.Filename,
	)

	return video, nil
}

// createWithOwnerGrant performs the create+grant pair as one logical
// transaction: a failed grant write rolls the video record back so an
// ownerless video can never be observed.
func (s *accessService) createWithOwnerGrant(ctx context.Context, ownerID domain.ActorID, meta domain.VideoMeta) (*domain.Video, error) {
	video := &domain.Video{
		ID:        domain.VideoID(utils.GenerateVideoID()),
		OwnerID:   ownerID,
		Filename:  meta.Filename,
		Status:    domain.VideoActive,
		CreatedAt: time.Now(),
	}

	release, err := s.lock(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, err
	}

	grant := &domain.Grant{
		VideoID:      video.ID,
		ActorID:      ownerID,
		Capabilities: domain.OwnerCapabilities(),
		GrantedAt:    video.CreatedAt,
		GrantedBy:    ownerID,
	}
	if err := s.grantRepo.Upsert(ctx, grant); err != nil {
		if delErr := s.videoRepo.Delete(ctx, video.ID); delErr != nil {
			s.logger.Errorw("failed to roll back video after owner grant failure",
				"video_id", video.ID,
				"error", delErr,
			)
		}
		return nil, fmt.Errorf("failed to grant owner capabilities: %w", err)
	}

	return video, nil
}

func (s *accessService) GetVideo(ctx context.Context, videoID domain.VideoID, callerID domain.ActorID) (*domain.Video, error) {
	return s.readAuthorized(ctx, videoID, callerID)
}

// readAuthorized fetches the video and checks read access without
// taking the per-video lock. A concurrent delete can purge the grants
// between the two reads, so a failed check re-reads the video record
// and reports not-found when it is gone; forbidden is reserved for
// videos that still exist.
func (s *accessService) readAuthorized(ctx context.Context, videoID domain.VideoID, callerID domain.ActorID) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if err := s.require(ctx, videoID, callerID, domain.CapRead); err != nil {
		if err == domain.ErrForbidden {
			if _, reErr := s.videoRepo.GetByID(ctx, videoID); reErr != nil {
				return nil, reErr
			}
		}
		return nil, err
	}

	return video, nil
}

func (s *accessService) DeleteVideo(ctx context.Context, videoID domain.VideoID, callerID domain.ActorID) error {
	release, err := s.lock(ctx, videoID)
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.videoRepo.GetByID(ctx, videoID); err != nil {
		return err
	}
	if err := s.require(ctx, videoID, callerID, domain.CapDelete); err != nil {
		return err
	}

	// Purge grants before the payload: a crash in between leaves an
	// unreachable record rather than an accessible ownerless one.
	purged, err := s.grantRepo.Purge(ctx, videoID)
	if err != nil {
		return fmt.Errorf("failed to purge grants for video %s: %w", videoID, err)
	}
	if err := s.videoRepo.Delete(ctx, videoID); err != nil {
		return err
	}

	s.metrics.RecordDelete()
	s.publish(ports.VideoEvent{Type: ports.EventVideoDeleted, VideoID: videoID, ActorID: callerID})
	s.logger.Infow("video deleted",
		"video_id", videoID,
		"caller_id", callerID,
		"grants_purged", purged,
	)

	return nil
}

func (s *accessService) Delegate(ctx context.Context, videoID domain.VideoID, granterID, granteeID domain.ActorID, caps domain.CapabilitySet) error {
	if !caps.SubsetOf(domain.DelegableCapabilities()) {
		s.metrics.RecordDenial("invalid_capability")
		return domain.ErrInvalidCapability
	}

	release, err := s.lock(ctx, videoID)
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.videoRepo.GetByID(ctx, videoID); err != nil {
		return err
	}

	// Only an actor holding delete (the owner) may delegate. The grant
	// path would otherwise let any edit holder re-delegate indefinitely.
	if err := s.require(ctx, videoID, granterID, domain.CapDelete); err != nil {
		return err
	}

	grant := &domain.Grant{
		VideoID:      videoID,
		ActorID:      granteeID,
		Capabilities: caps.Clone(),
		GrantedAt:    time.Now(),
		GrantedBy:    granterID,
	}
	if err := s.grantRepo.Upsert(ctx, grant); err != nil {
		return fmt.Errorf("failed to store grant: %w", err)
	}

	s.metrics.RecordDelegation()
	s.publish(ports.VideoEvent{Type: ports.EventAccessDelegated, VideoID: videoID, ActorID: granteeID})
	s.logger.Infow("capabilities delegated",
		"video_id", videoID,
		"granter_id", granterID,
		"grantee_id", granteeID,
		"capabilities", caps.Slice(),
	)

	return nil
}

func (s *accessService) Revoke(ctx context.Context, videoID domain.VideoID, revokerID, targetID domain.ActorID) error {
	release, err := s.lock(ctx, videoID)
	if err != nil {
		return err
	}
	defer release()

	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}
	if err := s.require(ctx, videoID, revokerID, domain.CapDelete); err != nil {
		return err
	}

	// The owner grant only ever disappears with the video itself.
	if targetID == video.OwnerID {
		s.metrics.RecordDenial("forbidden")
		return domain.ErrForbidden
	}

	if err := s.grantRepo.Revoke(ctx, videoID, targetID); err != nil {
		return err
	}

	s.metrics.RecordRevocation()
	s.publish(ports.VideoEvent{Type: ports.EventAccessRevoked, VideoID: videoID, ActorID: targetID})
	s.logger.Infow("capabilities revoked",
		"video_id", videoID,
		"revoker_id", revokerID,
		"target_id", targetID,
	)

	return nil
}

func (s *accessService) CapabilitiesOf(ctx context.Context, videoID domain.VideoID, actorID domain.ActorID) (domain.CapabilitySet, error) {
	return s.grantRepo.Capabilities(ctx, videoID, actorID)
}

func (s *accessService) AppendAnnotations(ctx context.Context, videoID domain.VideoID, callerID domain.ActorID, annotations []domain.Annotation) (int, error) {
	release, err := s.lock(ctx, videoID)
	if err != nil {
		return 0, err
	}
	defer release()

	if _, err := s.videoRepo.GetByID(ctx, videoID); err != nil {
		return 0, err
	}
	if err := s.require(ctx, videoID, callerID, domain.CapEdit); err != nil {
		return 0, err
	}

	now := time.Now()
	stamped := make([]domain.Annotation, len(annotations))
	for i, a := range annotations {
		a.AuthorID = callerID
		a.CreatedAt = now
		stamped[i] = a
	}

	count, err := s.videoRepo.AppendAnnotations(ctx, videoID, stamped)
	if err != nil {
		return 0, err
	}

	s.metrics.RecordAnnotations(count)
	s.publish(ports.VideoEvent{Type: ports.EventVideoAnnotated, VideoID: videoID, ActorID: callerID})
	s.logger.Infow("annotations appended",
		"video_id", videoID,
		"author_id", callerID,
		"count", count,
	)

	return count, nil
}

func (s *accessService) GetAnnotations(ctx context.Context, videoID domain.VideoID, callerID domain.ActorID) ([]domain.Annotation, error) {
	video, err := s.readAuthorized(ctx, videoID, callerID)
	if err != nil {
		return nil, err
	}

	return video.Annotations, nil
}

func (s *accessService) SetAnalysis(ctx context.Context, videoID domain.VideoID, callerID domain.ActorID, data map[string]interface{}) error {
	release, err := s.lock(ctx, videoID)
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.videoRepo.GetByID(ctx, videoID); err != nil {
		return err
	}
	if err := s.require(ctx, videoID, callerID, domain.CapEdit); err != nil {
		return err
	}

	snapshot := &domain.AnalysisSnapshot{
		Data:      data,
		UpdatedBy: callerID,
		UpdatedAt: time.Now(),
	}
	if err := s.videoRepo.SetAnalysis(ctx, videoID, snapshot); err != nil {
		return err
	}

	s.publish(ports.VideoEvent{Type: ports.EventAnalysisUpdated, VideoID: videoID, ActorID: callerID})
	s.logger.Infow("analysis updated",
		"video_id", videoID,
		"updated_by", callerID,
	)

	return nil
}

func (s *accessService) ListVideosFor(ctx context.Context, actorID domain.ActorID) ([]*domain.VideoAccess, error) {
	grants, err := s.grantRepo.ListByActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var out []*domain.VideoAccess
	for _, grant := range grants {
		if !grant.Capabilities.Has(domain.CapRead) {
			continue
		}

		video, err := s.videoRepo.GetByID(ctx, grant.VideoID)
		if err == domain.ErrVideoNotFound {
			// Grant raced a deletion; the purge will have caught up by
			// the next read.
			continue
		}
		if err != nil {
			return nil, err
		}

		out = append(out, &domain.VideoAccess{
			Video:        video,
			Capabilities: grant.Capabilities,
		})
	}

	return out, nil
}

// lock serializes mutations on one video, timing how long the caller
// waited for the metrics sink.
func (s *accessService) lock(ctx context.Context, videoID domain.VideoID) (func(), error) {
	start := time.Now()
	release, err := s.locks.Acquire(ctx, string(videoID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock video %s: %w", videoID, err)
	}
	s.metrics.RecordLockWait(time.Since(start))
	return release, nil
}

// require checks that the actor holds the capability on the video,
// recording a denial metric when it does not.
func (s *accessService) require(ctx context.Context, videoID domain.VideoID, actorID domain.ActorID, required domain.Capability) error {
	caps, err := s.grantRepo.Capabilities(ctx, videoID, actorID)
	if err != nil {
		return fmt.Errorf("failed to read capabilities: %w", err)
	}
	if !caps.Has(required) {
		s.metrics.RecordDenial("forbidden")
		s.logger.Debugw("capability check failed",
			"video_id", videoID,
			"actor_id", actorID,
			"required", required,
		)
		return domain.ErrForbidden
	}
	return nil
}

func (s *accessService) publish(event ports.VideoEvent) {
	if s.events != nil {
		s.events.PublishVideoEvent(event)
	}
}
