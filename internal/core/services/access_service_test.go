package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"
	"clipcoach/internal/infrastructure/repositories/memory"
	"clipcoach/pkg/keylock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine() ports.AccessService {
	return NewAccessService(
		memory.NewMemoryVideoRepository(),
		memory.NewMemoryGrantRepository(),
		keylock.New(),
		nil,
		NewMetricsService(nil),
		zap.NewNop().Sugar(),
	)
}

func TestUploadVideoGrantsOwnerFullCapabilities(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)
	require.NotNil(t, video)
	assert.NotEmpty(t, video.ID)
	assert.Equal(t, domain.ActorID("owner-1"), video.OwnerID)
	assert.Equal(t, domain.VideoActive, video.Status)

	caps, err := engine.CapabilitiesOf(ctx, video.ID, "owner-1")
	require.NoError(t, err)
	assert.True(t, caps.Equal(domain.OwnerCapabilities()))
}

func TestUploadVideoAssignsUniqueIDs(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	seen := make(map[domain.VideoID]bool)
	for i := 0; i < 20; i++ {
		video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "clip.mp4"})
		require.NoError(t, err)
		assert.False(t, seen[video.ID])
		seen[video.ID] = true
	}
}

func TestDelegateRejectsDeleteCapability(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)

	err = engine.Delegate(ctx, video.ID, "owner-1", "coach-1",
		domain.NewCapabilitySet(domain.CapRead, domain.CapDelete))
	assert.ErrorIs(t, err, domain.ErrInvalidCapability)

	caps, err := engine.CapabilitiesOf(ctx, video.ID, "coach-1")
	require.NoError(t, err)
	assert.Empty(t, caps)
}

func TestDelegateNeverYieldsDelete(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)

	require.NoError(t, engine.Delegate(ctx, video.ID, "owner-1", "coach-1",
		domain.NewCapabilitySet(domain.CapRead, domain.CapEdit)))

	caps, err := engine.CapabilitiesOf(ctx, video.ID, "coach-1")
	require.NoError(t, err)
	assert.True(t, caps.Has(domain.CapRead))
	assert.True(t, caps.Has(domain.CapEdit))
	assert.False(t, caps.Has(domain.CapDelete))
}

func TestDelegateOverwritesPriorGrant(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)

	require.NoError(t, engine.Delegate(ctx, video.ID, "owner-1", "coach-1",
		domain.NewCapabilitySet(domain.CapRead, domain.CapEdit)))
	require.NoError(t, engine.Delegate(ctx, video.ID, "owner-1", "coach-1",
		domain.NewCapabilitySet(domain.CapRead)))

	// The second grant replaces the first outright, it does not merge.
	caps, err := engine.CapabilitiesOf(ctx, video.ID, "coach-1")
	require.NoError(t, err)
	assert.True(t, caps.Equal(domain.NewCapabilitySet(domain.CapRead)))
}

func TestDelegateRequiresDeleteHolder(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)

	require.NoError(t, engine.Delegate(ctx, video.ID, "owner-1", "coach-1",
		domain.NewCapabilitySet(domain.CapRead, domain.CapEdit)))

	// An edit holder cannot re-delegate.
	err = engine.Delegate(ctx, video.ID, "coach-1", "coach-2",
		domain.NewCapabilitySet(domain.CapRead))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	caps, err := engine.CapabilitiesOf(ctx, video.ID, "coach-2")
	require.NoError(t, err)
	assert.Empty(t, caps)
}

func TestDelegateUnknownVideo(t *testing.T) {
	engine := newTestEngine()

	err := engine.Delegate(context.Background(), "video_missing", "owner-1", "coach-1",
		domain.NewCapabilitySet(domain.CapRead))
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)
}

func TestRevokeRemovesGrant(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)
	require.NoError(t, engine.Delegate(ctx, video.ID, "owner-1", "coach-1",
		domain.NewCapabilitySet(domain.CapRead)))

	require.NoError(t, engine.Revoke(ctx, video.ID, "owner-1", "coach-1"))

	caps, err := engine.CapabilitiesOf(ctx, video.ID, "coach-1")
	require.NoError(t, err)
	assert.Empty(t, caps)

	// Revoking an already-absent grant reports the missing grant.
	err = engine.Revoke(ctx, video.ID, "owner-1", "coach-1")
	assert.ErrorIs(t, err, domain.ErrGrantNotFound)
}

func TestRevokeRequiresDeleteHolder(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)
	require.NoError(t, engine.Delegate(ctx, video.ID, "owner-1", "coach-1",
		domain.NewCapabilitySet(domain.CapRead, domain.CapEdit)))

	err = engine.Revoke(ctx, video.ID, "coach-1", "coach-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRevokeOwnerGrantRefused(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)

	err = engine.Revoke(ctx, video.ID, "owner-1", "owner-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	caps, err := engine.CapabilitiesOf(ctx, video.ID, "owner-1")
	require.NoError(t, err)
	assert.True(t, caps.Equal(domain.OwnerCapabilities()))
}

func TestDeleteVideoCascades(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)
	require.NoError(t, engine.Delegate(ctx, video.ID, "owner-1", "coach-1",
		domain.NewCapabilitySet(domain.CapRead, domain.CapEdit)))

	require.NoError(t, engine.DeleteVideo(ctx, video.ID, "owner-1"))

	_, err = engine.GetVideo(ctx, video.ID, "owner-1")
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)

	for _, actor := range []domain.ActorID{"owner-1", "coach-1"} {
		caps, err := engine.CapabilitiesOf(ctx, video.ID, actor)
		require.NoError(t, err)
		assert.Empty(t, caps)
	}

	err = engine.DeleteVideo(ctx, video.ID, "owner-1")
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)
}

func TestDeleteVideoRequiresDelete(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)
	require.NoError(t, engine.Delegate(ctx, video.ID, "owner-1", "coach-1",
		domain.NewCapabilitySet(domain.CapRead, domain.CapEdit)))

	err = engine.DeleteVideo(ctx, video.ID, "coach-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = engine.GetVideo(ctx, video.ID, "owner-1")
	assert.NoError(t, err)
}

func TestGetVideoRequiresRead(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)

	_, err = engine.GetVideo(ctx, video.ID, "stranger")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := engine.GetVideo(ctx, video.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, video.ID, got.ID)
}

func TestAppendAnnotationsRequiresEdit(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)
	require.NoError(t, engine.Delegate(ctx, video.ID, "owner-1", "viewer-1",
		domain.NewCapabilitySet(domain.CapRead)))

	_, err = engine.AppendAnnotations(ctx, video.ID, "viewer-1",
		[]domain.Annotation{{Body: "nice backhand"}})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	annotations, err := engine.GetAnnotations(ctx, video.ID, "viewer-1")
	require.NoError(t, err)
	assert.Empty(t, annotations)
}

func TestAppendAnnotationsStampsAuthorAndSequence(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)
	require.NoError(t, engine.Delegate(ctx, video.ID, "owner-1", "coach-1",
		domain.NewCapabilitySet(domain.CapRead, domain.CapEdit)))

	count, err := engine.AppendAnnotations(ctx, video.ID, "coach-1", []domain.Annotation{
		{Body: "footwork drill at 0:12", Kind: "technique"},
		{Body: "great third shot drop", Kind: "praise"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	annotations, err := engine.GetAnnotations(ctx, video.ID, "owner-1")
	require.NoError(t, err)
	require.Len(t, annotations, 2)
	assert.Equal(t, domain.AnnotationSeq(1), annotations[0].Seq)
	assert.Equal(t, domain.AnnotationSeq(2), annotations[1].Seq)
	for _, a := range annotations {
		assert.Equal(t, domain.ActorID("coach-1"), a.AuthorID)
		assert.False(t, a.CreatedAt.IsZero())
	}
}

func TestSetAnalysisRequiresEdit(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)
	require.NoError(t, engine.Delegate(ctx, video.ID, "owner-1", "viewer-1",
		domain.NewCapabilitySet(domain.CapRead)))

	err = engine.SetAnalysis(ctx, video.ID, "viewer-1", map[string]interface{}{"rallies": 14})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, engine.SetAnalysis(ctx, video.ID, "owner-1",
		map[string]interface{}{"rallies": 14}))

	got, err := engine.GetVideo(ctx, video.ID, "owner-1")
	require.NoError(t, err)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, domain.ActorID("owner-1"), got.Analysis.UpdatedBy)
}

func TestGetAnnotationsRequiresRead(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)

	_, err = engine.GetAnnotations(ctx, video.ID, "stranger")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = engine.GetAnnotations(ctx, "video_missing", "owner-1")
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)
}

func TestListVideosForReturnsReadableVideos(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	owned, err := engine.UploadVideo(ctx, "student-1", domain.VideoMeta{Filename: "own.mp4"})
	require.NoError(t, err)

	shared, err := engine.UploadVideo(ctx, "student-2", domain.VideoMeta{Filename: "shared.mp4"})
	require.NoError(t, err)
	require.NoError(t, engine.Delegate(ctx, shared.ID, "student-2", "student-1",
		domain.NewCapabilitySet(domain.CapRead)))

	editOnly, err := engine.UploadVideo(ctx, "student-3", domain.VideoMeta{Filename: "edit.mp4"})
	require.NoError(t, err)
	require.NoError(t, engine.Delegate(ctx, editOnly.ID, "student-3", "student-1",
		domain.NewCapabilitySet(domain.CapEdit)))

	listed, err := engine.ListVideosFor(ctx, "student-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)

	ids := map[domain.VideoID]domain.CapabilitySet{}
	for _, access := range listed {
		ids[access.Video.ID] = access.Capabilities
	}
	assert.True(t, ids[owned.ID].Equal(domain.OwnerCapabilities()))
	assert.True(t, ids[shared.ID].Equal(domain.NewCapabilitySet(domain.CapRead)))
	assert.NotContains(t, ids, editOnly.ID)
}

func TestConcurrentDelegatesLeaveSingleConsistentGrant(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)

	readOnly := domain.NewCapabilitySet(domain.CapRead)
	readEdit := domain.NewCapabilitySet(domain.CapRead, domain.CapEdit)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		caps := readOnly
		if i%2 == 0 {
			caps = readEdit
		}
		wg.Add(1)
		go func(caps domain.CapabilitySet) {
			defer wg.Done()
			assert.NoError(t, engine.Delegate(ctx, video.ID, "owner-1", "coach-1", caps))
		}(caps)
	}
	wg.Wait()

	// Writes serialize per video, so the result is exactly one of the
	// two grants, never a blend.
	caps, err := engine.CapabilitiesOf(ctx, video.ID, "coach-1")
	require.NoError(t, err)
	assert.True(t, caps.Equal(readOnly) || caps.Equal(readEdit))
}

func TestConcurrentAppendAndDelete(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	video, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := engine.AppendAnnotations(ctx, video.ID, "owner-1",
			[]domain.Annotation{{Body: "note"}})
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrVideoNotFound)
		}
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, engine.DeleteVideo(ctx, video.ID, "owner-1"))
	}()
	wg.Wait()

	_, err = engine.GetVideo(ctx, video.ID, "owner-1")
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)
}

func newEngineWith(videoRepo ports.VideoRepository, grantRepo ports.GrantRepository) ports.AccessService {
	return NewAccessService(videoRepo, grantRepo, keylock.New(), nil, NewMetricsService(nil), zap.NewNop().Sugar())
}

// failingGrantRepository rejects every ledger write.
type failingGrantRepository struct {
	ports.GrantRepository
}

func (r *failingGrantRepository) Upsert(ctx context.Context, grant *domain.Grant) error {
	return errors.New("ledger unavailable")
}

// conflictingVideoRepository reports an id collision on every create.
type conflictingVideoRepository struct {
	ports.VideoRepository
	creates int
}

func (r *conflictingVideoRepository) Create(ctx context.Context, video *domain.Video) error {
	r.creates++
	return domain.ErrIDConflict
}

// vanishingVideoRepository serves the video once and reports it gone on
// every later read, the view an unlocked reader gets when a delete
// lands between its video fetch and its capability check.
type vanishingVideoRepository struct {
	ports.VideoRepository
	mu    sync.Mutex
	reads int
}

func (r *vanishingVideoRepository) GetByID(ctx context.Context, id domain.VideoID) (*domain.Video, error) {
	r.mu.Lock()
	r.reads++
	first := r.reads == 1
	r.mu.Unlock()

	if first {
		return &domain.Video{ID: id, OwnerID: "owner-1", Status: domain.VideoActive}, nil
	}
	return nil, domain.ErrVideoNotFound
}

func TestUploadVideoRollsBackOnGrantFailure(t *testing.T) {
	videoRepo := memory.NewMemoryVideoRepository()
	engine := newEngineWith(videoRepo, &failingGrantRepository{GrantRepository: memory.NewMemoryGrantRepository()})
	ctx := context.Background()

	_, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	require.Error(t, err)

	// No ownerless video may survive the failed grant write.
	videos, err := videoRepo.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, videos)
}

func TestUploadVideoSurfacesPersistentIDConflict(t *testing.T) {
	videoRepo := &conflictingVideoRepository{VideoRepository: memory.NewMemoryVideoRepository()}
	engine := newEngineWith(videoRepo, memory.NewMemoryGrantRepository())
	ctx := context.Background()

	_, err := engine.UploadVideo(ctx, "owner-1", domain.VideoMeta{Filename: "match.mp4"})
	assert.ErrorIs(t, err, domain.ErrIDConflict)
	assert.Equal(t, 2, videoRepo.creates)
}

func TestGetVideoDeletedMidReadReportsNotFound(t *testing.T) {
	engine := newEngineWith(&vanishingVideoRepository{}, memory.NewMemoryGrantRepository())
	ctx := context.Background()

	_, err := engine.GetVideo(ctx, "video_gone", "coach-1")
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)
	assert.NotErrorIs(t, err, domain.ErrForbidden)
}

func TestGetAnnotationsDeletedMidReadReportsNotFound(t *testing.T) {
	engine := newEngineWith(&vanishingVideoRepository{}, memory.NewMemoryGrantRepository())
	ctx := context.Background()

	_, err := engine.GetAnnotations(ctx, "video_gone", "coach-1")
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)
}
