package memory

import (
	"context"
	"testing"
	"time"

	"clipcoach/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVideo(id domain.VideoID, owner domain.ActorID) *domain.Video {
	return &domain.Video{
		ID:        id,
		OwnerID:   owner,
		Filename:  "match.mp4",
		Status:    domain.VideoActive,
		CreatedAt: time.Now(),
	}
}

func TestVideoCreateAndGet(t *testing.T) {
	repo := NewMemoryVideoRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newVideo("video_1", "owner-1")))

	got, err := repo.GetByID(ctx, "video_1")
	require.NoError(t, err)
	assert.Equal(t, domain.ActorID("owner-1"), got.OwnerID)

	_, err = repo.GetByID(ctx, "video_missing")
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)
}

func TestVideoCreateDuplicateID(t *testing.T) {
	repo := NewMemoryVideoRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newVideo("video_1", "owner-1")))
	err := repo.Create(ctx, newVideo("video_1", "owner-2"))
	assert.ErrorIs(t, err, domain.ErrIDConflict)

	// The original record is untouched.
	got, err := repo.GetByID(ctx, "video_1")
	require.NoError(t, err)
	assert.Equal(t, domain.ActorID("owner-1"), got.OwnerID)
}

func TestVideoAppendAnnotationsSequencing(t *testing.T) {
	repo := NewMemoryVideoRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newVideo("video_1", "owner-1")))

	count, err := repo.AppendAnnotations(ctx, "video_1", []domain.Annotation{
		{Body: "first"}, {Body: "second"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.AppendAnnotations(ctx, "video_1", []domain.Annotation{{Body: "third"}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.GetByID(ctx, "video_1")
	require.NoError(t, err)
	require.Len(t, got.Annotations, 3)
	for i, a := range got.Annotations {
		assert.Equal(t, domain.AnnotationSeq(i+1), a.Seq)
	}
}

func TestVideoGetReturnsSnapshot(t *testing.T) {
	repo := NewMemoryVideoRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newVideo("video_1", "owner-1")))
	_, err := repo.AppendAnnotations(ctx, "video_1", []domain.Annotation{{Body: "original"}})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "video_1")
	require.NoError(t, err)

	// Mutating the returned copy must not leak into the store.
	got.Annotations[0].Body = "tampered"
	got.Filename = "tampered.mp4"

	fresh, err := repo.GetByID(ctx, "video_1")
	require.NoError(t, err)
	assert.Equal(t, "original", fresh.Annotations[0].Body)
	assert.Equal(t, "match.mp4", fresh.Filename)
}

func TestVideoSetAnalysis(t *testing.T) {
	repo := NewMemoryVideoRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newVideo("video_1", "owner-1")))

	err := repo.SetAnalysis(ctx, "video_1", &domain.AnalysisSnapshot{
		Data:      map[string]interface{}{"rallies": 12},
		UpdatedBy: "owner-1",
		UpdatedAt: time.Now(),
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "video_1")
	require.NoError(t, err)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, 12, got.Analysis.Data["rallies"])

	err = repo.SetAnalysis(ctx, "video_missing", &domain.AnalysisSnapshot{})
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)
}

func TestVideoDeleteIsHard(t *testing.T) {
	repo := NewMemoryVideoRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newVideo("video_1", "owner-1")))
	require.NoError(t, repo.Delete(ctx, "video_1"))

	_, err := repo.GetByID(ctx, "video_1")
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "video_1"), domain.ErrVideoNotFound)

	// The id is free for reuse after a hard delete.
	require.NoError(t, repo.Create(ctx, newVideo("video_1", "owner-2")))
}

func TestVideoListByOwner(t *testing.T) {
	repo := NewMemoryVideoRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newVideo("video_1", "owner-1")))
	require.NoError(t, repo.Create(ctx, newVideo("video_2", "owner-1")))
	require.NoError(t, repo.Create(ctx, newVideo("video_3", "owner-2")))

	owned, err := repo.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	none, err := repo.ListByOwner(ctx, "owner-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}
