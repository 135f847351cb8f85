package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisVideoRepository persists video records as JSON values keyed by
// video id, with a per-owner index set. Read-modify-write sequences are
// safe because the engine serializes all writes to one video id.
type RedisVideoRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisVideoRepository(client *redis.Client) ports.VideoRepository {
	return &RedisVideoRepository{
		client: client,
		prefix: "clipcoach:video:",
	}
}

type storedVideo struct {
	ID          string                  `json:"id"`
	OwnerID     string                  `json:"owner_id"`
	Filename    string                  `json:"filename"`
	Status      string                  `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
	Annotations []storedAnnotation      `json:"annotations,omitempty"`
	Analysis    *storedAnalysisSnapshot `json:"analysis,omitempty"`
}

type storedAnnotation struct {
	Seq       int       `json:"seq"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	Body      string    `json:"body"`
	Kind      string    `json:"kind"`
}

type storedAnalysisSnapshot struct {
	Data      map[string]interface{} `json:"data"`
	UpdatedBy string                 `json:"updated_by"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func (r *RedisVideoRepository) videoKey(id domain.VideoID) string {
	return r.prefix + string(id)
}

func (r *RedisVideoRepository) ownerKey(ownerID domain.ActorID) string {
	return r.prefix + "owner:" + string(ownerID)
}

func (r *RedisVideoRepository) Create(ctx context.Context, video *domain.Video) error {
	key := r.videoKey(video.ID)

	data, err := json.Marshal(toStoredVideo(video))
	if err != nil {
		return fmt.Errorf("failed to marshal video: %w", err)
	}

	created, err := r.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set video in Redis: %w", err)
	}
	if !created {
		return domain.ErrIDConflict
	}

	if err := r.client.SAdd(ctx, r.ownerKey(video.OwnerID), string(video.ID)).Err(); err != nil {
		return fmt.Errorf("failed to index video by owner: %w", err)
	}

	return nil
}

func (r *RedisVideoRepository) GetByID(ctx context.Context, id domain.VideoID) (*domain.Video, error) {
	data, err := r.client.Get(ctx, r.videoKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video from Redis: %w", err)
	}

	var stored storedVideo
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video: %w", err)
	}

	return fromStoredVideo(&stored), nil
}

func (r *RedisVideoRepository) AppendAnnotations(ctx context.Context, id domain.VideoID, annotations []domain.Annotation) (int, error) {
	video, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if video.Status != domain.VideoActive {
		return 0, domain.ErrVideoNotFound
	}

	seq := domain.AnnotationSeq(len(video.Annotations))
	for _, a := range annotations {
		seq++
		a.Seq = seq
		video.Annotations = append(video.Annotations, a)
	}

	if err := r.save(ctx, video); err != nil {
		return 0, err
	}
	return len(annotations), nil
}

func (r *RedisVideoRepository) SetAnalysis(ctx context.Context, id domain.VideoID, snapshot *domain.AnalysisSnapshot) error {
	video, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if video.Status != domain.VideoActive {
		return domain.ErrVideoNotFound
	}

	snap := *snapshot
	video.Analysis = &snap
	return r.save(ctx, video)
}

func (r *RedisVideoRepository) Delete(ctx context.Context, id domain.VideoID) error {
	video, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.videoKey(id))
	pipe.SRem(ctx, r.ownerKey(video.OwnerID), string(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete video from Redis: %w", err)
	}

	return nil
}

func (r *RedisVideoRepository) ListByOwner(ctx context.Context, ownerID domain.ActorID) ([]*domain.Video, error) {
	ids, err := r.client.SMembers(ctx, r.ownerKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list owner videos: %w", err)
	}

	var videos []*domain.Video
	for _, id := range ids {
		video, err := r.GetByID(ctx, domain.VideoID(id))
		if err == domain.ErrVideoNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}

	return videos, nil
}

func (r *RedisVideoRepository) save(ctx context.Context, video *domain.Video) error {
	data, err := json.Marshal(toStoredVideo(video))
	if err != nil {
		return fmt.Errorf("failed to marshal video: %w", err)
	}
	if err := r.client.Set(ctx, r.videoKey(video.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update video in Redis: %w", err)
	}
	return nil
}

func toStoredVideo(v *domain.Video) *storedVideo {
	out := &storedVideo{
		ID:        string(v.ID),
		OwnerID:   string(v.OwnerID),
		Filename:  v.Filename,
		Status:    string(v.Status),
		CreatedAt: v.CreatedAt,
	}
	for _, a := range v.Annotations {
		out.Annotations = append(out.Annotations, storedAnnotation{
			Seq:       int(a.Seq),
			AuthorID:  string(a.AuthorID),
			CreatedAt: a.CreatedAt,
			Body:      a.Body,
			Kind:      a.Kind,
		})
	}
	if v.Analysis != nil {
		out.Analysis = &storedAnalysisSnapshot{
			Data:      v.Analysis.Data,
			UpdatedBy: string(v.Analysis.UpdatedBy),
			UpdatedAt: v.Analysis.UpdatedAt,
		}
	}
	return out
}

func fromStoredVideo(s *storedVideo) *domain.Video {
	out := &domain.Video{
		ID:        domain.VideoID(s.ID),
		OwnerID:   domain.ActorID(s.OwnerID),
		Filename:  s.Filename,
		Status:    domain.VideoStatus(s.Status),
		CreatedAt: s.CreatedAt,
	}
	for _, a := range s.Annotations {
		out.Annotations = append(out.Annotations, domain.Annotation{
			Seq:       domain.AnnotationSeq(a.Seq),
			AuthorID:  domain.ActorID(a.AuthorID),
			CreatedAt: a.CreatedAt,
			Body:      a.Body,
			Kind:      a.Kind,
		})
	}
	if s.Analysis != nil {
		out.Analysis = &domain.AnalysisSnapshot{
			Data:      s.Analysis.Data,
			UpdatedBy: domain.ActorID(s.Analysis.UpdatedBy),
			UpdatedAt: s.Analysis.UpdatedAt,
		}
	}
	return out
}
