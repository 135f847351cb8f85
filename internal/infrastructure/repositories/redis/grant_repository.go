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

// RedisGrantRepository stores one hash per video, one field per actor,
// plus a per-actor index set for reverse lookups.
type RedisGrantRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisGrantRepository(client *redis.Client) ports.GrantRepository {
	return &RedisGrantRepository{
		client: client,
		prefix: "clipcoach:grants:",
	}
}

type storedGrant struct {
	VideoID      string    `json:"video_id"`
	ActorID      string    `json:"actor_id"`
	Capabilities []string  `json:"capabilities"`
	GrantedAt    time.Time `json:"granted_at"`
	GrantedBy    string    `json:"granted_by"`
}

func (r *RedisGrantRepository) videoKey(videoID domain.VideoID) string {
	return r.prefix + string(videoID)
}

func (r *RedisGrantRepository) actorKey(actorID domain.ActorID) string {
	return r.prefix + "actor:" + string(actorID)
}

func (r *RedisGrantRepository) Upsert(ctx context.Context, grant *domain.Grant) error {
	data, err := json.Marshal(toStoredGrant(grant))
	if err != nil {
		return fmt.Errorf("failed to marshal grant: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.videoKey(grant.VideoID), string(grant.ActorID), data)
	pipe.SAdd(ctx, r.actorKey(grant.ActorID), string(grant.VideoID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to upsert grant in Redis: %w", err)
	}

	return nil
}

func (r *RedisGrantRepository) Revoke(ctx context.Context, videoID domain.VideoID, actorID domain.ActorID) error {
	removed, err := r.client.HDel(ctx, r.videoKey(videoID), string(actorID)).Result()
	if err != nil {
		return fmt.Errorf("failed to revoke grant in Redis: %w", err)
	}
	if removed == 0 {
		return domain.ErrGrantNotFound
	}

	if err := r.client.SRem(ctx, r.actorKey(actorID), string(videoID)).Err(); err != nil {
		return fmt.Errorf("failed to unindex grant: %w", err)
	}

	return nil
}

func (r *RedisGrantRepository) Capabilities(ctx context.Context, videoID domain.VideoID, actorID domain.ActorID) (domain.CapabilitySet, error) {
	data, err := r.client.HGet(ctx, r.videoKey(videoID), string(actorID)).Result()
	if err == redis.Nil {
		return domain.CapabilitySet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grant from Redis: %w", err)
	}

	var stored storedGrant
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grant: %w", err)
	}

	return fromStoredGrant(&stored).Capabilities, nil
}

func (r *RedisGrantRepository) ListByVideo(ctx context.Context, videoID domain.VideoID) ([]*domain.Grant, error) {
	fields, err := r.client.HGetAll(ctx, r.videoKey(videoID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list grants from Redis: %w", err)
	}

	var grants []*domain.Grant
	for _, data := range fields {
		var stored storedGrant
		if err := json.Unmarshal([]byte(data), &stored); err != nil {
			return nil, fmt.Errorf("failed to unmarshal grant: %w", err)
		}
		grants = append(grants, fromStoredGrant(&stored))
	}

	return grants, nil
}

func (r *RedisGrantRepository) ListByActor(ctx context.Context, actorID domain.ActorID) ([]*domain.Grant, error) {
	videoIDs, err := r.client.SMembers(ctx, r.actorKey(actorID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list actor grants: %w", err)
	}

	var grants []*domain.Grant
	for _, videoID := range videoIDs {
		data, err := r.client.HGet(ctx, r.videoKey(domain.VideoID(videoID)), string(actorID)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get grant from Redis: %w", err)
		}

		var stored storedGrant
		if err := json.Unmarshal([]byte(data), &stored); err != nil {
			return nil, fmt.Errorf("failed to unmarshal grant: %w", err)
		}
		grants = append(grants, fromStoredGrant(&stored))
	}

	return grants, nil
}

func (r *RedisGrantRepository) Purge(ctx context.Context, videoID domain.VideoID) (int, error) {
	fields, err := r.client.HGetAll(ctx, r.videoKey(videoID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read grants before purge: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.videoKey(videoID))
	for actorID := range fields {
		pipe.SRem(ctx, r.actorKey(domain.ActorID(actorID)), string(videoID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to purge grants from Redis: %w", err)
	}

	return len(fields), nil
}

func toStoredGrant(g *domain.Grant) *storedGrant {
	out := &storedGrant{
		VideoID:   string(g.VideoID),
		ActorID:   string(g.ActorID),
		GrantedAt: g.GrantedAt,
		GrantedBy: string(g.GrantedBy),
	}
	for _, c := range g.Capabilities.Slice() {
		out.Capabilities = append(out.Capabilities, string(c))
	}
	return out
}

func fromStoredGrant(s *storedGrant) *domain.Grant {
	caps := domain.CapabilitySet{}
	for _, c := range s.Capabilities {
		caps[domain.Capability(c)] = struct{}{}
	}
	return &domain.Grant{
		VideoID:      domain.VideoID(s.VideoID),
		ActorID:      domain.ActorID(s.ActorID),
		Capabilities: caps,
		GrantedAt:    s.GrantedAt,
		GrantedBy:    domain.ActorID(s.GrantedBy),
	}
}
