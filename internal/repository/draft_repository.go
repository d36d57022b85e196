package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bs-edu/bs-admin-api/internal/models"
	appErrors "github.com/bs-edu/bs-admin-api/pkg/errors"
)

// DraftRepository stores wizard drafts in Redis with a TTL. Abandoned
// drafts simply age out.
type DraftRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewDraftRepository constructs a draft repository.
func NewDraftRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) *DraftRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DraftRepository{client: client, ttl: ttl, logger: logger}
}

func draftKey(id string) string {
	return "draft:" + id
}

// Get loads a draft, returning ErrDraftExpired when missing.
func (r *DraftRepository) Get(ctx context.Context, id string) (*models.Draft, error) {
	raw, err := r.client.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrDraftExpired
		}
		return nil, fmt.Errorf("redis get draft %s: %w", id, err)
	}

	var draft models.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("unmarshal draft %s: %w", id, err)
	}
	return &draft, nil
}

// Save stores the draft and refreshes its TTL.
func (r *DraftRepository) Save(ctx context.Context, draft *models.Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", draft.ID, err)
	}
	if err := r.client.Set(ctx, draftKey(draft.ID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft %s: %w", draft.ID, err)
	}
	return nil
}

// Delete removes a draft after submission or cancellation.
func (r *DraftRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, draftKey(id)).Err(); err != nil {
		r.logger.Sugar().Warnw("failed to delete draft", "draft_id", id, "error", err)
		return fmt.Errorf("redis del draft %s: %w", id, err)
	}
	return nil
}
