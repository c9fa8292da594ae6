package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"civicbot/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// draftTTL bounds how long an abandoned draft lingers in Redis.
const draftTTL = 24 * time.Hour

// RedisStore keeps drafts as JSON blobs in Redis, one key per user. Use it
// when the bot runs as more than one process behind the same token.
type RedisStore struct {
	Client *redis.Client
}

// NewRedisStore wraps a connected Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func draftKey(userID int64) string {
	return fmt.Sprintf("draft:%d", userID)
}

// Load fetches and decodes the user's draft; nil if the key is absent.
func (s *RedisStore) Load(ctx context.Context, userID int64) (*models.ConversationDraft, error) {
	raw, err := s.Client.Get(ctx, draftKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d models.ConversationDraft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode draft for user %d: %w", userID, err)
	}
	return &d, nil
}

// Save encodes and stores the draft with a TTL.
func (s *RedisStore) Save(ctx context.Context, userID int64, d *models.ConversationDraft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, draftKey(userID), raw, draftTTL).Err()
}

// Clear deletes the user's draft key.
func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	return s.Client.Del(ctx, draftKey(userID)).Err()
}

var _ Store = (*RedisStore)(nil)
