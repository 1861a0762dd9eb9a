package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoDraft = errors.New("no draft stored")

// Store keeps per-item answer drafts in Redis so a disconnected candidate
// can pick up where they left off. Drafts are convenience state: they
// expire after the TTL and are never part of grading.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

func draftKey(sessionID, itemID string) string {
	return fmt.Sprintf("draft:%s:%s", sessionID, itemID)
}

// Save overwrites the draft for an item and refreshes its TTL. An empty
// draft clears the stored value.
func (s *Store) Save(ctx context.Context, sessionID, itemID, content string) error {
	if content == "" {
		return s.Delete(ctx, sessionID, itemID)
	}
	return s.client.Set(ctx, draftKey(sessionID, itemID), content, s.ttl).Err()
}

// Get returns the stored draft, or ErrNoDraft.
func (s *Store) Get(ctx context.Context, sessionID, itemID string) (string, error) {
	content, err := s.client.Get(ctx, draftKey(sessionID, itemID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoDraft
	}
	if err != nil {
		return "", err
	}
	return content, nil
}

// Delete removes the draft; used on submission so stale drafts never
// resurface.
func (s *Store) Delete(ctx context.Context, sessionID, itemID string) error {
	return s.client.Del(ctx, draftKey(sessionID, itemID)).Err()
}
