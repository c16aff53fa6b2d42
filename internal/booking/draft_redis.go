package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "booking:draft:"

// RedisDraftStore keeps drafts in Redis so a booking wizard survives API
// instance restarts. Same contract as MemoryDraftStore; TTL is enforced by
// Redis key expiry.
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftStore creates a Redis-backed draft store.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	if client == nil {
		panic("booking: redis client required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisDraftStore{client: client, ttl: ttl}
}

var _ DraftStore = (*RedisDraftStore)(nil)

func (s *RedisDraftStore) Start(ctx context.Context, userID, serviceID string) (Draft, error) {
	d := Draft{ServiceID: serviceID}
	if err := s.put(ctx, userID, d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

func (s *RedisDraftStore) Update(ctx context.Context, userID string, patch DraftPatch) (Draft, error) {
	d, err := s.Get(ctx, userID)
	if err != nil {
		return Draft{}, err
	}
	d = d.apply(patch)
	if err := s.put(ctx, userID, d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

func (s *RedisDraftStore) Get(ctx context.Context, userID string) (Draft, error) {
	raw, err := s.client.Get(ctx, draftKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Draft{}, ErrNoDraft
	}
	if err != nil {
		return Draft{}, fmt.Errorf("booking: load draft: %w", err)
	}

	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("booking: decode draft: %w", err)
	}
	return d, nil
}

func (s *RedisDraftStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, draftKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("booking: clear draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) put(ctx context.Context, userID string, d Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("booking: encode draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKeyPrefix+userID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("booking: save draft: %w", err)
	}
	return nil
}
