package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DraftKey identifies one slot workspace of one identity.
type DraftKey struct {
	UID      string
	Category string
	Slot     string
}

func (k DraftKey) String() string {
	return fmt.Sprintf("draft:%s:%s:%s", k.Category, k.Slot, k.UID)
}

// DraftStore persists in-progress slot workspaces between requests.
type DraftStore interface {
	Load(ctx context.Context, key DraftKey) (Draft, bool, error)
	Save(ctx context.Context, key DraftKey, draft Draft) error
	Delete(ctx context.Context, key DraftKey) error
}

type redisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftStore keeps drafts as JSON values that expire after ttl of inactivity.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) DraftStore {
	return &redisDraftStore{client: client, ttl: ttl}
}

func (s *redisDraftStore) Load(ctx context.Context, key DraftKey) (Draft, bool, error) {
	raw, err := s.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Draft{}, false, nil
	}
	if err != nil {
		return Draft{}, false, err
	}

	var draft Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return Draft{}, false, fmt.Errorf("decode draft: %w", err)
	}
	return draft, true, nil
}

func (s *redisDraftStore) Save(ctx context.Context, key DraftKey, draft Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key.String(), payload, s.ttl).Err()
}

func (s *redisDraftStore) Delete(ctx context.Context, key DraftKey) error {
	return s.client.Del(ctx, key.String()).Err()
}

type memoryDraftStore struct {
	mu     sync.Mutex
	drafts map[DraftKey]Draft
}

// NewMemoryDraftStore keeps drafts in process memory. Used when Redis is not configured.
func NewMemoryDraftStore() DraftStore {
	return &memoryDraftStore{drafts: make(map[DraftKey]Draft)}
}

func (s *memoryDraftStore) Load(_ context.Context, key DraftKey) (Draft, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[key]
	if !ok {
		return Draft{}, false, nil
	}
	return draft.clone(), true, nil
}

func (s *memoryDraftStore) Save(_ context.Context, key DraftKey, draft Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[key] = draft.clone()
	return nil
}

func (s *memoryDraftStore) Delete(_ context.Context, key DraftKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, key)
	return nil
}
