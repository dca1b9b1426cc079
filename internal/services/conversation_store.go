package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"grievanceBack/internal/models"
)

const defaultSessionTTL = time.Hour

// ConversationStore keeps chat session state between turns.
type ConversationStore interface {
	Get(ctx context.Context, sessionID string) (models.Conversation, error)
	Save(ctx context.Context, conv models.Conversation) error
	Delete(ctx context.Context, sessionID string) error
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

type MemoryConversationStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]models.Conversation
}

func NewMemoryConversationStore(ttl time.Duration) *MemoryConversationStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &MemoryConversationStore{
		ttl:   ttl,
		items: make(map[string]models.Conversation),
	}
}

func (s *MemoryConversationStore) Get(_ context.Context, sessionID string) (models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.items[sessionID]
	if !ok {
		return models.Conversation{}, models.ErrSessionNotFound
	}
	if time.Since(conv.UpdatedAt) > s.ttl {
		delete(s.items, sessionID)
		return models.Conversation{}, models.ErrSessionNotFound
	}
	return conv, nil
}

func (s *MemoryConversationStore) Save(_ context.Context, conv models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv.UpdatedAt = time.Now()
	s.items[conv.SessionID] = conv
	return nil
}

func (s *MemoryConversationStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, sessionID)
	return nil
}

func (s *MemoryConversationStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, conv := range s.items {
		if now.Sub(conv.UpdatedAt) > s.ttl {
			delete(s.items, id)
			purged++
		}
	}
	return purged, nil
}

// RedisConversationStore keeps sessions in Redis with a TTL, so expiry
// needs no cleaner pass.
type RedisConversationStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisConversationStore(client *redis.Client, ttl time.Duration) *RedisConversationStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisConversationStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return "chat:session:" + sessionID
}

func (s *RedisConversationStore) Get(ctx context.Context, sessionID string) (models.Conversation, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Conversation{}, models.ErrSessionNotFound
	}
	if err != nil {
		return models.Conversation{}, err
	}

	var conv models.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

func (s *RedisConversationStore) Save(ctx context.Context, conv models.Conversation) error {
	conv.UpdatedAt = time.Now()
	data, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(conv.SessionID), data, s.ttl).Err()
}

func (s *RedisConversationStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}

func (s *RedisConversationStore) PurgeExpired(context.Context, time.Time) (int, error) {
	// Redis expires keys on its own.
	return 0, nil
}
