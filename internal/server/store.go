// internal/server/store.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"rideviz/internal/common/database"
	"rideviz/internal/models"
	"rideviz/internal/viz"
)

var (
	ErrSessionStoreFailed = errors.New("SESSION_STORE_FAILED")
)

// SessionState is everything kept per session between requests: the view
// state the shell renders and the chat transcript.
type SessionState struct {
	View       viz.ViewState        `json:"view"`
	Transcript []models.ChatMessage `json:"transcript"`
}

func NewSessionState() *SessionState {
	return &SessionState{
		View:       viz.NewViewState(),
		Transcript: []models.ChatMessage{},
	}
}

// Store persists session state. Get returns (nil, nil) for unknown keys.
type Store interface {
	Get(ctx context.Context, key string) (*SessionState, error)
	Put(ctx context.Context, key string, state *SessionState) error
	Delete(ctx context.Context, key string) error
}

// ==========================
// Redis-backed store
// ==========================

type RedisStore struct {
	client *database.RedisClient
	ttl    time.Duration
}

func NewRedisStore(client *database.RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*SessionState, error) {
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionStoreFailed, err)
	}

	var state SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("%w: corrupt session payload: %v", ErrSessionStoreFailed, err)
	}
	return &state, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, state *SessionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionStoreFailed, err)
	}
	if err := s.client.Set(ctx, key, payload, s.ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionStoreFailed, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionStoreFailed, err)
	}
	return nil
}

// ==========================
// In-memory store
// ==========================

// MemoryStore backs tests and redis-less local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*SessionState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*SessionState)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	// Copy through JSON so callers never share memory with the store.
	payload, _ := json.Marshal(state)
	var clone SessionState
	_ = json.Unmarshal(payload, &clone)
	return &clone, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, state *SessionState) error {
	payload, _ := json.Marshal(state)
	var clone SessionState
	_ = json.Unmarshal(payload, &clone)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = &clone
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
