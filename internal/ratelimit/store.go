package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("form session not found")

// Store keeps form sessions for the lifetime of a page visit. Get returns a
// copy; changes become visible to other callers only after Save.
type Store interface {
	Open(ctx context.Context, form Form) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

// MemoryStore is a size-bounded store whose entries expire after ttl.
type MemoryStore struct {
	cache *expirable.LRU[string, Session]
	now   func() time.Time
}

func NewMemoryStore(size int, ttl time.Duration, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		cache: expirable.NewLRU[string, Session](size, nil, ttl),
		now:   now,
	}
}

func (m *MemoryStore) Open(_ context.Context, form Form) (*Session, error) {
	s := Session{ID: uuid.NewString(), Form: form, OpenedAt: m.now()}
	m.cache.Add(s.ID, s)
	return &s, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("save session: %w", ErrSessionNotFound)
	}
	m.cache.Add(s.ID, *s)
	return nil
}

const redisKeyPrefix = "form_session:"

// RedisStore keeps sessions as JSON values with a TTL so that every replica
// sees the same attempt counters.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, ttl time.Duration, now func() time.Time) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, ttl: ttl, now: now}
}

func (r *RedisStore) Open(ctx context.Context, form Form) (*Session, error) {
	s := &Session{ID: uuid.NewString(), Form: form, OpenedAt: r.now()}
	if err := r.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("save session: %w", ErrSessionNotFound)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+s.ID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
