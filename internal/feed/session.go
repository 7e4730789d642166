package feed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/murmurapp/backend/internal/cache"
)

// ErrSessionNotFound means the parked ordering expired or never existed.
// The aggregator treats it as "start a fresh aggregation".
var ErrSessionNotFound = errors.New("feed: session not found")

// SessionStore parks a computed feed ordering (a list of post IDs) so that
// "load more" calls slice the same sequence instead of recomputing it.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, ids []string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) ([]string, error)
}

const sessionKeyPrefix = "feed:session:"

// RedisSessionStore keeps orderings in redis so any server instance can
// continue a session.
type RedisSessionStore struct {
	client *cache.RedisClient
}

// NewRedisSessionStore wraps the shared redis client.
func NewRedisSessionStore(client *cache.RedisClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, ids []string, ttl time.Duration) error {
	// Post IDs are UUIDs; a comma join round-trips safely.
	return s.client.SetEx(ctx, sessionKeyPrefix+sessionID, strings.Join(ids, ","), ttl)
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) ([]string, error) {
	val, err := s.client.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		if cache.IsNil(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if val == "" {
		return []string{}, nil
	}
	return strings.Split(val, ","), nil
}

// MemorySessionStore is the in-process fallback used by tests and
// single-instance development setups.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	ids       []string
	expiresAt time.Time
}

// NewMemorySessionStore returns an empty in-process session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: map[string]memorySession{},
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Save(ctx context.Context, sessionID string, ids []string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]string, len(ids))
	copy(stored, ids)
	s.sessions[sessionID] = memorySession{ids: stored, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || s.now().After(sess.expiresAt) {
		delete(s.sessions, sessionID)
		return nil, ErrSessionNotFound
	}
	out := make([]string, len(sess.ids))
	copy(out, sess.ids)
	return out, nil
}
