// Package session persists per-conversation arbitration state (focus latch
// and clarification list) in Redis between process restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/clarify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/latch"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
)

// ErrNotFound is returned when no state is stored for a conversation.
var ErrNotFound = errors.New("session: not found")

// DefaultTTL bounds how long an idle conversation's state is kept.
const DefaultTTL = 30 * time.Minute

// State is the persisted slice of a session. The ledger lives in SQLite.
type State struct {
	Latch         *latch.Latch      `json:"latch,omitempty"`
	Clarification *clarify.Snapshot `json:"clarification,omitempty"`
	SavedAt       time.Time         `json:"saved_at"`
}

// Capture copies the persistable state out of a live session.
func Capture(s *orchestrator.Session) State {
	return State{
		Latch:         s.Latch.Get(),
		Clarification: s.Clarification.Get(),
		SavedAt:       time.Now().UTC(),
	}
}

// Apply restores persisted state into a live session.
func (st State) Apply(s *orchestrator.Session) {
	s.Latch.Restore(st.Latch)
	s.Clarification.Restore(st.Clarification)
}

// RedisStore keeps one JSON value per conversation with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client: client,
		prefix: "arbiter:session:",
		ttl:    ttl,
	}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Save writes the conversation's state and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, sessionID string, st State) error {
	if st.SavedAt.IsZero() {
		st.SavedAt = time.Now().UTC()
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

// Load reads the conversation's state. Expired or unknown sessions return
// ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (State, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, fmt.Errorf("load session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return State{}, fmt.Errorf("load session state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("unmarshal session state: %w", err)
	}
	return st, nil
}

// Delete drops the conversation's state.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session state: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
