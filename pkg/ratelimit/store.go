package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKeyState is the hash holding the shared rate limit state.
const RedisKeyState = "brewery:rate_limit"

// StateStore persists the rate limit state. Load returns nil, nil when no
// state has been saved yet.
type StateStore interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}

// MemoryStateStore keeps the state in process.
type MemoryStateStore struct {
	mu    sync.RWMutex
	state *State
}

// NewMemoryStateStore creates an empty in-process store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

// Load returns a copy of the saved state.
func (m *MemoryStateStore) Load(_ context.Context) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, nil
	}
	s := *m.state
	return &s, nil
}

// Save replaces the saved state.
func (m *MemoryStateStore) Save(_ context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *state
	m.state = &s
	return nil
}

// RedisStateStore shares the state between processes through one Redis hash.
type RedisStateStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStateStore creates a Redis-backed state store.
func NewRedisStateStore(redisClient *redis.Client) *RedisStateStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStateStore{redis: redisClient, key: RedisKeyState}
}

// Load reads the state hash.
func (r *RedisStateStore) Load(ctx context.Context) (*State, error) {
	fields, err := r.redis.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	remaining, err := strconv.Atoi(fields["remaining"])
	if err != nil {
		return nil, fmt.Errorf("parse remaining: %w", err)
	}
	resetAt, err := strconv.ParseInt(fields["reset_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse reset timestamp: %w", err)
	}
	lastUpdate, err := strconv.ParseInt(fields["last_update"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse last update: %w", err)
	}

	state := &State{
		Remaining:  remaining,
		ResetAt:    time.UnixMilli(resetAt),
		LastUpdate: time.UnixMilli(lastUpdate),
	}
	state.UpdateHealth()
	return state, nil
}

// Save writes the state hash atomically.
func (r *RedisStateStore) Save(ctx context.Context, state *State) error {
	err := r.redis.HSet(ctx, r.key,
		"remaining", state.Remaining,
		"reset_at", state.ResetAt.UnixMilli(),
		"last_update", state.LastUpdate.UnixMilli(),
	).Err()
	if err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}
	return nil
}
