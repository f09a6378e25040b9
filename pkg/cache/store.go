package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Sternrassler/brewery-pager/pkg/brewery"
	"github.com/redis/go-redis/v9"
)

// ErrInvalidEntry indicates a stored record could not be decoded.
var ErrInvalidEntry = errors.New("invalid cache entry")

// Store implements the page loader's store with a Redis backend.
type Store struct {
	redis *redis.Client
	keys  Keys
	now   func() time.Time
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithPrefix namespaces all keys under prefix.
func WithPrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.keys = Keys{Prefix: prefix}
	}
}

// NewStore creates a new Redis-backed store.
func NewStore(redisClient *redis.Client, opts ...StoreOption) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	s := &Store{
		redis: redisClient,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// maxUpsertAttempts bounds optimistic retries when a watched record changes
// between read and write.
const maxUpsertAttempts = 10

// UpsertBreweries writes breweries and their type index entries in one
// transaction. A record whose type changed leaves its old index. The records
// are watched, so a concurrent upsert of the same id restarts the write.
func (s *Store) UpsertBreweries(ctx context.Context, breweries []brewery.Brewery) error {
	if len(breweries) == 0 {
		return nil
	}

	keys := make([]string, 0, len(breweries))
	for _, b := range breweries {
		if err := b.Validate(); err != nil {
			return err
		}
		keys = append(keys, s.keys.Brewery(b.ID))
	}

	storedAt := s.now().UTC()
	upsert := func(tx *redis.Tx) error {
		existing, err := tx.MGet(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("redis mget: %w", err)
		}

		// Current type per id, so a repeated id within the batch also
		// leaves the index written earlier in this batch.
		current := make(map[string]string, len(breweries))
		for i, b := range breweries {
			if _, seen := current[b.ID]; seen {
				continue
			}
			if old, ok := decodeEntry(existing[i]); ok {
				current[b.ID] = old.Brewery.Type
			} else {
				current[b.ID] = ""
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, b := range breweries {
				data, err := json.Marshal(Entry{Brewery: b, StoredAt: storedAt})
				if err != nil {
					return fmt.Errorf("marshal brewery %s: %w", b.ID, err)
				}

				if prev := current[b.ID]; prev != "" && prev != b.Type {
					pipe.ZRem(ctx, s.keys.TypeIndex(prev), b.ID)
				}
				current[b.ID] = b.Type
				pipe.Set(ctx, keys[i], data, 0)
				pipe.ZAdd(ctx, s.keys.TypeIndex(b.Type), redis.Z{Score: 0, Member: b.ID})
			}
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		err = s.redis.Watch(ctx, upsert, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		StoreErrors.WithLabelValues("upsert").Inc()
		return fmt.Errorf("redis upsert: %w", err)
	}
	return nil
}

// QueryPage returns breweries of a type ordered by id.
func (s *Store) QueryPage(ctx context.Context, breweryType string, limit, offset int) ([]brewery.Brewery, error) {
	out := []brewery.Brewery{}
	if limit <= 0 {
		return out, nil
	}

	ids, err := s.redis.ZRange(ctx, s.keys.TypeIndex(breweryType), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		StoreErrors.WithLabelValues("query").Inc()
		return nil, fmt.Errorf("redis zrange: %w", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keys.Brewery(id)
	}
	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		StoreErrors.WithLabelValues("query").Inc()
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	for _, v := range values {
		// Index entries without a record are skipped.
		entry, ok := decodeEntry(v)
		if !ok {
			continue
		}
		// Stale index entries of a record that moved type are skipped.
		if entry.Brewery.Type != breweryType {
			continue
		}
		out = append(out, entry.Brewery)
	}
	return out, nil
}

// GetByID returns brewery.ErrNotFound if the id is not stored.
func (s *Store) GetByID(ctx context.Context, id string) (*brewery.Brewery, error) {
	data, err := s.redis.Get(ctx, s.keys.Brewery(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			StoreMisses.Inc()
			return nil, brewery.ErrNotFound
		}
		StoreErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		StoreErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	StoreHits.WithLabelValues("redis").Inc()
	return &entry.Brewery, nil
}

// GetFreshness returns brewery.ErrNotFound for pages never fetched.
func (s *Store) GetFreshness(ctx context.Context, breweryType string, page int) (int64, error) {
	raw, err := s.redis.HGet(ctx, s.keys.Freshness(breweryType), strconv.Itoa(page)).Result()
	if err != nil {
		if err == redis.Nil {
			StoreMisses.Inc()
			return 0, brewery.ErrNotFound
		}
		StoreErrors.WithLabelValues("freshness").Inc()
		return 0, fmt.Errorf("redis hget: %w", err)
	}

	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		StoreErrors.WithLabelValues("freshness").Inc()
		return 0, fmt.Errorf("%w: freshness %q", ErrInvalidEntry, raw)
	}

	StoreHits.WithLabelValues("redis").Inc()
	return ts, nil
}

// SetFreshness replaces the freshness record of (type, page).
func (s *Store) SetFreshness(ctx context.Context, f brewery.PageFreshness) error {
	err := s.redis.HSet(ctx, s.keys.Freshness(f.Type), strconv.Itoa(f.Page), f.LastUpdated).Err()
	if err != nil {
		StoreErrors.WithLabelValues("freshness").Inc()
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// ClearFreshness deletes the freshness hash of one type. Breweries stay.
func (s *Store) ClearFreshness(ctx context.Context, breweryType string) error {
	if err := s.redis.Del(ctx, s.keys.Freshness(breweryType)).Err(); err != nil {
		StoreErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// CountBreweries returns the number of indexed breweries of a type.
func (s *Store) CountBreweries(ctx context.Context, breweryType string) (int64, error) {
	n, err := s.redis.ZCard(ctx, s.keys.TypeIndex(breweryType)).Result()
	if err != nil {
		StoreErrors.WithLabelValues("query").Inc()
		return 0, fmt.Errorf("redis zcard: %w", err)
	}
	return n, nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

// decodeEntry decodes an MGET value; nil and undecodable values report false.
func decodeEntry(v interface{}) (Entry, bool) {
	raw, ok := v.(string)
	if !ok {
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return Entry{}, false
	}
	return entry, true
}
