package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/socialsidekick/socialsidekick/backend/api/pkg/metrics"
)

// Store is an explicit cache-aside wrapper with a TTL per entry. Callers pass
// the key and a fill function at the call site; nothing is intercepted
// globally. Backed by Redis when a client is provided, otherwise by an
// in-process map (single-instance deployments and tests).
type Store struct {
	client *redis.Client
	prefix string

	mu  sync.RWMutex
	mem map[string]memEntry
}

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// New creates a Store. client may be nil; prefix may be empty.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "cache:"
	}
	return &Store{client: client, prefix: prefix, mem: make(map[string]memEntry)}
}

func (s *Store) key(k string) string { return s.prefix + k }

// Get unmarshals the cached value for key into dest. Returns false on miss.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	var b []byte
	if s.client != nil {
		raw, err := s.client.Get(ctx, s.key(key)).Bytes()
		if err != nil {
			if err == redis.Nil {
				return false, nil
			}
			return false, err
		}
		b = raw
	} else {
		s.mu.RLock()
		e, ok := s.mem[key]
		s.mu.RUnlock()
		if !ok || time.Now().After(e.expiresAt) {
			return false, nil
		}
		b = e.data
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores value under key with the given TTL.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	if s.client != nil {
		return s.client.Set(ctx, s.key(key), b, ttl).Err()
	}
	s.mu.Lock()
	s.mem[key] = memEntry{data: b, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Do implements cache-aside: on hit it unmarshals into dest, on miss it runs
// fill, stores the result for ttl and unmarshals it into dest. Cache storage
// failures are not fatal; the filled value still reaches the caller.
func (s *Store) Do(ctx context.Context, key string, ttl time.Duration, dest interface{}, fill func(ctx context.Context) (interface{}, error)) error {
	hit, err := s.Get(ctx, key, dest)
	if err == nil && hit {
		metrics.AnalyticsCacheHits.WithLabelValues("hit").Inc()
		return nil
	}
	metrics.AnalyticsCacheHits.WithLabelValues("miss").Inc()

	v, err := fill(ctx)
	if err != nil {
		return err
	}
	_ = s.Set(ctx, key, v, ttl)

	// round-trip through JSON so hit and miss paths yield identical shapes
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}
