package repository

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupStore remembers callback keys that have already been processed, so a
// redelivered notification is dropped instead of handled twice.
type DedupStore interface {
	// MarkProcessed records key and reports whether this was its first delivery.
	MarkProcessed(ctx context.Context, key string) (bool, error)
}

// Keys are kept long enough to outlive the provider's redelivery window.
const dedupExpiry = 24 * time.Hour

// RedisDedupStore backs dedup with SETNX so the check-and-mark is atomic
// across processes.
type RedisDedupStore struct {
	client *redis.Client
}

func NewRedisDedupStore(addr, password string, db int) *RedisDedupStore {
	return &RedisDedupStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (r *RedisDedupStore) MarkProcessed(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, "callback:"+key, "processed", dedupExpiry).Result()
}

// MemoryDedupStore is the single-process fallback when no Redis address is
// configured.
type MemoryDedupStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryDedupStore() *MemoryDedupStore {
	s := &MemoryDedupStore{seen: make(map[string]time.Time)}
	go s.cleanup()
	return s
}

func (s *MemoryDedupStore) MarkProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.seen[key]; ok && time.Since(t) < dedupExpiry {
		return false, nil
	}
	s.seen[key] = time.Now()
	return true, nil
}

func (s *MemoryDedupStore) cleanup() {
	tick := time.NewTicker(time.Hour)
	for range tick.C {
		s.mu.Lock()
		for k, t := range s.seen {
			if time.Since(t) >= dedupExpiry {
				delete(s.seen, k)
			}
		}
		s.mu.Unlock()
	}
}
