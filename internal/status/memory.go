package status

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/health-risk-inference-server/internal/domain"
)

// defaultMemoryMaxSize bounds the in-memory store when no size is given.
const defaultMemoryMaxSize = 4096

type memoryEntry struct {
	record    *domain.StatusRecord
	expiresAt time.Time
}

// MemoryStore is an LRU-capped, per-record-expiring status store. It
// stands in for redis in development and tests; semantics match the
// redis store, including TTL expiry on read.
type MemoryStore struct {
	cache *lru.Cache[string, memoryEntry]
	now   func() time.Time
}

// NewMemoryStore creates an in-memory status store holding at most
// maxSize records.
func NewMemoryStore(maxSize int) (*MemoryStore, error) {
	if maxSize <= 0 {
		maxSize = defaultMemoryMaxSize
	}
	cache, err := lru.New[string, memoryEntry](maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create status cache: %w", err)
	}
	return &MemoryStore{cache: cache, now: time.Now}, nil
}

// Set stores one status record with the given TTL.
func (s *MemoryStore) Set(_ context.Context, predictionID string, record *domain.StatusRecord, ttl time.Duration) error {
	s.cache.Add(keyPrefix+predictionID, memoryEntry{
		record:    record,
		expiresAt: s.now().Add(ttl),
	})
	return nil
}

// Get returns the record, or domain.ErrNotFound when absent or expired.
// Expired entries are evicted on read.
func (s *MemoryStore) Get(_ context.Context, predictionID string) (*domain.StatusRecord, error) {
	key := keyPrefix + predictionID
	entry, ok := s.cache.Get(key)
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		s.cache.Remove(key)
		return nil, domain.ErrNotFound
	}
	return entry.record, nil
}

// Len reports the number of live entries, expired or not.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
