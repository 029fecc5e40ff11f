package status

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/health-risk-inference-server/internal/domain"
)

// RedisStore persists status records in redis with per-key TTL.
type RedisStore struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisStore creates a redis-backed status store from a redis URL.
func NewRedisStore(logger *logrus.Logger, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return &RedisStore{
		client: redis.NewClient(opts),
		logger: logger,
	}, nil
}

// Ping verifies connectivity. Called once at startup; the store stays
// best-effort afterwards.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Set writes one status record with the given TTL.
func (s *RedisStore) Set(ctx context.Context, predictionID string, record *domain.StatusRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal status record: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+predictionID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write status record: %w", err)
	}
	return nil
}

// Get reads one status record; domain.ErrNotFound when absent or expired.
func (s *RedisStore) Get(ctx context.Context, predictionID string) (*domain.StatusRecord, error) {
	data, err := s.client.Get(ctx, keyPrefix+predictionID).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status record: %w", err)
	}

	record := &domain.StatusRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status record: %w", err)
	}
	return record, nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
