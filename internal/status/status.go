// Package status provides implementations of the external prediction
// status store: a redis-backed store for deployment and an in-memory
// LRU-capped store for development and tests.
package status

import (
	"time"

	"github.com/health-risk-inference-server/internal/domain"
)

// keyPrefix namespaces prediction status keys in the shared store.
const keyPrefix = "prediction:status:"

// TTLPolicy selects the record lifetime per lifecycle state: short while
// the prediction is active or failed, long once completed.
type TTLPolicy struct {
	Active    time.Duration
	Completed time.Duration
	Failed    time.Duration
}

// DefaultTTLPolicy matches the service contract: 1h active, 24h after
// completion, 1h after failure.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Active:    time.Hour,
		Completed: 24 * time.Hour,
		Failed:    time.Hour,
	}
}

// For returns the TTL to apply for a record in the given state.
func (p TTLPolicy) For(s domain.RequestStatus) time.Duration {
	switch s {
	case domain.StatusCompleted:
		return p.Completed
	case domain.StatusFailed:
		return p.Failed
	default:
		return p.Active
	}
}
