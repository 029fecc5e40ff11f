package coordinator

import (
	"sync"

	"github.com/health-risk-inference-server/internal/domain"
)

// requestQueue is the only structure mutated by both the submission path
// and the scheduler. Append and batch extraction are atomic under one
// mutex; a still-queued request can be removed for cancellation.
type requestQueue struct {
	mu    sync.Mutex
	items []*domain.PredictionRequest
}

func newRequestQueue() *requestQueue {
	return &requestQueue{}
}

// Push appends one request.
func (q *requestQueue) Push(req *domain.PredictionRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, req)
}

// PopN atomically removes and returns up to n requests from the front.
func (q *requestQueue) PopN(n int) []*domain.PredictionRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > len(q.items) {
		n = len(q.items)
	}
	if n <= 0 {
		return nil
	}
	batch := make([]*domain.PredictionRequest, n)
	copy(batch, q.items[:n])
	q.items = append(q.items[:0:0], q.items[n:]...)
	return batch
}

// Remove deletes a still-queued request by id, reporting whether it was
// found. Requests already handed to the scheduler are not reachable here.
func (q *requestQueue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, req := range q.items {
		if req.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Len reports the number of queued requests.
func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
