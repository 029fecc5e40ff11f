package coordinator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-risk-inference-server/internal/domain"
)

func queuedRequest(id string) *domain.PredictionRequest {
	return &domain.PredictionRequest{ID: id, Status: domain.StatusQueued}
}

func TestRequestQueue_FIFO(t *testing.T) {
	q := newRequestQueue()
	for i := 0; i < 5; i++ {
		q.Push(queuedRequest(fmt.Sprintf("r-%d", i)))
	}
	require.Equal(t, 5, q.Len())

	batch := q.PopN(3)
	require.Len(t, batch, 3)
	assert.Equal(t, "r-0", batch[0].ID)
	assert.Equal(t, "r-2", batch[2].ID)
	assert.Equal(t, 2, q.Len())

	rest := q.PopN(10)
	require.Len(t, rest, 2)
	assert.Equal(t, "r-3", rest[0].ID)
	assert.Zero(t, q.Len())
}

func TestRequestQueue_PopNEmpty(t *testing.T) {
	q := newRequestQueue()
	assert.Nil(t, q.PopN(10))
	assert.Nil(t, q.PopN(0))
}

func TestRequestQueue_Remove(t *testing.T) {
	q := newRequestQueue()
	q.Push(queuedRequest("a"))
	q.Push(queuedRequest("b"))
	q.Push(queuedRequest("c"))

	assert.True(t, q.Remove("b"))
	assert.False(t, q.Remove("b"))
	assert.False(t, q.Remove("missing"))

	batch := q.PopN(10)
	require.Len(t, batch, 2)
	assert.Equal(t, "a", batch[0].ID)
	assert.Equal(t, "c", batch[1].ID)
}
