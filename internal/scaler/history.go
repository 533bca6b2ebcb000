package scaler

import (
	"context"
	"sync"

	"pixelgate/internal/model"
)

// History in-memory ring of recent scaling decisions, newest first, serving
// the inspection endpoint. Bounded so an old gateway never grows without
// limit.
type History struct {
	mu       sync.Mutex
	ring     []model.ScalingDecision
	next     int
	size     int
	capacity int
}

// NewHistory creates a decision history holding at most capacity entries
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 100
	}
	return &History{
		ring:     make([]model.ScalingDecision, capacity),
		capacity: capacity,
	}
}

// Record appends a decision, evicting the oldest when full
func (h *History) Record(ctx context.Context, decision model.ScalingDecision) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ring[h.next] = decision
	h.next = (h.next + 1) % h.capacity
	if h.size < h.capacity {
		h.size++
	}
}

// Recent returns up to n decisions, most recent first
func (h *History) Recent(n int) []model.ScalingDecision {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || n > h.size {
		n = h.size
	}
	out := make([]model.ScalingDecision, 0, n)
	for i := 0; i < n; i++ {
		idx := (h.next - 1 - i + h.capacity) % h.capacity
		out = append(out, h.ring[idx])
	}
	return out
}

// Recorders fans one decision out to several recorders
type Recorders []DecisionRecorder

// Record forwards the decision to every recorder in order
func (rs Recorders) Record(ctx context.Context, decision model.ScalingDecision) {
	for _, r := range rs {
		if r != nil {
			r.Record(ctx, decision)
		}
	}
}
