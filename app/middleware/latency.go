package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// LatencyTracker maintains an exponentially weighted moving average of
// request latency. It feeds the gateway's load score, so the smoothing
// keeps one slow request from triggering a scale-up on its own.
type LatencyTracker struct {
	mu    sync.Mutex
	ewma  float64
	alpha float64
	seen  bool
}

// NewLatencyTracker creates a tracker with the given smoothing factor.
// Alpha outside (0, 1] falls back to 0.2.
func NewLatencyTracker(alpha float64) *LatencyTracker {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.2
	}
	return &LatencyTracker{alpha: alpha}
}

// Observe folds one latency sample into the average
func (t *LatencyTracker) Observe(d time.Duration) {
	ms := float64(d.Microseconds()) / 1000.0

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.seen {
		t.ewma = ms
		t.seen = true
		return
	}
	t.ewma = t.alpha*ms + (1-t.alpha)*t.ewma
}

// AverageLatencyMs returns the smoothed latency in milliseconds
func (t *LatencyTracker) AverageLatencyMs() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ewma
}

// Middleware records per-request latency into the tracker
func (t *LatencyTracker) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		t.Observe(time.Since(start))
	}
}
