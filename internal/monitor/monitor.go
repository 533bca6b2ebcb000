// Package monitor periodically samples per-queue depth and consumer count
// from the queue substrate and exposes the latest snapshot to the scalers.
package monitor

import (
	"context"
	"sync"
	"time"

	"pixelgate/internal/model"
	"pixelgate/pkg/logger"
	"pixelgate/pkg/queue"

	"go.uber.org/zap"
)

// Monitor periodic queue sampler. Sampling is a pure read against the
// substrate; a failed sample keeps the previous snapshot and marks it
// stale so the scalers skip their tick.
type Monitor struct {
	source   queue.StatsSource
	queues   []string
	interval time.Duration

	mu     sync.RWMutex
	latest map[string]model.QueueSnapshot
	fresh  bool
}

// New creates a queue monitor for the given queue names
func New(source queue.StatsSource, queues []string, interval time.Duration) *Monitor {
	return &Monitor{
		source:   source,
		queues:   queues,
		interval: interval,
		latest:   make(map[string]model.QueueSnapshot),
	}
}

// Start runs the sampling loop until ctx is cancelled. One sample is taken
// immediately so the scalers do not start blind.
func (m *Monitor) Start(ctx context.Context) {
	logger.Info("queue monitor started",
		zap.Duration("interval", m.interval),
		zap.Int("queues", len(m.queues)),
	)

	m.sample(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("queue monitor stopped")
			return
		case <-ticker.C:
			m.sample(ctx)
		}
	}
}

func (m *Monitor) sample(ctx context.Context) {
	stats, err := m.source.Stats(ctx, m.queues)
	if err != nil {
		// Transient substrate error: keep the stale snapshot, the scalers
		// make no decision this tick and self-correct on the next.
		logger.Warn("queue sample failed, keeping previous snapshot", zap.Error(err))
		m.mu.Lock()
		m.fresh = false
		m.mu.Unlock()
		return
	}

	now := time.Now()
	snapshots := make(map[string]model.QueueSnapshot, len(stats))
	for name, st := range stats {
		snapshots[name] = model.QueueSnapshot{
			Queue:     name,
			Depth:     st.Pending,
			Consumers: st.Consumers,
			SampledAt: now,
		}
	}

	m.mu.Lock()
	m.latest = snapshots
	m.fresh = true
	m.mu.Unlock()
}

// SampleNow takes one synchronous sample outside the loop schedule
func (m *Monitor) SampleNow(ctx context.Context) {
	m.sample(ctx)
}

// Latest returns the most recent snapshot map and whether it came from a
// successful sample. Callers must not mutate the returned map.
func (m *Monitor) Latest() (map[string]model.QueueSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.fresh
}
