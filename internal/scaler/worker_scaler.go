package scaler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pixelgate/internal/model"
	"pixelgate/internal/monitor"
	"pixelgate/internal/registry"
	"pixelgate/pkg/config"
	"pixelgate/pkg/deploy"
	"pixelgate/pkg/logger"

	"go.uber.org/zap"
)

// WorkerScaler scales each algorithm's worker fleet independently from the
// depth of its input queue. The trigger metric is messages per instance:
// queue depth divided by the instance count the loop currently believes in.
type WorkerScaler struct {
	cfg      config.WorkerScalerConfig
	registry *registry.Registry
	monitor  *monitor.Monitor
	provider deploy.Provider
	recorder DecisionRecorder
	now      func() time.Time

	mu     sync.Mutex
	states map[string]*tierState // keyed by algorithm name
}

// NewWorkerScaler creates the per-algorithm worker control loop
func NewWorkerScaler(cfg config.WorkerScalerConfig, reg *registry.Registry, mon *monitor.Monitor, provider deploy.Provider, recorder DecisionRecorder) *WorkerScaler {
	return &WorkerScaler{
		cfg:      cfg,
		registry: reg,
		monitor:  mon,
		provider: provider,
		recorder: recorder,
		now:      time.Now,
		states:   make(map[string]*tierState),
	}
}

// WithClock overrides the time source, for tests
func (s *WorkerScaler) WithClock(now func() time.Time) *WorkerScaler {
	s.now = now
	return s
}

// Run executes the control loop until ctx is cancelled
func (s *WorkerScaler) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.CheckInterval) * time.Second
	logger.Info("worker scaler started",
		zap.Duration("check_interval", interval),
		zap.Int("min_instances", s.cfg.MinInstances),
		zap.Int("max_instances", s.cfg.MaxInstances),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker scaler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick evaluates every registered algorithm once and returns the decisions
// emitted this round. Decisions move the loop's own instance count even if
// actuation fails: the substrate converges on a later tick.
func (s *WorkerScaler) Tick(ctx context.Context) []model.ScalingDecision {
	snapshots, fresh := s.monitor.Latest()
	if !fresh {
		logger.Debug("worker scaler skipping tick, queue snapshot is stale")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var decisions []model.ScalingDecision
	now := s.now()

	for _, svc := range s.registry.List() {
		snap, ok := snapshots[svc.Queue]
		if !ok {
			continue
		}
		st := s.state(svc.Name, snap)

		perInstance := float64(snap.Depth) / float64(maxInt(st.current, 1))
		direction := model.ScaleNone
		switch {
		case perInstance > s.cfg.ScaleUpThreshold:
			direction = model.ScaleUp
		case perInstance < s.cfg.ScaleDownThreshold:
			direction = model.ScaleDown
		}
		if direction == model.ScaleNone {
			continue
		}
		if !st.cooldownElapsed(now, s.cooldown()) {
			logger.Debug("worker scale trigger suppressed by cooldown",
				zap.String("algorithm", svc.Name),
				zap.String("direction", string(direction)),
				zap.Float64("messages_per_instance", perInstance),
			)
			continue
		}

		to := st.current
		if direction == model.ScaleUp {
			to++
		} else {
			to--
		}
		to = clampInt(to, s.cfg.MinInstances, s.cfg.MaxInstances)
		if to == st.current {
			continue
		}

		decision := model.ScalingDecision{
			Target:        model.TargetWorker,
			Algorithm:     svc.Name,
			Direction:     direction,
			FromInstances: st.current,
			ToInstances:   to,
			Reason: fmt.Sprintf("queue %s depth %d, %.1f messages per instance (up > %.1f, down < %.1f)",
				svc.Queue, snap.Depth, perInstance, s.cfg.ScaleUpThreshold, s.cfg.ScaleDownThreshold),
			DecidedAt: now,
		}

		logger.Info("worker scaling decision",
			zap.String("algorithm", svc.Name),
			zap.String("direction", string(direction)),
			zap.Int("from", decision.FromInstances),
			zap.Int("to", decision.ToInstances),
			zap.Int64("queue_depth", snap.Depth),
		)

		if err := s.provider.Scale(ctx, svc.Deployment, to); err != nil {
			logger.Error("worker scale actuation failed",
				zap.String("deployment", svc.Deployment),
				zap.Int("replicas", to),
				zap.Error(err),
			)
		}

		st.record(direction, to, now)
		if s.recorder != nil {
			s.recorder.Record(ctx, decision)
		}
		decisions = append(decisions, decision)
	}

	return decisions
}

// state returns the tier state for an algorithm, creating it on first sight.
// A fleet already running (consumers observed on the queue) seeds the count
// from reality, clamped into bounds; otherwise the loop assumes the minimum.
func (s *WorkerScaler) state(algorithm string, snap model.QueueSnapshot) *tierState {
	if st, ok := s.states[algorithm]; ok {
		return st
	}
	current := s.cfg.MinInstances
	if snap.Consumers > 0 {
		current = clampInt(snap.Consumers, s.cfg.MinInstances, s.cfg.MaxInstances)
	}
	st := &tierState{current: current}
	s.states[algorithm] = st
	return st
}

// Status reports the current view of every tracked worker tier
func (s *WorkerScaler) Status() []TargetStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]TargetStatus, 0, len(s.states))
	for _, svc := range s.registry.List() {
		st, ok := s.states[svc.Name]
		if !ok {
			continue
		}
		out = append(out, TargetStatus{
			Target:        model.TargetWorker,
			Algorithm:     svc.Name,
			Instances:     st.current,
			Phase:         st.phase(now, s.cooldown()),
			LastScaledAt:  st.lastScaledAt,
			LastDirection: string(st.lastDirection),
		})
	}
	return out
}

func (s *WorkerScaler) cooldown() time.Duration {
	return time.Duration(s.cfg.Cooldown) * time.Second
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
