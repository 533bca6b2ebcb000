package scaler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pixelgate/internal/model"
	"pixelgate/internal/monitor"
	"pixelgate/pkg/config"
	"pixelgate/pkg/deploy"
	"pixelgate/pkg/logger"

	"go.uber.org/zap"
)

// LatencySource supplies the gateway's smoothed request latency
type LatencySource interface {
	AverageLatencyMs() float64
}

// LoadScore combines average queue depth and response latency into a single
// 0..100 load figure. Depth dominates: ten queued messages per queue already
// saturate the score; latency contributes one point per 100ms.
func LoadScore(avgDepth, responseMs float64) float64 {
	score := avgDepth*10 + responseMs/100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// GatewayScaler scales the gateway tier itself from the combined load score
type GatewayScaler struct {
	cfg      config.GatewayScalerConfig
	monitor  *monitor.Monitor
	latency  LatencySource
	provider deploy.Provider
	recorder DecisionRecorder
	now      func() time.Time

	mu    sync.Mutex
	state tierState
}

// NewGatewayScaler creates the gateway-tier control loop
func NewGatewayScaler(cfg config.GatewayScalerConfig, mon *monitor.Monitor, latency LatencySource, provider deploy.Provider, recorder DecisionRecorder) *GatewayScaler {
	return &GatewayScaler{
		cfg:      cfg,
		monitor:  mon,
		latency:  latency,
		provider: provider,
		recorder: recorder,
		now:      time.Now,
		state:    tierState{current: cfg.MinInstances},
	}
}

// WithClock overrides the time source, for tests
func (s *GatewayScaler) WithClock(now func() time.Time) *GatewayScaler {
	s.now = now
	return s
}

// Run executes the control loop until ctx is cancelled
func (s *GatewayScaler) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.CheckInterval) * time.Second
	logger.Info("gateway scaler started",
		zap.Duration("check_interval", interval),
		zap.Float64("load_threshold_up", s.cfg.LoadThresholdUp),
		zap.Float64("load_threshold_down", s.cfg.LoadThresholdDown),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("gateway scaler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// CurrentLoad computes the load score from the latest queue snapshot and the
// gateway's smoothed latency. The second return is false when the snapshot
// is stale and no decision should be made from the score.
func (s *GatewayScaler) CurrentLoad() (float64, bool) {
	snapshots, fresh := s.monitor.Latest()
	if !fresh || len(snapshots) == 0 {
		return 0, false
	}
	var total int64
	for _, snap := range snapshots {
		total += snap.Depth
	}
	avgDepth := float64(total) / float64(len(snapshots))

	var responseMs float64
	if s.latency != nil {
		responseMs = s.latency.AverageLatencyMs()
	}
	return LoadScore(avgDepth, responseMs), true
}

// Tick evaluates the gateway tier once and returns the decision, if any
func (s *GatewayScaler) Tick(ctx context.Context) *model.ScalingDecision {
	score, ok := s.CurrentLoad()
	if !ok {
		logger.Debug("gateway scaler skipping tick, queue snapshot is stale")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	direction := model.ScaleNone
	switch {
	case score > s.cfg.LoadThresholdUp:
		direction = model.ScaleUp
	case score < s.cfg.LoadThresholdDown:
		direction = model.ScaleDown
	}
	if direction == model.ScaleNone {
		return nil
	}

	now := s.now()
	if !s.state.cooldownElapsed(now, s.cooldown()) {
		logger.Debug("gateway scale trigger suppressed by cooldown",
			zap.String("direction", string(direction)),
			zap.Float64("load_score", score),
		)
		return nil
	}

	to := s.state.current
	if direction == model.ScaleUp {
		to++
	} else {
		to--
	}
	to = clampInt(to, s.cfg.MinInstances, s.cfg.MaxInstances)
	if to == s.state.current {
		return nil
	}

	decision := model.ScalingDecision{
		Target:        model.TargetGateway,
		Direction:     direction,
		FromInstances: s.state.current,
		ToInstances:   to,
		Reason: fmt.Sprintf("load score %.1f (up > %.1f, down < %.1f)",
			score, s.cfg.LoadThresholdUp, s.cfg.LoadThresholdDown),
		DecidedAt: now,
	}

	logger.Info("gateway scaling decision",
		zap.String("direction", string(direction)),
		zap.Int("from", decision.FromInstances),
		zap.Int("to", decision.ToInstances),
		zap.Float64("load_score", score),
	)

	if err := s.provider.Scale(ctx, s.cfg.Deployment, to); err != nil {
		logger.Error("gateway scale actuation failed",
			zap.String("deployment", s.cfg.Deployment),
			zap.Int("replicas", to),
			zap.Error(err),
		)
	}

	s.state.record(direction, to, now)
	if s.recorder != nil {
		s.recorder.Record(ctx, decision)
	}
	return &decision
}

// Status reports the current view of the gateway tier
func (s *GatewayScaler) Status() TargetStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	return TargetStatus{
		Target:        model.TargetGateway,
		Instances:     s.state.current,
		Phase:         s.state.phase(now, s.cooldown()),
		LastScaledAt:  s.state.lastScaledAt,
		LastDirection: string(s.state.lastDirection),
	}
}

func (s *GatewayScaler) cooldown() time.Duration {
	return time.Duration(s.cfg.Cooldown) * time.Second
}
