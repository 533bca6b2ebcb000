// Package scaler implements the two scaling control loops: per-algorithm
// worker scaling driven by queue depth, and gateway scaling driven by a
// combined load score. Both use threshold triggers gated by a cooldown so
// a sustained burst produces one decision per cooldown window, not one per
// tick.
package scaler

import (
	"context"
	"time"

	"pixelgate/internal/model"
)

// Phase hysteresis state of one scaled tier
type Phase string

const (
	PhaseStable       Phase = "stable"
	PhaseCooldownUp   Phase = "cooldown_up"   // just scaled up, triggers ignored
	PhaseCooldownDown Phase = "cooldown_down" // just scaled down, triggers ignored
)

// tierState instance count and cooldown anchor for one scaled target
type tierState struct {
	current       int
	lastScaledAt  time.Time
	lastDirection model.ScaleDirection
}

// cooldownElapsed reports whether a new decision is permitted
func (s *tierState) cooldownElapsed(now time.Time, cooldown time.Duration) bool {
	if s.lastScaledAt.IsZero() {
		return true
	}
	return now.Sub(s.lastScaledAt) >= cooldown
}

// phase derives the hysteresis phase from the cooldown window
func (s *tierState) phase(now time.Time, cooldown time.Duration) Phase {
	if s.cooldownElapsed(now, cooldown) {
		return PhaseStable
	}
	if s.lastDirection == model.ScaleDown {
		return PhaseCooldownDown
	}
	return PhaseCooldownUp
}

// record applies a decision to the state and restarts the cooldown
func (s *tierState) record(direction model.ScaleDirection, to int, now time.Time) {
	s.current = to
	s.lastDirection = direction
	s.lastScaledAt = now
}

// DecisionRecorder receives every emitted scaling decision. Implementations
// must not block the control loop.
type DecisionRecorder interface {
	Record(ctx context.Context, decision model.ScalingDecision)
}

// TargetStatus point-in-time view of one scaled target, for the HTTP surface
type TargetStatus struct {
	Target        model.ScaleTarget `json:"target"`
	Algorithm     string            `json:"algorithm,omitempty"`
	Instances     int               `json:"instances"`
	Phase         Phase             `json:"phase"`
	LastScaledAt  time.Time         `json:"last_scaled_at,omitempty"`
	LastDirection string            `json:"last_direction,omitempty"`
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
