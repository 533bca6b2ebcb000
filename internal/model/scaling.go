package model

import "time"

// QueueSnapshot one monitor sample for a single queue. Ephemeral: only the
// most recent sample is retained between ticks.
type QueueSnapshot struct {
	Queue     string    `json:"queue"`
	Depth     int64     `json:"depth"`
	Consumers int       `json:"consumers"`
	SampledAt time.Time `json:"sampled_at"`
}

// ScaleTarget what a scaling decision applies to
type ScaleTarget string

const (
	TargetGateway ScaleTarget = "gateway"
	TargetWorker  ScaleTarget = "worker"
)

// ScaleDirection which way a decision moves the instance count
type ScaleDirection string

const (
	ScaleUp   ScaleDirection = "up"
	ScaleDown ScaleDirection = "down"
	ScaleNone ScaleDirection = "none"
)

// ScalingDecision one control-loop decision, emitted for the deployment
// substrate to act on. DecidedAt anchors the cooldown window for the next
// decision on the same target.
type ScalingDecision struct {
	Target        ScaleTarget    `json:"target"`
	Algorithm     string         `json:"algorithm,omitempty"` // set for worker decisions
	Direction     ScaleDirection `json:"direction"`
	FromInstances int            `json:"from_instances"`
	ToInstances   int            `json:"to_instances"`
	Reason        string         `json:"reason"`
	DecidedAt     time.Time      `json:"decided_at"`
}
