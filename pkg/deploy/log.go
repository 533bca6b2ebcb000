package deploy

import (
	"context"

	"pixelgate/pkg/logger"

	"go.uber.org/zap"
)

// LogProvider records scaling decisions without actuating anything. Default
// when no deployment substrate is configured; an external operator (or
// docker compose script) reads the log and scales by hand.
type LogProvider struct{}

// NewLogProvider creates a log-only provider
func NewLogProvider() *LogProvider {
	return &LogProvider{}
}

// Scale logs the desired replica count
func (p *LogProvider) Scale(ctx context.Context, deployment string, replicas int) error {
	logger.Info("scale decision recorded (no actuation configured)",
		zap.String("deployment", deployment),
		zap.Int("replicas", replicas),
	)
	return nil
}
