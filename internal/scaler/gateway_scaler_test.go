package scaler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pixelgate/internal/model"
	"pixelgate/internal/monitor"
	"pixelgate/pkg/config"
	"pixelgate/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLatency struct {
	ms float64
}

func (s *stubLatency) AverageLatencyMs() float64 { return s.ms }

func gatewayTestConfig() config.GatewayScalerConfig {
	return config.GatewayScalerConfig{
		Enabled:           true,
		Deployment:        "pixelgate",
		MinInstances:      1,
		MaxInstances:      3,
		LoadThresholdUp:   80,
		LoadThresholdDown: 30,
		CheckInterval:     30,
		Cooldown:          180,
	}
}

func newGatewayFixture(cfg config.GatewayScalerConfig, latency *stubLatency) (*GatewayScaler, *stubSource, *monitor.Monitor, *fakeProvider, *testClock) {
	src := &stubSource{stats: map[string]queue.Stats{}}
	mon := monitor.New(src, []string{"grayscale_jobs", "sobel_jobs"}, 30*time.Second)
	provider := &fakeProvider{}
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	gs := NewGatewayScaler(cfg, mon, latency, provider, nil).WithClock(clock.Now)
	return gs, src, mon, provider, clock
}

func TestLoadScore(t *testing.T) {
	tests := []struct {
		name       string
		avgDepth   float64
		responseMs float64
		want       float64
	}{
		{"idle", 0, 0, 0},
		{"depth only", 5, 0, 50},
		{"latency only", 0, 5000, 50},
		{"combined", 3, 2000, 50},
		{"clamped high", 50, 10000, 100},
		{"exactly full from depth", 10, 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, LoadScore(tt.avgDepth, tt.responseMs), 0.001)
		})
	}
}

func TestGatewayScaler_ScaleUpOnHighLoad(t *testing.T) {
	gs, src, mon, provider, _ := newGatewayFixture(gatewayTestConfig(), &stubLatency{})
	ctx := context.Background()

	src.stats["grayscale_jobs"] = queue.Stats{Pending: 12}
	src.stats["sobel_jobs"] = queue.Stats{Pending: 8}
	mon.SampleNow(ctx)

	// average depth 10 saturates the score
	score, ok := gs.CurrentLoad()
	require.True(t, ok)
	assert.InDelta(t, 100.0, score, 0.001)

	decision := gs.Tick(ctx)
	require.NotNil(t, decision)
	assert.Equal(t, model.TargetGateway, decision.Target)
	assert.Equal(t, model.ScaleUp, decision.Direction)
	assert.Equal(t, 1, decision.FromInstances)
	assert.Equal(t, 2, decision.ToInstances)
	require.Len(t, provider.calls, 1)
	assert.Equal(t, scaleCall{deployment: "pixelgate", replicas: 2}, provider.calls[0])
}

func TestGatewayScaler_LatencyAloneCanTriggerScaleUp(t *testing.T) {
	latency := &stubLatency{ms: 9000}
	gs, src, mon, _, _ := newGatewayFixture(gatewayTestConfig(), latency)
	ctx := context.Background()

	// empty queues, slow responses: score 90 comes entirely from latency
	src.stats["grayscale_jobs"] = queue.Stats{Pending: 0}
	src.stats["sobel_jobs"] = queue.Stats{Pending: 0}
	mon.SampleNow(ctx)

	decision := gs.Tick(ctx)
	require.NotNil(t, decision)
	assert.Equal(t, model.ScaleUp, decision.Direction)
}

func TestGatewayScaler_CooldownSuppressesSecondDecision(t *testing.T) {
	gs, src, mon, _, clock := newGatewayFixture(gatewayTestConfig(), &stubLatency{})
	ctx := context.Background()

	src.stats["grayscale_jobs"] = queue.Stats{Pending: 50}
	src.stats["sobel_jobs"] = queue.Stats{Pending: 50}
	mon.SampleNow(ctx)

	require.NotNil(t, gs.Tick(ctx))
	assert.Equal(t, PhaseCooldownUp, gs.Status().Phase)

	clock.Advance(60 * time.Second)
	assert.Nil(t, gs.Tick(ctx), "inside cooldown")

	clock.Advance(121 * time.Second)
	decision := gs.Tick(ctx)
	require.NotNil(t, decision)
	assert.Equal(t, 3, decision.ToInstances)
}

func TestGatewayScaler_ScaleDownStopsAtMin(t *testing.T) {
	gs, src, mon, provider, _ := newGatewayFixture(gatewayTestConfig(), &stubLatency{ms: 100})
	ctx := context.Background()

	// near-idle load at the minimum: trigger fires but there is nowhere to go
	src.stats["grayscale_jobs"] = queue.Stats{Pending: 0}
	src.stats["sobel_jobs"] = queue.Stats{Pending: 0}
	mon.SampleNow(ctx)

	assert.Nil(t, gs.Tick(ctx))
	assert.Empty(t, provider.calls)
	assert.Equal(t, 1, gs.Status().Instances)
}

func TestGatewayScaler_NeutralBandMakesNoDecision(t *testing.T) {
	gs, src, mon, _, _ := newGatewayFixture(gatewayTestConfig(), &stubLatency{})
	ctx := context.Background()

	// average depth 5 scores 50, between the thresholds
	src.stats["grayscale_jobs"] = queue.Stats{Pending: 6}
	src.stats["sobel_jobs"] = queue.Stats{Pending: 4}
	mon.SampleNow(ctx)

	assert.Nil(t, gs.Tick(ctx))
	assert.Equal(t, PhaseStable, gs.Status().Phase)
}

func TestGatewayScaler_StaleSnapshotMakesNoDecision(t *testing.T) {
	gs, src, mon, provider, _ := newGatewayFixture(gatewayTestConfig(), &stubLatency{ms: 50000})
	ctx := context.Background()

	src.err = fmt.Errorf("substrate unreachable")
	mon.SampleNow(ctx)

	_, ok := gs.CurrentLoad()
	assert.False(t, ok)
	assert.Nil(t, gs.Tick(ctx))
	assert.Empty(t, provider.calls)
}
