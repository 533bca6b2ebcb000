package monitor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pixelgate/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatsSource struct {
	stats map[string]queue.Stats
	err   error
	calls int
}

func (f *fakeStatsSource) Stats(ctx context.Context, queues []string) (map[string]queue.Stats, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]queue.Stats, len(queues))
	for _, q := range queues {
		out[q] = f.stats[q]
	}
	return out, nil
}

func TestSampleNow_PublishesSnapshot(t *testing.T) {
	src := &fakeStatsSource{stats: map[string]queue.Stats{
		"grayscale_jobs": {Queue: "grayscale_jobs", Pending: 25, Consumers: 2},
		"sobel_jobs":     {Queue: "sobel_jobs", Pending: 0, Consumers: 1},
	}}
	m := New(src, []string{"grayscale_jobs", "sobel_jobs"}, 30*time.Second)

	m.SampleNow(context.Background())

	latest, ok := m.Latest()
	require.True(t, ok)
	require.Len(t, latest, 2)
	assert.Equal(t, int64(25), latest["grayscale_jobs"].Depth)
	assert.Equal(t, 2, latest["grayscale_jobs"].Consumers)
	assert.Equal(t, int64(0), latest["sobel_jobs"].Depth)
	assert.False(t, latest["grayscale_jobs"].SampledAt.IsZero())
}

func TestSampleFailure_KeepsStaleSnapshot(t *testing.T) {
	src := &fakeStatsSource{stats: map[string]queue.Stats{
		"grayscale_jobs": {Queue: "grayscale_jobs", Pending: 10, Consumers: 1},
	}}
	m := New(src, []string{"grayscale_jobs"}, 30*time.Second)

	m.SampleNow(context.Background())
	_, ok := m.Latest()
	require.True(t, ok)

	src.err = fmt.Errorf("substrate unreachable")
	m.SampleNow(context.Background())

	latest, ok := m.Latest()
	assert.False(t, ok, "failed sample must mark the snapshot stale")
	assert.Equal(t, int64(10), latest["grayscale_jobs"].Depth, "previous data remains readable")

	// recovery on the next successful sample
	src.err = nil
	m.SampleNow(context.Background())
	_, ok = m.Latest()
	assert.True(t, ok)
}

func TestLatest_EmptyBeforeFirstSample(t *testing.T) {
	m := New(&fakeStatsSource{}, []string{"q"}, time.Second)
	latest, ok := m.Latest()
	assert.False(t, ok)
	assert.Empty(t, latest)
}
