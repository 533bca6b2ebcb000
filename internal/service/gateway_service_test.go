package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pixelgate/internal/model"
	"pixelgate/internal/monitor"
	"pixelgate/internal/registry"
	"pixelgate/internal/status"
	"pixelgate/pkg/blob"
	"pixelgate/pkg/config"
	"pixelgate/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlobStore struct {
	data  map[string][]byte
	types map[string]string
	err   error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{data: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	data, ok := f.data[key]
	if !ok {
		return nil, "", blob.ErrNotFound
	}
	return data, f.types[key], nil
}

func (f *fakeBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.data[key]
	return ok, nil
}

type fakePublisher struct {
	published []publishedJob
	err       error
}

type publishedJob struct {
	queue string
	msg   model.JobMessage
}

func (f *fakePublisher) PublishJob(ctx context.Context, q string, msg *model.JobMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedJob{queue: q, msg: *msg})
	return nil
}

type memStatsSource struct {
	stats map[string]queue.Stats
}

func (m *memStatsSource) Stats(ctx context.Context, queues []string) (map[string]queue.Stats, error) {
	out := make(map[string]queue.Stats, len(queues))
	for _, q := range queues {
		out[q] = m.stats[q]
	}
	return out, nil
}

type fixture struct {
	svc    *GatewayService
	status *status.Store
	blobs  *fakeBlobStore
	pub    *fakePublisher
	mon    *monitor.Monitor
	src    *memStatsSource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := registry.New([]config.ServiceConfig{
		{Name: "grayscale", Queue: "grayscale_jobs", Deployment: "grayscale-worker", Description: "Grayscale conversion", MaxThreads: 16, MaxPasses: 10},
		{Name: "sobel", Queue: "sobel_jobs", Deployment: "sobel-worker", Description: "Sobel edge detection", MaxThreads: 16, MaxPasses: 10},
	})
	require.NoError(t, err)

	st := status.NewStore()
	blobs := newFakeBlobStore()
	pub := &fakePublisher{}
	src := &memStatsSource{stats: map[string]queue.Stats{}}
	mon := monitor.New(src, []string{"grayscale_jobs", "sobel_jobs"}, 30*time.Second)
	return &fixture{
		svc:    NewGatewayService(reg, st, blobs, pub, mon, "results"),
		status: st,
		blobs:  blobs,
		pub:    pub,
		mon:    mon,
		src:    src,
	}
}

func TestSubmit_AdmitsAndTracksRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, "grayscale", []byte("png-bytes"), "image/png", model.Parameters{Threads: 2, Passes: 3})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RequestID)
	assert.Equal(t, model.StateQueued, resp.Status)
	assert.Equal(t, "/api/v1/status/"+resp.RequestID, resp.PollURL)

	// input image persisted before the job was published
	data, contentType, err := f.blobs.Get(ctx, "input/"+resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", contentType)

	require.Len(t, f.pub.published, 1)
	job := f.pub.published[0]
	assert.Equal(t, "grayscale_jobs", job.queue)
	assert.Equal(t, resp.RequestID, job.msg.RequestID)
	assert.Equal(t, "input/"+resp.RequestID, job.msg.ImageKey)
	assert.Equal(t, "results", job.msg.ResultQueue)
	assert.Equal(t, model.Parameters{Threads: 2, Passes: 3}, job.msg.Parameters)

	st, err := f.svc.GetStatus(resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.StateQueued, st.State)
}

func TestSubmit_UnknownAlgorithmIsRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), "blur", []byte("data"), "image/png", model.Parameters{})
	require.Error(t, err)
	ae, ok := model.AsAdmissionError(err)
	require.True(t, ok)
	assert.Equal(t, model.ReasonUnknownAlgorithm, ae.Reason)
	assert.Empty(t, f.blobs.data)
	assert.Empty(t, f.pub.published)
	assert.Equal(t, 0, f.status.Len())
}

func TestSubmit_EmptyImageIsRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), "grayscale", nil, "image/png", model.Parameters{})
	require.Error(t, err)
	ae, ok := model.AsAdmissionError(err)
	require.True(t, ok)
	assert.Equal(t, model.ReasonInvalidParameter, ae.Reason)
}

func TestSubmit_OutOfBoundsParametersAreRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), "grayscale", []byte("data"), "image/png", model.Parameters{Threads: 99})
	require.Error(t, err)
	ae, ok := model.AsAdmissionError(err)
	require.True(t, ok)
	assert.Equal(t, model.ReasonInvalidParameter, ae.Reason)
	assert.Empty(t, f.pub.published)
}

func TestSubmit_StorageFailureLeavesNoState(t *testing.T) {
	f := newFixture(t)
	f.blobs.err = fmt.Errorf("redis down")

	_, err := f.svc.Submit(context.Background(), "grayscale", []byte("data"), "image/png", model.Parameters{})
	require.Error(t, err)
	ae, ok := model.AsAdmissionError(err)
	require.True(t, ok)
	assert.Equal(t, model.ReasonStorageUnavailable, ae.Reason)
	assert.Empty(t, f.pub.published)
	assert.Equal(t, 0, f.status.Len())
}

func TestSubmit_PublishFailureLeavesNoTrackedRequest(t *testing.T) {
	f := newFixture(t)
	f.pub.err = fmt.Errorf("broker unreachable")

	_, err := f.svc.Submit(context.Background(), "grayscale", []byte("data"), "image/png", model.Parameters{})
	require.Error(t, err)
	ae, ok := model.AsAdmissionError(err)
	require.True(t, ok)
	assert.Equal(t, model.ReasonQueueUnavailable, ae.Reason)
	assert.Equal(t, 0, f.status.Len(), "an unpublished request must not be pollable")
}

func TestGetResult_NotReadyWhileInFlight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, "grayscale", []byte("data"), "image/png", model.Parameters{})
	require.NoError(t, err)

	_, err = f.svc.GetResult(resp.RequestID)
	assert.ErrorIs(t, err, model.ErrNotReady)

	f.status.MarkProcessing(resp.RequestID)
	_, err = f.svc.GetResult(resp.RequestID)
	assert.ErrorIs(t, err, model.ErrNotReady)
}

func TestGetResult_CompletedIncludesDownloadURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, "grayscale", []byte("data"), "image/png", model.Parameters{})
	require.NoError(t, err)
	require.True(t, f.status.Complete(resp.RequestID, "output/"+resp.RequestID, map[string]float64{"duration_ms": 42}))

	result, err := f.svc.GetResult(resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.StateCompleted, result.Status)
	assert.Equal(t, "output/"+resp.RequestID, result.ResultKey)
	assert.Equal(t, "/api/v1/download/"+resp.RequestID, result.DownloadURL)
	assert.Equal(t, 42.0, result.Metrics["duration_ms"])
}

func TestGetResult_FailedCarriesErrorWithoutDownload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, "grayscale", []byte("data"), "image/png", model.Parameters{})
	require.NoError(t, err)
	require.True(t, f.status.Fail(resp.RequestID, "decode error"))

	result, err := f.svc.GetResult(resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.StateFailed, result.Status)
	assert.Equal(t, "decode error", result.Error)
	assert.Empty(t, result.DownloadURL)
}

func TestGetResult_UnknownRequest(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetResult("missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDownload_ReturnsResultBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, "grayscale", []byte("original"), "image/png", model.Parameters{})
	require.NoError(t, err)

	resultKey := "output/" + resp.RequestID
	require.NoError(t, f.blobs.Put(ctx, resultKey, []byte("processed"), "image/png"))
	require.True(t, f.status.Complete(resp.RequestID, resultKey, nil))

	data, contentType, err := f.svc.Download(ctx, resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, []byte("processed"), data)
	assert.Equal(t, "image/png", contentType)
}

func TestDownload_NotReadyBeforeCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, "grayscale", []byte("data"), "image/png", model.Parameters{})
	require.NoError(t, err)

	_, _, err = f.svc.Download(ctx, resp.RequestID)
	assert.ErrorIs(t, err, model.ErrNotReady)
}

func TestDownload_ExpiredResultBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Submit(ctx, "grayscale", []byte("data"), "image/png", model.Parameters{})
	require.NoError(t, err)
	require.True(t, f.status.Complete(resp.RequestID, "output/"+resp.RequestID, nil))

	_, _, err = f.svc.Download(ctx, resp.RequestID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListServices_IncludesLiveQueueDepth(t *testing.T) {
	f := newFixture(t)
	f.src.stats["grayscale_jobs"] = queue.Stats{Queue: "grayscale_jobs", Pending: 7, Consumers: 2}
	f.mon.SampleNow(context.Background())

	services := f.svc.ListServices()
	require.Len(t, services, 2)
	assert.Equal(t, "grayscale", services[0].Name)
	assert.Equal(t, int64(7), services[0].QueueDepth)
	assert.Equal(t, "/api/v1/process/grayscale", services[0].Endpoint)
	assert.Equal(t, int64(0), services[1].QueueDepth)
}

func TestQueueStatus_KeyedByAlgorithm(t *testing.T) {
	f := newFixture(t)
	f.src.stats["sobel_jobs"] = queue.Stats{Queue: "sobel_jobs", Pending: 3, Consumers: 1}
	f.mon.SampleNow(context.Background())

	entries, fresh := f.svc.QueueStatus()
	assert.True(t, fresh)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries["sobel"].Depth)
	assert.Equal(t, 1, entries["sobel"].Consumers)
	assert.Equal(t, "grayscale_jobs", entries["grayscale"].Queue)
}
