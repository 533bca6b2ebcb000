// Package service holds the gateway's two core flows: admission of new
// processing requests and correlation of worker results back onto request
// state.
package service

import (
	"context"
	"fmt"

	"pixelgate/internal/model"
	"pixelgate/internal/monitor"
	"pixelgate/internal/registry"
	"pixelgate/internal/status"
	"pixelgate/pkg/blob"
	"pixelgate/pkg/logger"
	"pixelgate/pkg/queue"

	"github.com/google/uuid"
)

// GatewayService admission and read paths of the gateway
type GatewayService struct {
	registry    *registry.Registry
	status      *status.Store
	blobs       blob.Store
	publisher   queue.Publisher
	monitor     *monitor.Monitor
	resultQueue string
}

// NewGatewayService creates the gateway service
func NewGatewayService(reg *registry.Registry, st *status.Store, blobs blob.Store, publisher queue.Publisher, mon *monitor.Monitor, resultQueue string) *GatewayService {
	return &GatewayService{
		registry:    reg,
		status:      st,
		blobs:       blobs,
		publisher:   publisher,
		monitor:     mon,
		resultQueue: resultQueue,
	}
}

// Submit admits one processing request: validate, persist the input image,
// publish the job, then expose the request as queued. The request becomes
// visible only after the job is on the queue, so a failure at any earlier
// step leaves no trackable state behind.
func (s *GatewayService) Submit(ctx context.Context, algorithm string, image []byte, contentType string, params model.Parameters) (*model.SubmitResponse, error) {
	if len(image) == 0 {
		return nil, model.NewAdmissionError(model.ReasonInvalidParameter, "image payload is empty", nil)
	}
	if err := s.registry.ValidateParameters(algorithm, &params); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	imageKey := "input/" + requestID

	if err := s.blobs.Put(ctx, imageKey, image, contentType); err != nil {
		return nil, model.NewAdmissionError(model.ReasonStorageUnavailable, "failed to store input image", err)
	}

	svc, _ := s.registry.Get(algorithm)
	msg := &model.JobMessage{
		RequestID:   requestID,
		Algorithm:   algorithm,
		ImageKey:    imageKey,
		Parameters:  params,
		ResultQueue: s.resultQueue,
	}
	if err := s.publisher.PublishJob(ctx, svc.Queue, msg); err != nil {
		// The orphaned input blob is reclaimed by its TTL
		return nil, model.NewAdmissionError(model.ReasonQueueUnavailable, "failed to enqueue job", err)
	}

	if err := s.status.Seed(requestID, algorithm); err != nil {
		return nil, fmt.Errorf("failed to track request %s: %w", requestID, err)
	}

	logger.InfoCtx(ctx, "request admitted, request_id: %s, algorithm: %s, queue: %s", requestID, algorithm, svc.Queue)

	return &model.SubmitResponse{
		RequestID: requestID,
		Algorithm: algorithm,
		Status:    model.StateQueued,
		PollURL:   "/api/v1/status/" + requestID,
	}, nil
}

// GetStatus returns the current state of a request
func (s *GatewayService) GetStatus(requestID string) (model.RequestStatus, error) {
	st, ok := s.status.Get(requestID)
	if !ok {
		return model.RequestStatus{}, model.ErrNotFound
	}
	return st, nil
}

// GetResult returns the terminal outcome of a request. A request still in
// flight reports ErrNotReady so clients keep polling.
func (s *GatewayService) GetResult(requestID string) (*model.ResultResponse, error) {
	st, ok := s.status.Get(requestID)
	if !ok {
		return nil, model.ErrNotFound
	}
	if !st.State.Terminal() {
		return nil, model.ErrNotReady
	}

	resp := &model.ResultResponse{
		RequestID: st.RequestID,
		Status:    st.State,
		ResultKey: st.ResultKey,
		Metrics:   st.Metrics,
		Error:     st.Error,
	}
	if st.State == model.StateCompleted {
		resp.DownloadURL = "/api/v1/download/" + st.RequestID
	}
	return resp, nil
}

// Download returns the processed image bytes of a completed request
func (s *GatewayService) Download(ctx context.Context, requestID string) ([]byte, string, error) {
	st, ok := s.status.Get(requestID)
	if !ok {
		return nil, "", model.ErrNotFound
	}
	if st.State != model.StateCompleted {
		return nil, "", model.ErrNotReady
	}

	data, contentType, err := s.blobs.Get(ctx, st.ResultKey)
	if err != nil {
		if err == blob.ErrNotFound {
			// Result blob expired after completion
			return nil, "", model.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to load result %s: %w", st.ResultKey, err)
	}
	return data, contentType, nil
}

// ListServices returns the registered algorithms with their live queue depth
func (s *GatewayService) ListServices() []model.ServiceInfo {
	snapshots, _ := s.monitor.Latest()

	services := s.registry.List()
	out := make([]model.ServiceInfo, 0, len(services))
	for _, svc := range services {
		info := model.ServiceInfo{
			Name:        svc.Name,
			Description: svc.Description,
			Queue:       svc.Queue,
			Endpoint:    "/api/v1/process/" + svc.Name,
		}
		if snap, ok := snapshots[svc.Queue]; ok {
			info.QueueDepth = snap.Depth
		}
		out = append(out, info)
	}
	return out
}

// QueueStatus returns the latest per-queue depth and consumer counts keyed
// by algorithm name. The second return is false when the snapshot is stale.
func (s *GatewayService) QueueStatus() (map[string]model.QueueStatusEntry, bool) {
	snapshots, fresh := s.monitor.Latest()

	out := make(map[string]model.QueueStatusEntry, len(s.registry.Names()))
	for _, svc := range s.registry.List() {
		entry := model.QueueStatusEntry{Queue: svc.Queue}
		if snap, ok := snapshots[svc.Queue]; ok {
			entry.Depth = snap.Depth
			entry.Consumers = snap.Consumers
		}
		out[svc.Name] = entry
	}
	return out, fresh
}
