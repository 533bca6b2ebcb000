package model

import "time"

// RequestState request lifecycle state
type RequestState string

const (
	StateQueued     RequestState = "queued"
	StateProcessing RequestState = "processing"
	StateCompleted  RequestState = "completed"
	StateFailed     RequestState = "failed"
)

// Terminal reports whether the state admits no further transitions
func (s RequestState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Parameters algorithm-specific processing options
type Parameters struct {
	Threads int `json:"threads"`
	Passes  int `json:"passes"`
}

// ProcessingRequest an admitted request; immutable after creation
type ProcessingRequest struct {
	RequestID   string     `json:"request_id"`
	Algorithm   string     `json:"algorithm"`
	ImageKey    string     `json:"image_key"`
	Parameters  Parameters `json:"parameters"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// RequestStatus mutable view of a request, owned by the status store
type RequestStatus struct {
	RequestID string             `json:"request_id"`
	Algorithm string             `json:"algorithm"`
	State     RequestState       `json:"status"`
	ResultKey string             `json:"result_key,omitempty"`
	Error     string             `json:"error,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// SubmitResponse admission response
type SubmitResponse struct {
	RequestID string       `json:"request_id"`
	Algorithm string       `json:"algorithm"`
	Status    RequestState `json:"status"`
	PollURL   string       `json:"poll_url"`
}

// ResultResponse terminal result details
type ResultResponse struct {
	RequestID   string             `json:"request_id"`
	Status      RequestState       `json:"status"`
	ResultKey   string             `json:"result_key,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Error       string             `json:"error,omitempty"`
	DownloadURL string             `json:"download_url,omitempty"`
}

// ServiceInfo registry listing entry with live queue depth
type ServiceInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
	QueueDepth  int64  `json:"queue_depth"`
	Endpoint    string `json:"endpoint"`
}

// QueueStatusEntry per-algorithm queue status
type QueueStatusEntry struct {
	Queue     string `json:"queue"`
	Depth     int64  `json:"depth"`
	Consumers int    `json:"consumers"`
}
