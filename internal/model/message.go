package model

import "encoding/json"

// Result statuses reported by workers on the results queue.
const (
	ResultStatusProcessing = "processing"
	ResultStatusCompleted  = "completed"
	ResultStatusFailed     = "failed"
)

// JobMessage the unit of work published to an algorithm's input queue
type JobMessage struct {
	RequestID   string     `json:"request_id"`
	Algorithm   string     `json:"algorithm"`
	ImageKey    string     `json:"image_key"`
	Parameters  Parameters `json:"parameters"`
	ResultQueue string     `json:"result_queue"`
}

// ResultMessage the completion/failure unit published by workers.
// Unknown extra fields are ignored on decode for forward compatibility.
type ResultMessage struct {
	RequestID string             `json:"request_id"`
	Algorithm string             `json:"algorithm"`
	Status    string             `json:"status"`
	ResultKey string             `json:"result_key,omitempty"`
	Error     string             `json:"error,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// ToJSON encodes the job message
func (m *JobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON decodes the job message
func (m *JobMessage) FromJSON(data []byte) error {
	return json.Unmarshal(data, m)
}

// ToJSON encodes the result message
func (m *ResultMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON decodes the result message
func (m *ResultMessage) FromJSON(data []byte) error {
	return json.Unmarshal(data, m)
}
