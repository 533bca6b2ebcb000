package model

import (
	"errors"
	"fmt"
)

// AdmissionReason classifies why a submission was rejected
type AdmissionReason string

const (
	ReasonUnknownAlgorithm   AdmissionReason = "unknown_algorithm"
	ReasonInvalidParameter   AdmissionReason = "invalid_parameter"
	ReasonStorageUnavailable AdmissionReason = "storage_unavailable"
	ReasonQueueUnavailable   AdmissionReason = "queue_unavailable"
)

// AdmissionError synchronous rejection of a processing request
type AdmissionError struct {
	Reason AdmissionReason
	Detail string
	Err    error
}

func (e *AdmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("admission rejected (%s): %s: %v", e.Reason, e.Detail, e.Err)
	}
	return fmt.Sprintf("admission rejected (%s): %s", e.Reason, e.Detail)
}

func (e *AdmissionError) Unwrap() error {
	return e.Err
}

// NewAdmissionError creates an admission error
func NewAdmissionError(reason AdmissionReason, detail string, err error) *AdmissionError {
	return &AdmissionError{Reason: reason, Detail: detail, Err: err}
}

// AsAdmissionError extracts an AdmissionError from an error chain
func AsAdmissionError(err error) (*AdmissionError, bool) {
	var ae *AdmissionError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Lookup errors are expected, non-exceptional conditions for polling clients.
var (
	ErrNotFound = errors.New("request not found")
	ErrNotReady = errors.New("result not ready")
)
