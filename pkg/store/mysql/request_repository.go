package mysql

import (
	"context"
	"fmt"
)

// RequestRepository handles archived request outcomes
type RequestRepository struct {
	ds *Datastore
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(ds *Datastore) *RequestRepository {
	return &RequestRepository{ds: ds}
}

// Create archives one terminal request outcome
func (r *RequestRepository) Create(ctx context.Context, record *RequestRecord) error {
	return r.ds.DB(ctx).Create(record).Error
}

// GetByRequestID retrieves an archived request by its identifier
func (r *RequestRepository) GetByRequestID(ctx context.Context, requestID string) (*RequestRecord, error) {
	var record RequestRecord
	err := r.ds.DB(ctx).Where("request_id = ?", requestID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListRecent retrieves the most recently completed requests
func (r *RequestRepository) ListRecent(ctx context.Context, algorithm string, limit int) ([]*RequestRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := r.ds.DB(ctx).Model(&RequestRecord{}).Order("completed_at DESC").Limit(limit)
	if algorithm != "" {
		query = query.Where("algorithm = ?", algorithm)
	}

	var records []*RequestRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent requests: %w", err)
	}
	return records, nil
}

// CountByState counts archived requests per terminal state
func (r *RequestRepository) CountByState(ctx context.Context, state string) (int64, error) {
	var count int64
	err := r.ds.DB(ctx).Model(&RequestRecord{}).Where("state = ?", state).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return count, nil
}
