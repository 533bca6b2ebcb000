package mysql

import (
	"context"
	"fmt"
	"time"
)

// ScalingEventRepository handles archived scaling decisions
type ScalingEventRepository struct {
	ds *Datastore
}

// NewScalingEventRepository creates a new scaling event repository
func NewScalingEventRepository(ds *Datastore) *ScalingEventRepository {
	return &ScalingEventRepository{ds: ds}
}

// Create archives one scaling decision
func (r *ScalingEventRepository) Create(ctx context.Context, event *ScalingEventRecord) error {
	return r.ds.DB(ctx).Create(event).Error
}

// ListRecent retrieves the most recent scaling decisions
func (r *ScalingEventRepository) ListRecent(ctx context.Context, target string, limit int) ([]*ScalingEventRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := r.ds.DB(ctx).Model(&ScalingEventRecord{}).Order("timestamp DESC").Limit(limit)
	if target != "" {
		query = query.Where("target = ?", target)
	}

	var events []*ScalingEventRecord
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent scaling events: %w", err)
	}
	return events, nil
}

// DeleteOldEvents deletes archived decisions older than the given time
func (r *ScalingEventRepository) DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.ds.DB(ctx).Where("timestamp < ?", olderThan).Delete(&ScalingEventRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
