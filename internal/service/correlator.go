package service

import (
	"context"
	"time"

	"pixelgate/internal/model"
	"pixelgate/internal/status"
	"pixelgate/pkg/logger"
	"pixelgate/pkg/store/mysql"
)

// Correlator consumes the unified results queue and applies worker-reported
// outcomes to the status store. The store's monotonic transitions make the
// handler idempotent: redelivered or late messages find a terminal entry and
// are dropped, so at-least-once delivery never corrupts request state.
type Correlator struct {
	status  *status.Store
	archive *mysql.Repository // nil when the archive is disabled
}

// NewCorrelator creates the result correlator
func NewCorrelator(st *status.Store, archive *mysql.Repository) *Correlator {
	return &Correlator{status: st, archive: archive}
}

// HandleResult processes one result message. Returning nil acknowledges the
// message; the state transition is committed before that, never after.
func (c *Correlator) HandleResult(ctx context.Context, msg *model.ResultMessage) error {
	switch msg.Status {
	case model.ResultStatusProcessing:
		if !c.status.MarkProcessing(msg.RequestID) {
			logger.DebugCtx(ctx, "ignoring processing update for %s, not in queued state", msg.RequestID)
		}
		return nil

	case model.ResultStatusCompleted:
		if !c.status.Complete(msg.RequestID, msg.ResultKey, msg.Metrics) {
			logger.DebugCtx(ctx, "dropping duplicate or unknown completion for %s", msg.RequestID)
			return nil
		}
		logger.InfoCtx(ctx, "request completed, request_id: %s, result_key: %s", msg.RequestID, msg.ResultKey)
		c.archiveOutcome(ctx, msg)
		return nil

	case model.ResultStatusFailed:
		if !c.status.Fail(msg.RequestID, msg.Error) {
			logger.DebugCtx(ctx, "dropping duplicate or unknown failure for %s", msg.RequestID)
			return nil
		}
		logger.WarnCtx(ctx, "request failed, request_id: %s, error: %s", msg.RequestID, msg.Error)
		c.archiveOutcome(ctx, msg)
		return nil

	default:
		// Unknown status values are poison, redelivery cannot fix them
		logger.ErrorCtx(ctx, "dropping result with unknown status %q for %s", msg.Status, msg.RequestID)
		return nil
	}
}

// archiveOutcome writes the terminal outcome to the relational archive.
// Best effort: the status store is the source of truth, an archive failure
// must not trigger redelivery of an already-applied result.
func (c *Correlator) archiveOutcome(ctx context.Context, msg *model.ResultMessage) {
	if c.archive == nil {
		return
	}

	record := &mysql.RequestRecord{
		RequestID:   msg.RequestID,
		Algorithm:   msg.Algorithm,
		State:       msg.Status,
		ResultKey:   msg.ResultKey,
		Error:       msg.Error,
		DurationMs:  msg.Metrics["duration_ms"],
		CompletedAt: time.Now(),
	}
	if err := c.archive.Request.Create(ctx, record); err != nil {
		logger.WarnCtx(ctx, "failed to archive request %s: %v", msg.RequestID, err)
	}
}
