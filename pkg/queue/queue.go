// Package queue defines the gateway's view of the queue substrate: publish
// correlated job messages to per-algorithm queues, consume the unified
// results queue, and sample queue statistics for the scalers.
package queue

import (
	"context"

	"pixelgate/internal/model"
)

// Stats point-in-time statistics for one queue
type Stats struct {
	Queue     string `json:"queue"`
	Pending   int64  `json:"pending"`   // messages ready for delivery
	Consumers int    `json:"consumers"` // worker instances subscribed to the queue
}

// Publisher publishes job messages to algorithm input queues
type Publisher interface {
	PublishJob(ctx context.Context, queue string, msg *model.JobMessage) error
}

// StatsSource samples per-queue statistics. A failed sample returns an
// error; callers treat it as "no data this tick", never as fatal.
type StatsSource interface {
	Stats(ctx context.Context, queues []string) (map[string]Stats, error)
}

// ResultHandler processes one result message. Returning an error causes
// redelivery; returning nil acknowledges the message.
type ResultHandler func(ctx context.Context, msg *model.ResultMessage) error

// JobHandler processes one job message on a worker. Same ack semantics as
// ResultHandler.
type JobHandler func(ctx context.Context, msg *model.JobMessage) error
