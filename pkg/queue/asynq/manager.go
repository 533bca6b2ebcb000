package asynq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pixelgate/internal/model"
	"pixelgate/pkg/config"
	"pixelgate/pkg/logger"
	"pixelgate/pkg/queue"

	"github.com/hibiken/asynq"
)

// Task type names on the wire. Workers and gateway must agree on these.
const (
	TypeProcessJob = "image:process"
	TypeJobResult  = "image:result"
)

// Manager queue manager over asynq. One Manager owns a client for
// publishing, an inspector for stats, and at most one consuming server.
type Manager struct {
	redisOpt    asynq.RedisClientOpt
	client      *asynq.Client
	inspector   *asynq.Inspector
	server      *asynq.Server
	resultQueue string
	taskTimeout time.Duration
}

// NewManager creates a queue manager
func NewManager(cfg *config.Config) *Manager {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	return &Manager{
		redisOpt:    redisOpt,
		client:      asynq.NewClient(redisOpt),
		inspector:   asynq.NewInspector(redisOpt),
		resultQueue: cfg.Queue.ResultQueue,
		taskTimeout: time.Duration(cfg.Queue.TaskTimeout) * time.Second,
	}
}

// ResultQueue returns the unified results queue name
func (m *Manager) ResultQueue() string {
	return m.resultQueue
}

// PublishJob publishes a job message to an algorithm's input queue.
// The task id is the request id, so an accidental double-publish of the
// same admission is rejected by the substrate rather than duplicated.
func (m *Manager) PublishJob(ctx context.Context, queueName string, msg *model.JobMessage) error {
	payload, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal job message: %w", err)
	}

	task := asynq.NewTask(TypeProcessJob, payload)
	opts := []asynq.Option{
		asynq.Queue(queueName),
		asynq.TaskID(msg.RequestID),
		asynq.Timeout(m.taskTimeout),
		// The gateway does not retry jobs; a failed job is reported on the
		// results queue and retry is a new admission by the client.
		asynq.MaxRetry(0),
	}

	info, err := m.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	logger.InfoCtx(ctx, "job published, request_id: %s, queue: %s", msg.RequestID, info.Queue)
	return nil
}

// PublishResult publishes a result message to the unified results queue.
// Used by workers; duplicates are allowed and deduplicated by the
// correlator's terminal-state check.
func (m *Manager) PublishResult(ctx context.Context, msg *model.ResultMessage) error {
	payload, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal result message: %w", err)
	}

	task := asynq.NewTask(TypeJobResult, payload)
	if _, err := m.client.EnqueueContext(ctx, task, asynq.Queue(m.resultQueue), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}
	return nil
}

// StartResultConsumer starts the background server consuming the unified
// results queue. A handler error triggers redelivery; a crash before the
// handler returns leaves the message unacknowledged, so it is redelivered
// and deduplicated downstream.
func (m *Manager) StartResultConsumer(concurrency int, handler queue.ResultHandler) error {
	if m.server != nil {
		return fmt.Errorf("queue manager already consuming")
	}

	m.server = asynq.NewServer(m.redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{m.resultQueue: 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeJobResult, func(ctx context.Context, t *asynq.Task) error {
		var msg model.ResultMessage
		if err := msg.FromJSON(t.Payload()); err != nil {
			// Poison message: acknowledge and drop, redelivery cannot fix it
			logger.ErrorCtx(ctx, "dropping malformed result message: %v", err)
			return nil
		}
		return handler(ctx, &msg)
	})

	return m.server.Start(mux)
}

// StartJobConsumer starts a server consuming one algorithm input queue.
// Used by worker processes.
func (m *Manager) StartJobConsumer(queueName string, concurrency int, handler queue.JobHandler) error {
	if m.server != nil {
		return fmt.Errorf("queue manager already consuming")
	}

	m.server = asynq.NewServer(m.redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queueName: 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeProcessJob, func(ctx context.Context, t *asynq.Task) error {
		var msg model.JobMessage
		if err := msg.FromJSON(t.Payload()); err != nil {
			logger.ErrorCtx(ctx, "dropping malformed job message: %v", err)
			return nil
		}
		return handler(ctx, &msg)
	})

	return m.server.Start(mux)
}

// Stats samples pending depth and consumer count for the given queues.
// Queues that do not exist yet report zero depth and zero consumers.
func (m *Manager) Stats(ctx context.Context, queues []string) (map[string]queue.Stats, error) {
	servers, err := m.inspector.Servers()
	if err != nil {
		return nil, fmt.Errorf("failed to list queue servers: %w", err)
	}

	consumers := make(map[string]int)
	for _, srv := range servers {
		for q := range srv.Queues {
			consumers[q]++
		}
	}

	out := make(map[string]queue.Stats, len(queues))
	for _, q := range queues {
		info, err := m.inspector.GetQueueInfo(q)
		if err != nil {
			if errors.Is(err, asynq.ErrQueueNotFound) {
				out[q] = queue.Stats{Queue: q, Pending: 0, Consumers: consumers[q]}
				continue
			}
			return nil, fmt.Errorf("failed to get stats for queue %s: %w", q, err)
		}
		out[q] = queue.Stats{
			Queue:     q,
			Pending:   int64(info.Pending),
			Consumers: consumers[q],
		}
	}
	return out, nil
}

// Close stops the consuming server (if any) and closes the client
func (m *Manager) Close() error {
	if m.server != nil {
		m.server.Shutdown()
		m.server = nil
	}
	if err := m.inspector.Close(); err != nil {
		return err
	}
	return m.client.Close()
}
