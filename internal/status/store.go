// Package status owns the concurrent request-status map shared between the
// gateway's admission path and the result correlator. Transitions are
// monotonic: queued -> processing -> completed|failed, and terminal states
// are never left.
package status

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"pixelgate/internal/model"
)

const shardCount = 32

type shard struct {
	mu      sync.RWMutex
	entries map[string]*model.RequestStatus
}

// Store sharded concurrent status map keyed by request id.
// Keys hash to independent shards, so unrelated requests never contend.
type Store struct {
	shards [shardCount]*shard
	clock  func() time.Time
}

// NewStore creates an empty status store
func NewStore() *Store {
	s := &Store{clock: time.Now}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*model.RequestStatus)}
	}
	return s
}

// WithClock overrides the time source, for tests
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock
	return s
}

func (s *Store) shardFor(requestID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(requestID))
	return s.shards[h.Sum32()%shardCount]
}

// Seed inserts a fresh entry in state queued. Inserting an existing id is a
// programming error on the admission path and is rejected.
func (s *Store) Seed(requestID, algorithm string) error {
	sh := s.shardFor(requestID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.entries[requestID]; ok {
		return fmt.Errorf("status: duplicate request id %s", requestID)
	}
	sh.entries[requestID] = &model.RequestStatus{
		RequestID: requestID,
		Algorithm: algorithm,
		State:     model.StateQueued,
		UpdatedAt: s.clock(),
	}
	return nil
}

// Get returns a copy of the entry, or false when the id is unknown
func (s *Store) Get(requestID string) (model.RequestStatus, bool) {
	sh := s.shardFor(requestID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	entry, ok := sh.entries[requestID]
	if !ok {
		return model.RequestStatus{}, false
	}
	cp := *entry
	if entry.Metrics != nil {
		cp.Metrics = make(map[string]float64, len(entry.Metrics))
		for k, v := range entry.Metrics {
			cp.Metrics[k] = v
		}
	}
	return cp, true
}

// MarkProcessing applies queued -> processing. Returns false when the entry
// is absent or has moved past queued; both are no-ops, not errors.
func (s *Store) MarkProcessing(requestID string) bool {
	sh := s.shardFor(requestID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[requestID]
	if !ok || entry.State != model.StateQueued {
		return false
	}
	entry.State = model.StateProcessing
	entry.UpdatedAt = s.clock()
	return true
}

// Complete transitions to the completed terminal state, attaching the result
// key and metrics. Returns false when the entry is absent or already
// terminal; the caller treats that as a duplicate/late result to drop.
func (s *Store) Complete(requestID, resultKey string, metrics map[string]float64) bool {
	return s.finish(requestID, func(entry *model.RequestStatus) {
		entry.State = model.StateCompleted
		entry.ResultKey = resultKey
		entry.Metrics = metrics
	})
}

// Fail transitions to the failed terminal state with structured error detail.
// Same absent/terminal semantics as Complete.
func (s *Store) Fail(requestID, errDetail string) bool {
	return s.finish(requestID, func(entry *model.RequestStatus) {
		entry.State = model.StateFailed
		entry.Error = errDetail
	})
}

func (s *Store) finish(requestID string, apply func(*model.RequestStatus)) bool {
	sh := s.shardFor(requestID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[requestID]
	if !ok || entry.State.Terminal() {
		return false
	}
	apply(entry)
	entry.UpdatedAt = s.clock()
	return true
}

// Len returns the number of tracked requests
func (s *Store) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.entries)
		sh.mu.RUnlock()
	}
	return total
}
