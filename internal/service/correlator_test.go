package service

import (
	"context"
	"testing"

	"pixelgate/internal/model"
	"pixelgate/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T, requestID string) *status.Store {
	t.Helper()
	st := status.NewStore()
	require.NoError(t, st.Seed(requestID, "grayscale"))
	return st
}

func TestHandleResult_ProcessingAdvancesState(t *testing.T) {
	st := seededStore(t, "req-1")
	c := NewCorrelator(st, nil)

	err := c.HandleResult(context.Background(), &model.ResultMessage{
		RequestID: "req-1",
		Algorithm: "grayscale",
		Status:    model.ResultStatusProcessing,
	})
	require.NoError(t, err)

	entry, ok := st.Get("req-1")
	require.True(t, ok)
	assert.Equal(t, model.StateProcessing, entry.State)
}

func TestHandleResult_CompletedIsTerminal(t *testing.T) {
	st := seededStore(t, "req-1")
	c := NewCorrelator(st, nil)
	ctx := context.Background()

	err := c.HandleResult(ctx, &model.ResultMessage{
		RequestID: "req-1",
		Status:    model.ResultStatusCompleted,
		ResultKey: "output/req-1",
		Metrics:   map[string]float64{"duration_ms": 120},
	})
	require.NoError(t, err)

	entry, ok := st.Get("req-1")
	require.True(t, ok)
	assert.Equal(t, model.StateCompleted, entry.State)
	assert.Equal(t, "output/req-1", entry.ResultKey)
	assert.Equal(t, 120.0, entry.Metrics["duration_ms"])
}

func TestHandleResult_RedeliveredCompletionIsDropped(t *testing.T) {
	st := seededStore(t, "req-1")
	c := NewCorrelator(st, nil)
	ctx := context.Background()

	first := &model.ResultMessage{RequestID: "req-1", Status: model.ResultStatusCompleted, ResultKey: "output/req-1"}
	require.NoError(t, c.HandleResult(ctx, first))

	// the redelivered copy carries a different key; the original commit wins
	dup := &model.ResultMessage{RequestID: "req-1", Status: model.ResultStatusCompleted, ResultKey: "output/other"}
	require.NoError(t, c.HandleResult(ctx, dup), "duplicates acknowledge cleanly")

	entry, _ := st.Get("req-1")
	assert.Equal(t, "output/req-1", entry.ResultKey)
}

func TestHandleResult_FailureAfterCompletionDoesNotRegress(t *testing.T) {
	st := seededStore(t, "req-1")
	c := NewCorrelator(st, nil)
	ctx := context.Background()

	require.NoError(t, c.HandleResult(ctx, &model.ResultMessage{
		RequestID: "req-1", Status: model.ResultStatusCompleted, ResultKey: "output/req-1",
	}))
	require.NoError(t, c.HandleResult(ctx, &model.ResultMessage{
		RequestID: "req-1", Status: model.ResultStatusFailed, Error: "late failure",
	}))

	entry, _ := st.Get("req-1")
	assert.Equal(t, model.StateCompleted, entry.State)
	assert.Empty(t, entry.Error)
}

func TestHandleResult_FailedRecordsError(t *testing.T) {
	st := seededStore(t, "req-1")
	c := NewCorrelator(st, nil)

	err := c.HandleResult(context.Background(), &model.ResultMessage{
		RequestID: "req-1",
		Status:    model.ResultStatusFailed,
		Error:     "unsupported pixel format",
	})
	require.NoError(t, err)

	entry, _ := st.Get("req-1")
	assert.Equal(t, model.StateFailed, entry.State)
	assert.Equal(t, "unsupported pixel format", entry.Error)
}

func TestHandleResult_UnknownRequestIsDroppedWithoutCreatingState(t *testing.T) {
	st := status.NewStore()
	c := NewCorrelator(st, nil)

	err := c.HandleResult(context.Background(), &model.ResultMessage{
		RequestID: "ghost",
		Status:    model.ResultStatusCompleted,
		ResultKey: "output/ghost",
	})
	require.NoError(t, err, "unknown ids acknowledge cleanly, redelivery cannot help")
	assert.Equal(t, 0, st.Len())
}

func TestHandleResult_UnknownStatusIsDropped(t *testing.T) {
	st := seededStore(t, "req-1")
	c := NewCorrelator(st, nil)

	err := c.HandleResult(context.Background(), &model.ResultMessage{
		RequestID: "req-1",
		Status:    "exploded",
	})
	require.NoError(t, err)

	entry, _ := st.Get("req-1")
	assert.Equal(t, model.StateQueued, entry.State, "unknown status leaves state untouched")
}

func TestHandleResult_ProcessingAfterTerminalIsIgnored(t *testing.T) {
	st := seededStore(t, "req-1")
	c := NewCorrelator(st, nil)
	ctx := context.Background()

	require.NoError(t, c.HandleResult(ctx, &model.ResultMessage{
		RequestID: "req-1", Status: model.ResultStatusCompleted, ResultKey: "output/req-1",
	}))
	require.NoError(t, c.HandleResult(ctx, &model.ResultMessage{
		RequestID: "req-1", Status: model.ResultStatusProcessing,
	}))

	entry, _ := st.Get("req-1")
	assert.Equal(t, model.StateCompleted, entry.State)
}
