package queue

import (
	"codeinspector/internal/core/ports"
	"codeinspector/internal/data/history"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(paths ...string) ports.WriteRequest {
	req := ports.WriteRequest{}
	for _, p := range paths {
		req.Snapshots = append(req.Snapshots, history.Snapshot{Path: p})
	}
	return req
}

func firstPaths(batch []ports.WriteRequest) []string {
	out := make([]string, 0, len(batch))
	for _, req := range batch {
		out = append(out, req.Snapshots[0].Path)
	}
	return out
}

func TestRunQueue_FIFOInBatches(t *testing.T) {
	q := NewRunQueue(4)
	for _, p := range []string{"A.java", "B.java", "C.java"} {
		require.Equal(t, ports.EnqueueAccepted, q.Enqueue(run(p)))
	}
	assert.Equal(t, 3, q.Len())

	batch, err := q.DequeueBatch(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.java", "B.java"}, firstPaths(batch))
	assert.False(t, batch[0].EnqueuedAt.IsZero(), "enqueue time should be stamped")

	batch, err = q.DequeueBatch(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"C.java"}, firstPaths(batch))
	assert.Zero(t, q.Len())
}

func TestRunQueue_FullQueueEvictsOldest(t *testing.T) {
	q := NewRunQueue(2)
	q.Enqueue(run("A.java"))
	q.Enqueue(run("B.java"))

	assert.Equal(t, ports.EnqueueEvicted, q.Enqueue(run("C.java")))
	assert.EqualValues(t, 1, q.Evicted())

	batch, err := q.DequeueBatch(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"B.java", "C.java"}, firstPaths(batch))
}

func TestRunQueue_WaitTimesOutEmpty(t *testing.T) {
	q := NewRunQueue(1)
	start := time.Now()
	batch, err := q.DequeueBatch(context.Background(), 1, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, batch)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRunQueue_WaitWakesOnEnqueue(t *testing.T) {
	q := NewRunQueue(1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(run("Late.java"))
	}()

	batch, err := q.DequeueBatch(context.Background(), 1, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"Late.java"}, firstPaths(batch))
}

func TestRunQueue_CanceledContext(t *testing.T) {
	q := NewRunQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.DequeueBatch(ctx, 1, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunQueue_CloseDrainsThenEOF(t *testing.T) {
	q := NewRunQueue(2)
	q.Enqueue(run("A.java"))
	require.NoError(t, q.Close())
	assert.Equal(t, ports.EnqueueDropped, q.Enqueue(run("B.java")))

	batch, err := q.DequeueBatch(context.Background(), 5, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.java"}, firstPaths(batch))

	batch, err = q.DequeueBatch(context.Background(), 5, time.Second)
	assert.Equal(t, io.EOF, err)
	assert.Empty(t, batch)
}
