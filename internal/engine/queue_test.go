package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestQueue_FIFO(t *testing.T) {
	q := newRequestQueue()
	for _, id := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(&request{cmd: Command{CorrelationID: id}}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"A", "B", "C"} {
		r, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, r.cmd.CorrelationID)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestRequestQueue_Signal(t *testing.T) {
	q := newRequestQueue()
	q.Enqueue(&request{})
	q.Enqueue(&request{})

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("no signal after enqueue")
	}
	// Signals coalesce.
	select {
	case <-q.Wait():
		t.Fatal("second signal should have coalesced")
	default:
	}
}

func TestRequestQueue_Close(t *testing.T) {
	q := newRequestQueue()
	q.Enqueue(&request{cmd: Command{CorrelationID: "pending"}})

	pending := q.Close()
	require.Len(t, pending, 1)
	assert.Equal(t, "pending", pending[0].cmd.CorrelationID)
	assert.False(t, q.Enqueue(&request{}))
	assert.Zero(t, q.Len())
	assert.Nil(t, q.Close())

	_, open := <-q.Wait()
	assert.False(t, open)
}
