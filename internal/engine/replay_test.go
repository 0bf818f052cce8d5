package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keyledger/internal/projection"
)

func TestReplay(t *testing.T) {
	s := setupTestStore(t)
	e := startEngine(t, s)
	first := activeKey(t, e, "k1")
	activeKey(t, e, "k2")

	p, report, err := Replay(context.Background(), s, "")
	require.NoError(t, err)
	assert.True(t, report.Deterministic)
	assert.Equal(t, 4, report.Events)
	assert.Equal(t, e.Current().LastEventID(), report.LastEventID)
	assert.True(t, p.Equal(e.Current()))

	p, report, err = Replay(context.Background(), s, first[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Events)
	assert.Len(t, p.Keys(), 1)
}

func TestReplay_UnknownCutoff(t *testing.T) {
	s := setupTestStore(t)
	_, _, err := Replay(context.Background(), s, "nope")
	assert.ErrorIs(t, err, projection.ErrCutoffNotFound)
}
