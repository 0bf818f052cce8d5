package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/keyledger/internal/event"
)

func ids(evs []event.Event) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.ID
	}
	return out
}

func TestHistory_LIFO(t *testing.T) {
	h := NewHistory(3)
	h.Push(event.Event{ID: "a"})
	h.Push(event.Event{ID: "b"})

	top, ok := h.Peek()
	assert.True(t, ok)
	assert.Equal(t, "b", top.ID)

	popped, _ := h.Pop()
	assert.Equal(t, "b", popped.ID)
	popped, _ = h.Pop()
	assert.Equal(t, "a", popped.ID)
	_, ok = h.Pop()
	assert.False(t, ok)
}

func TestHistory_DropsOldest(t *testing.T) {
	h := NewHistory(3)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		h.Push(event.Event{ID: id})
	}
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []string{"c", "d", "e"}, ids(h.Events()))

	h.Pop()
	h.Push(event.Event{ID: "f"})
	assert.Equal(t, []string{"c", "d", "f"}, ids(h.Events()))
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory(2)
	h.Push(event.Event{ID: "a"})
	h.Clear()
	assert.Zero(t, h.Len())
	assert.Empty(t, h.Events())
}

func TestHistory_ZeroSize(t *testing.T) {
	h := NewHistory(0)
	h.Push(event.Event{ID: "a"})
	assert.Zero(t, h.Len())
	_, ok := h.Peek()
	assert.False(t, ok)
	assert.Zero(t, NewHistory(-1).Cap())
}
