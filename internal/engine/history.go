package engine

import "github.com/roach88/keyledger/internal/event"

// DefaultHistorySize is the number of events kept for undo.
const DefaultHistorySize = 100

// History is a bounded stack of events. Pushing onto a full history drops
// the oldest entry.
type History struct {
	buf   []event.Event
	start int
	n     int
}

// NewHistory returns an empty history holding at most size events. A size
// below one disables it.
func NewHistory(size int) *History {
	if size < 0 {
		size = 0
	}
	return &History{buf: make([]event.Event, size)}
}

// Cap returns the maximum number of entries.
func (h *History) Cap() int { return len(h.buf) }

// Len returns the number of entries.
func (h *History) Len() int { return h.n }

// Push adds ev on top.
func (h *History) Push(ev event.Event) {
	if len(h.buf) == 0 {
		return
	}
	if h.n == len(h.buf) {
		h.buf[h.start] = event.Event{}
		h.start = (h.start + 1) % len(h.buf)
		h.n--
	}
	h.buf[(h.start+h.n)%len(h.buf)] = ev
	h.n++
}

// Peek returns the top entry without removing it.
func (h *History) Peek() (event.Event, bool) {
	if h.n == 0 {
		return event.Event{}, false
	}
	return h.buf[(h.start+h.n-1)%len(h.buf)], true
}

// Pop removes and returns the top entry.
func (h *History) Pop() (event.Event, bool) {
	ev, ok := h.Peek()
	if !ok {
		return ev, false
	}
	h.buf[(h.start+h.n-1)%len(h.buf)] = event.Event{}
	h.n--
	return ev, true
}

// Clear drops every entry.
func (h *History) Clear() {
	clear(h.buf)
	h.start, h.n = 0, 0
}

// Events returns the entries oldest first.
func (h *History) Events() []event.Event {
	out := make([]event.Event, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}
