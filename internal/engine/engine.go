package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/metrics"
	"github.com/roach88/keyledger/internal/projection"
	"github.com/roach88/keyledger/internal/tracing"
)

// EventLog is the durable, ordered storage the engine appends to.
// *store.Store implements it.
type EventLog interface {
	Append(ctx context.Context, events ...event.Event) error
	ReadAll(ctx context.Context) ([]event.Event, error)
}

// Command is a batch of payloads committed together. The first event is
// caused by CausationID (if set); each later event is caused by the one
// before it. An empty CorrelationID gets a fresh id.
type Command struct {
	CorrelationID string
	CausationID   string
	Payloads      []event.Payload
}

type requestKind int

const (
	requestSubmit requestKind = iota + 1
	requestUndo
	requestRedo
)

func (k requestKind) String() string {
	switch k {
	case requestSubmit:
		return "submit"
	case requestUndo:
		return "undo"
	case requestRedo:
		return "redo"
	}
	return "unknown"
}

type request struct {
	kind  requestKind
	ctx   context.Context
	cmd   Command
	reply chan result
}

type result struct {
	events []event.Event
	err    error
}

// Engine serializes every write to the log.
//
// Thread-safety model:
//   - Submit, Undo, Redo, Current, Stop: safe from any goroutine
//   - Load: before Run
//   - Run: exactly one goroutine
type Engine struct {
	log       EventLog
	ids       event.IDGenerator
	clock     event.Clock
	metrics   metrics.Recorder
	maxEvents int

	queue   *requestQueue
	current atomic.Pointer[projection.Projection]

	// Owned by the Run goroutine.
	undo *History
	redo *History

	stopOnce sync.Once
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithIDGenerator sets the event and correlation id source. Ids must sort
// in generation order.
func WithIDGenerator(g event.IDGenerator) EngineOption {
	return func(e *Engine) { e.ids = g }
}

// WithClock sets the timestamp source.
func WithClock(c event.Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// WithHistorySize sets how many events Undo can reach back.
func WithHistorySize(n int) EngineOption {
	return func(e *Engine) {
		e.undo = NewHistory(n)
		e.redo = NewHistory(n)
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithMaxEvents sets the per-command payload limit. Zero disables it.
func WithMaxEvents(n int) EngineOption {
	return func(e *Engine) { e.maxEvents = n }
}

// New creates an engine over log with an empty projection. Call Load to
// pick up events already in the log.
func New(log EventLog, opts ...EngineOption) *Engine {
	e := &Engine{
		log:       log,
		ids:       event.UUIDv7Generator{},
		clock:     event.SystemClock{},
		metrics:   metrics.Nop{},
		maxEvents: DefaultMaxEvents,
		queue:     newRequestQueue(),
		undo:      NewHistory(DefaultHistorySize),
		redo:      NewHistory(DefaultHistorySize),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.current.Store(projection.New())
	return e
}

// Load rebuilds the projection from the log.
func (e *Engine) Load(ctx context.Context) (err error) {
	ctx, span := tracing.Start(ctx, "engine", "load")
	defer func() { tracing.End(span, err) }()

	events, err := e.log.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}
	p, err := projection.Rebuild(events)
	if err != nil {
		return fmt.Errorf("rebuild projection: %w", err)
	}
	e.current.Store(p)
	slog.Info("engine loaded", "events", p.Len(), "last_event_id", p.LastEventID())
	return nil
}

// Current returns the latest published projection. It is never mutated.
func (e *Engine) Current() *projection.Projection {
	return e.current.Load()
}

// Submit commits cmd and returns the appended events.
func (e *Engine) Submit(ctx context.Context, cmd Command) ([]event.Event, error) {
	return e.do(ctx, &request{kind: requestSubmit, cmd: cmd})
}

// Undo appends the inverse of the newest undoable event.
func (e *Engine) Undo(ctx context.Context) ([]event.Event, error) {
	return e.do(ctx, &request{kind: requestUndo})
}

// Redo re-appends the most recently undone payload.
func (e *Engine) Redo(ctx context.Context) ([]event.Event, error) {
	return e.do(ctx, &request{kind: requestRedo})
}

func (e *Engine) do(ctx context.Context, r *request) ([]event.Event, error) {
	r.ctx = ctx
	r.reply = make(chan result, 1)
	if !e.queue.Enqueue(r) {
		return nil, ErrStopped
	}
	select {
	case res := <-r.reply:
		return res.events, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run drains the request queue until ctx is cancelled or Stop is called.
// Requests still queued at that point fail with ErrStopped.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting")
	defer e.Stop()

	for {
		if r, ok := e.queue.TryDequeue(); ok {
			e.process(r)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel is closed by Stop.
			if e.queue.Len() == 0 && e.stopped() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Pending requests fail with ErrStopped.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		for _, r := range e.queue.Close() {
			r.reply <- result{err: ErrStopped}
		}
	})
}

func (e *Engine) stopped() bool {
	select {
	case _, ok := <-e.queue.Wait():
		return !ok
	default:
		return false
	}
}

// process handles one request. Called only from Run.
func (e *Engine) process(r *request) {
	if err := r.ctx.Err(); err != nil {
		r.reply <- result{err: err}
		return
	}

	start := time.Now()
	var res result
	switch r.kind {
	case requestSubmit:
		res.events, res.err = e.submit(r.ctx, r.cmd)
	case requestUndo:
		res.events, res.err = e.undoLast(r.ctx)
	case requestRedo:
		res.events, res.err = e.redoLast(r.ctx)
	default:
		res.err = fmt.Errorf("unknown request kind %d", r.kind)
	}
	e.metrics.RecordSubmitLatency(time.Since(start))

	if res.err != nil {
		slog.Debug("request failed", "kind", r.kind.String(), "error", res.err)
	}
	r.reply <- res
}

func (e *Engine) submit(ctx context.Context, cmd Command) ([]event.Event, error) {
	events, err := e.commit(ctx, cmd)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		e.undo.Push(ev)
	}
	e.redo.Clear()
	return events, nil
}

func (e *Engine) undoLast(ctx context.Context) ([]event.Event, error) {
	target, ok := e.undo.Peek()
	if !ok {
		return nil, &CommandError{Code: ErrCodeNothingToUndo, Message: "history is empty"}
	}
	inverse, err := event.Inverse(target.Payload)
	if err != nil {
		return nil, &CommandError{
			Code:          ErrCodeIrreversible,
			Message:       fmt.Sprintf("cannot undo %s", target.ID),
			CorrelationID: target.CorrelationID,
			Err:           err,
		}
	}

	events, err := e.commit(ctx, Command{
		CorrelationID: target.CorrelationID,
		CausationID:   target.ID,
		Payloads:      []event.Payload{inverse},
	})
	if err != nil {
		return nil, err
	}
	e.undo.Pop()
	e.redo.Push(target)
	e.metrics.RecordHistory("undo")
	slog.Info("event undone",
		"undone_id", target.ID,
		"compensation_id", events[0].ID,
		"kind", string(inverse.Kind()),
		"event", "undo",
	)
	return events, nil
}

func (e *Engine) redoLast(ctx context.Context) ([]event.Event, error) {
	target, ok := e.redo.Peek()
	if !ok {
		return nil, &CommandError{Code: ErrCodeNothingToRedo, Message: "nothing has been undone"}
	}

	events, err := e.commit(ctx, Command{
		CorrelationID: target.CorrelationID,
		CausationID:   target.ID,
		Payloads:      []event.Payload{target.Payload},
	})
	if err != nil {
		return nil, err
	}
	e.redo.Pop()
	e.undo.Push(events[0])
	e.metrics.RecordHistory("redo")
	slog.Info("event redone",
		"redone_id", target.ID,
		"new_id", events[0].ID,
		"kind", string(target.Payload.Kind()),
		"event", "redo",
	)
	return events, nil
}

// commit validates, appends and publishes one batch.
func (e *Engine) commit(ctx context.Context, cmd Command) (_ []event.Event, err error) {
	if len(cmd.Payloads) == 0 {
		return nil, &CommandError{Code: ErrCodeEmptyCommand, Message: "no payloads", CorrelationID: cmd.CorrelationID}
	}
	corr := cmd.CorrelationID
	if corr == "" {
		corr = e.ids.NewID()
	}
	if err := checkQuota(corr, len(cmd.Payloads), e.maxEvents); err != nil {
		e.metrics.RecordRejected(string(ErrCodeQuotaExceeded))
		return nil, err
	}

	ctx, span := tracing.Start(ctx, "engine", "commit",
		attribute.String("correlation_id", corr),
		attribute.Int("events", len(cmd.Payloads)),
	)
	defer func() { tracing.End(span, err) }()

	events := make([]event.Event, len(cmd.Payloads))
	cause := cmd.CausationID
	for i, p := range cmd.Payloads {
		id := e.ids.NewID()
		events[i] = event.Event{
			ID:            id,
			CorrelationID: corr,
			CausationID:   cause,
			Timestamp:     e.clock.Now(),
			Payload:       p,
		}
		cause = id
	}

	next, err := projection.ApplyAll(e.current.Load(), events)
	if err != nil {
		e.metrics.RecordRejected(rejectReason(err))
		slog.Warn("command rejected",
			"correlation_id", corr,
			"error", err,
			"event", "command_rejected",
		)
		return nil, &CommandError{
			Code:          ErrCodeRejected,
			Message:       "projection refused the batch",
			CorrelationID: corr,
			Err:           err,
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.log.Append(ctx, events...); err != nil {
		slog.Error("append failed",
			"correlation_id", corr,
			"events", len(events),
			"error", err,
			"event", "append_failed",
		)
		return nil, &CommandError{
			Code:          ErrCodeAppendFailed,
			Message:       "event log refused the batch",
			CorrelationID: corr,
			Err:           err,
		}
	}
	e.current.Store(next)

	for _, ev := range events {
		e.metrics.RecordApplied(string(ev.Kind()))
		slog.Debug("event applied",
			"id", ev.ID,
			"kind", string(ev.Kind()),
			"entity_id", ev.EntityID(),
			"causation_id", ev.CausationID,
		)
	}
	slog.Info("command committed",
		"correlation_id", corr,
		"events", len(events),
		"last_event_id", events[len(events)-1].ID,
		"event", "command_committed",
	)
	return events, nil
}

func rejectReason(err error) string {
	var pe *projection.ProjectionError
	if errors.As(err, &pe) {
		return string(pe.Kind)
	}
	return "UNKNOWN"
}
