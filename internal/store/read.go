package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/keyledger/internal/event"
)

const selectEvents = `
	SELECT id, correlation_id, causation_id, kind, timestamp, payload, content_hash
	FROM events
`

// ReadAll returns every event in append order.
func (s *Store) ReadAll(ctx context.Context) ([]event.Event, error) {
	return s.query(ctx, selectEvents+` ORDER BY seq ASC`)
}

// ReadCorrelation returns the events of one correlation group in append order.
func (s *Store) ReadCorrelation(ctx context.Context, correlationID string) ([]event.Event, error) {
	return s.query(ctx, selectEvents+` WHERE correlation_id = ? ORDER BY seq ASC`, correlationID)
}

// ReadEntity returns the history of one entity in append order.
func (s *Store) ReadEntity(ctx context.Context, agg event.Aggregate, entityID string) ([]event.Event, error) {
	return s.query(ctx, selectEvents+` WHERE aggregate = ? AND entity_id = ? ORDER BY seq ASC`, string(agg), entityID)
}

// Get returns one event by id.
func (s *Store) Get(ctx context.Context, id string) (event.Event, error) {
	evs, err := s.query(ctx, selectEvents+` WHERE id = ?`, id)
	if err != nil {
		return event.Event{}, err
	}
	if len(evs) == 0 {
		return event.Event{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return evs[0], nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []event.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (event.Event, error) {
	var (
		id, corr, kind, ts, payload, hash string
		cause                             sql.NullString
	)
	if err := rows.Scan(&id, &corr, &cause, &kind, &ts, &payload, &hash); err != nil {
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}

	p, err := event.DecodePayload(event.Kind(kind), []byte(payload))
	if err != nil {
		return event.Event{}, fmt.Errorf("event %s: %w", id, err)
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return event.Event{}, fmt.Errorf("event %s: timestamp: %w", id, err)
	}

	ev := event.Event{
		ID:            id,
		CorrelationID: corr,
		CausationID:   cause.String,
		Timestamp:     at.UTC(),
		Payload:       p,
	}
	got, err := event.ContentHash(ev)
	if err != nil {
		return event.Event{}, err
	}
	if got != hash {
		return event.Event{}, fmt.Errorf("%w: event %s", ErrIntegrity, id)
	}
	return ev, nil
}

// IsIntegrityError reports whether err is (or wraps) ErrIntegrity.
func IsIntegrityError(err error) bool { return errors.Is(err, ErrIntegrity) }
