package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/keyledger/internal/event"
)

// Append writes events in one transaction, in order. Either all of them are
// stored or none is.
func (s *Store) Append(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(id, correlation_id, causation_id, kind, aggregate, entity_id, timestamp, payload, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("append: prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if err := insert(ctx, stmt, ev); err != nil {
			return fmt.Errorf("append %s: %w", ev.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append: commit: %w", err)
	}
	return nil
}

func insert(ctx context.Context, stmt *sql.Stmt, ev event.Event) error {
	if ev.Payload == nil {
		return errors.New("nil payload")
	}
	payload, err := event.EncodePayload(ev.Payload)
	if err != nil {
		return err
	}
	hash, err := event.ContentHash(ev)
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx,
		ev.ID,
		ev.CorrelationID,
		nullable(ev.CausationID),
		string(ev.Kind()),
		string(ev.Kind().Aggregate()),
		ev.EntityID(),
		ev.Timestamp.UTC().Format(time.RFC3339Nano),
		string(payload),
		hash,
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrDuplicateEvent
	}
	return err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
