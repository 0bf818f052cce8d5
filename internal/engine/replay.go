package engine

import (
	"context"
	"fmt"

	"github.com/roach88/keyledger/internal/projection"
)

// ReplayReport is the outcome of Replay.
type ReplayReport struct {
	Events        int    `json:"events"`
	LastEventID   string `json:"last_event_id"`
	Deterministic bool   `json:"deterministic"`
}

// Replay rebuilds the projection from log twice and compares the results.
// A non-empty until stops at that event id (inclusive).
//
// Replay uses the same fold as live application, so two rebuilds of the
// same log must agree; Deterministic false means the projection code has a
// hidden input.
func Replay(ctx context.Context, log EventLog, until string) (*projection.Projection, ReplayReport, error) {
	events, err := log.ReadAll(ctx)
	if err != nil {
		return nil, ReplayReport{}, fmt.Errorf("read log: %w", err)
	}

	rebuild := func() (*projection.Projection, error) {
		if until == "" {
			return projection.Rebuild(events)
		}
		return projection.ReplayUntil(events, until)
	}

	first, err := rebuild()
	if err != nil {
		return nil, ReplayReport{}, fmt.Errorf("replay: %w", err)
	}
	second, err := rebuild()
	if err != nil {
		return nil, ReplayReport{}, fmt.Errorf("replay: %w", err)
	}

	return first, ReplayReport{
		Events:        first.Len(),
		LastEventID:   first.LastEventID(),
		Deterministic: first.Equal(second),
	}, nil
}
