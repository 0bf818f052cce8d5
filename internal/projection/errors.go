package projection

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rejected event.
type ErrorKind string

const (
	ErrKindMissingID          ErrorKind = "MISSING_ID"
	ErrKindDuplicateID        ErrorKind = "DUPLICATE_ID"
	ErrKindMissingCorrelation ErrorKind = "MISSING_CORRELATION"
	ErrKindUnknownCausation   ErrorKind = "UNKNOWN_CAUSATION"
	ErrKindCausationOrder     ErrorKind = "CAUSATION_ORDER"
	ErrKindMissingPayload     ErrorKind = "MISSING_PAYLOAD"
	ErrKindTransition         ErrorKind = "INVALID_TRANSITION"
)

// ErrCutoffNotFound is returned by ReplayUntil when the cutoff id is not in
// the log.
var ErrCutoffNotFound = errors.New("projection: cutoff event not found")

// ProjectionError reports an event Apply refused. The projection it was
// applied to is unchanged.
type ProjectionError struct {
	EventID string
	Kind    ErrorKind
	Err     error
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("apply %s: %s: %v", e.EventID, e.Kind, e.Err)
}

func (e *ProjectionError) Unwrap() error { return e.Err }

// IsProjectionError reports whether err is (or wraps) a ProjectionError.
func IsProjectionError(err error) bool {
	var pe *ProjectionError
	return errors.As(err, &pe)
}

func envelopeError(id string, kind ErrorKind, format string, args ...any) error {
	return &ProjectionError{EventID: id, Kind: kind, Err: fmt.Errorf(format, args...)}
}
