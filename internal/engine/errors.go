package engine

import (
	"errors"
	"fmt"
)

// ErrStopped is returned for requests made after the engine stopped, and
// for requests still queued when it did.
var ErrStopped = errors.New("engine stopped")

// CommandError reports a request the engine refused. The wrapped error
// carries the detail (a *projection.ProjectionError, an
// *event.IrreversibleError, a store error).
type CommandError struct {
	Code          ErrorCode
	Message       string
	CorrelationID string
	Err           error
}

// ErrorCode categorizes command errors.
type ErrorCode string

const (
	// ErrCodeEmptyCommand indicates a command with no payloads.
	ErrCodeEmptyCommand ErrorCode = "EMPTY_COMMAND"

	// ErrCodeQuotaExceeded indicates a command larger than the batch limit.
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeRejected indicates the projection refused an event.
	ErrCodeRejected ErrorCode = "REJECTED"

	// ErrCodeAppendFailed indicates the event log refused the batch.
	ErrCodeAppendFailed ErrorCode = "APPEND_FAILED"

	// ErrCodeNothingToUndo indicates an empty undo history.
	ErrCodeNothingToUndo ErrorCode = "NOTHING_TO_UNDO"

	// ErrCodeNothingToRedo indicates an empty redo stack.
	ErrCodeNothingToRedo ErrorCode = "NOTHING_TO_REDO"

	// ErrCodeIrreversible indicates the event to undo has no inverse.
	ErrCodeIrreversible ErrorCode = "IRREVERSIBLE"
)

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.CorrelationID != "" {
		msg += fmt.Sprintf(" (correlation=%s)", e.CorrelationID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// CodeOf returns the code of the first *CommandError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsRejected reports whether err is a command the projection refused.
func IsRejected(err error) bool {
	return CodeOf(err) == ErrCodeRejected
}
