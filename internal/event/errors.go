package event

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when decoding a kind no variant claims.
var ErrUnknownKind = errors.New("event: unknown kind")

// IrreversibleError reports that an event has no compensating inverse.
type IrreversibleError struct {
	Kind   Kind
	Reason string
}

func (e *IrreversibleError) Error() string {
	return fmt.Sprintf("event %s cannot be undone: %s", e.Kind, e.Reason)
}

// IsIrreversible reports whether err is (or wraps) an IrreversibleError.
func IsIrreversible(err error) bool {
	var ie *IrreversibleError
	return errors.As(err, &ie)
}
