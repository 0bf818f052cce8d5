package lifecycle

import (
	"errors"
	"fmt"

	"github.com/roach88/keyledger/internal/event"
)

// Machine names a state machine in errors and logs.
type Machine string

const (
	MachineKey         Machine = "key"
	MachineCertificate Machine = "certificate"
	MachineIdentity    Machine = "identity"
	MachineOperator    Machine = "operator"
	MachineAccount     Machine = "account"
	MachineUser        Machine = "user"
	MachineToken       Machine = "token"
	MachineManifest    Machine = "manifest"
)

// stateNone is reported as From when the entity does not exist yet.
const stateNone = "none"

// InvalidTransitionError rejects a payload in the current state.
type InvalidTransitionError struct {
	Machine  Machine
	EntityID string
	From     string
	Event    event.Kind
	Reason   string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("%s %s: %s not allowed from %s", e.Machine, e.EntityID, e.Event, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// IsInvalidTransition reports whether err is (or wraps) an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var te *InvalidTransitionError
	return errors.As(err, &te)
}

func reject(m Machine, id, from string, p event.Payload, reason string) error {
	return &InvalidTransitionError{
		Machine:  m,
		EntityID: id,
		From:     from,
		Event:    p.Kind(),
		Reason:   reason,
	}
}
