package event

import (
	"fmt"
	"slices"
	"time"
)

// Aggregate identifies the family of entity a payload mutates.
type Aggregate string

const (
	AggregateKey         Aggregate = "key"
	AggregateCertificate Aggregate = "certificate"
	AggregateIdentity    Aggregate = "identity"
	AggregateToken       Aggregate = "token"
	AggregateManifest    Aggregate = "manifest"
)

// Payload is the sealed sum of all event variants.
type Payload interface {
	// Kind is the variant discriminator.
	Kind() Kind
	// EntityID is the id of the entity the event mutates.
	EntityID() string
	// Accept dispatches to the Visitor method for this variant.
	Accept(v Visitor) error

	payload()
}

// Aggregate returns the aggregate a kind belongs to, or "" for unknown kinds.
func (k Kind) Aggregate() Aggregate { return kindAggregates[k] }

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindAggregates[k]
	return ok
}

// Kinds returns every known kind, sorted.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindAggregates))
	for k := range kindAggregates {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Event is one immutable entry in the log.
type Event struct {
	// ID is a UUIDv7. Lexical order equals creation order.
	ID string
	// CorrelationID groups the events of one user intent (a bootstrap run, an undo).
	CorrelationID string
	// CausationID is the id of the event that caused this one, if any.
	CausationID string
	Timestamp   time.Time
	Payload     Payload
}

// Kind is shorthand for e.Payload.Kind().
func (e Event) Kind() Kind { return e.Payload.Kind() }

// EntityID is shorthand for e.Payload.EntityID().
func (e Event) EntityID() string { return e.Payload.EntityID() }

func (e Event) String() string {
	if e.Payload == nil {
		return fmt.Sprintf("event %s <nil payload>", e.ID)
	}
	return fmt.Sprintf("event %s %s(%s)", e.ID, e.Payload.Kind(), e.Payload.EntityID())
}

// CertTier is the position of a certificate in the chain.
type CertTier string

const (
	TierRoot         CertTier = "root"
	TierIntermediate CertTier = "intermediate"
	TierLeaf         CertTier = "leaf"
)

// IdentityRole is the level of a message-bus identity.
type IdentityRole string

const (
	RoleOperator IdentityRole = "operator"
	RoleAccount  IdentityRole = "account"
	RoleUser     IdentityRole = "user"
)

// Parent returns the role that owns r, or "" for operators.
func (r IdentityRole) Parent() IdentityRole {
	switch r {
	case RoleAccount:
		return RoleOperator
	case RoleUser:
		return RoleAccount
	default:
		return ""
	}
}

// Slot is a PIV key slot on a hardware token.
type Slot string

const (
	SlotAuthentication Slot = "9A"
	SlotSignature      Slot = "9C"
	SlotKeyManagement  Slot = "9D"
	SlotCardAuth       Slot = "9E"
)

// Slots lists the four PIV slots in fixed order.
func Slots() []Slot {
	return []Slot{SlotAuthentication, SlotSignature, SlotKeyManagement, SlotCardAuth}
}

// Valid reports whether s is one of the four PIV slots.
func (s Slot) Valid() bool {
	switch s {
	case SlotAuthentication, SlotSignature, SlotKeyManagement, SlotCardAuth:
		return true
	}
	return false
}
