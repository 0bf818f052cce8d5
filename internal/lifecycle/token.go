package lifecycle

import (
	"maps"

	"github.com/roach88/keyledger/internal/event"
)

// TokenStatus is the state of a hardware token.
type TokenStatus string

const (
	TokenDetected    TokenStatus = "detected"
	TokenProvisioned TokenStatus = "provisioned"
	TokenActive      TokenStatus = "active"
	TokenLocked      TokenStatus = "locked"
	TokenLost        TokenStatus = "lost"
	TokenRetired     TokenStatus = "retired"
)

// Terminal reports whether no further transition is possible.
func (s TokenStatus) Terminal() bool { return s == TokenRetired }

// Token is the projected state of a hardware token bound to one person.
type Token struct {
	ID         string                `json:"id"`
	Status     TokenStatus           `json:"status"`
	Model      string                `json:"model,omitempty"`
	PersonID   string                `json:"person_id"`
	PINChanged bool                  `json:"pin_changed"`
	PUKChanged bool                  `json:"puk_changed"`
	Slots      map[event.Slot]string `json:"slots,omitempty"`    // slot -> key id
	Failures   map[event.Slot]string `json:"failures,omitempty"` // slot -> last failure reason
}

// OccupiedSlots counts slots holding a key.
func (t *Token) OccupiedSlots() int { return len(t.Slots) }

// TransitionToken applies p to cur.
func TransitionToken(cur *Token, p event.Payload) (*Token, error) {
	if cur == nil {
		det, ok := p.(event.TokenDetected)
		if !ok {
			return nil, reject(MachineToken, p.EntityID(), stateNone, p, "token does not exist")
		}
		if det.PersonID == "" {
			return nil, reject(MachineToken, det.TokenID, stateNone, p, "token must be bound to a person")
		}
		return &Token{ID: det.TokenID, Status: TokenDetected, Model: det.Model, PersonID: det.PersonID}, nil
	}

	from := string(cur.Status)
	if cur.Status.Terminal() {
		return nil, reject(MachineToken, cur.ID, from, p, "terminal state")
	}

	next := *cur
	switch p := p.(type) {
	case event.TokenDetected:
		return nil, reject(MachineToken, cur.ID, from, p, "token already exists")

	case event.TokenCredentialsChanged:
		if cur.Status != TokenDetected {
			return nil, reject(MachineToken, cur.ID, from, p, "")
		}
		next.PINChanged = cur.PINChanged || p.PINChanged
		next.PUKChanged = cur.PUKChanged || p.PUKChanged

	case event.TokenProvisioned:
		if cur.Status != TokenDetected {
			return nil, reject(MachineToken, cur.ID, from, p, "")
		}
		if !cur.PINChanged || !cur.PUKChanged {
			return nil, reject(MachineToken, cur.ID, from, p, "factory PIN and PUK must both be changed")
		}
		next.Status = TokenProvisioned

	case event.KeyGeneratedInSlot:
		if cur.Status != TokenProvisioned && cur.Status != TokenActive {
			return nil, reject(MachineToken, cur.ID, from, p, "")
		}
		if !p.Slot.Valid() {
			return nil, reject(MachineToken, cur.ID, from, p, "unknown slot "+string(p.Slot))
		}
		if held, ok := cur.Slots[p.Slot]; ok {
			return nil, reject(MachineToken, cur.ID, from, p, "slot "+string(p.Slot)+" already holds "+held)
		}
		next.Slots = maps.Clone(cur.Slots)
		if next.Slots == nil {
			next.Slots = make(map[event.Slot]string)
		}
		next.Slots[p.Slot] = p.KeyID
		if _, failed := cur.Failures[p.Slot]; failed {
			next.Failures = maps.Clone(cur.Failures)
			delete(next.Failures, p.Slot)
		}

	case event.SlotProvisioningFailed:
		if cur.Status != TokenProvisioned && cur.Status != TokenActive {
			return nil, reject(MachineToken, cur.ID, from, p, "")
		}
		if !p.Slot.Valid() {
			return nil, reject(MachineToken, cur.ID, from, p, "unknown slot "+string(p.Slot))
		}
		next.Failures = maps.Clone(cur.Failures)
		if next.Failures == nil {
			next.Failures = make(map[event.Slot]string)
		}
		next.Failures[p.Slot] = p.Reason

	case event.TokenActivated:
		if cur.Status != TokenProvisioned {
			return nil, reject(MachineToken, cur.ID, from, p, "")
		}
		if cur.OccupiedSlots() == 0 {
			return nil, reject(MachineToken, cur.ID, from, p, "no slot holds a key")
		}
		next.Status = TokenActive

	case event.TokenLocked:
		if cur.Status != TokenActive {
			return nil, reject(MachineToken, cur.ID, from, p, "")
		}
		next.Status = TokenLocked

	case event.TokenUnlocked:
		if cur.Status != TokenLocked {
			return nil, reject(MachineToken, cur.ID, from, p, "")
		}
		next.Status = TokenActive

	case event.TokenLost:
		if cur.Status != TokenActive && cur.Status != TokenLocked {
			return nil, reject(MachineToken, cur.ID, from, p, "")
		}
		next.Status = TokenLost

	case event.TokenRetired:
		next.Status = TokenRetired

	default:
		return nil, reject(MachineToken, cur.ID, from, p, "not a token event")
	}
	return &next, nil
}
