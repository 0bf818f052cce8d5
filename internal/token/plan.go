// Package token plans and records hardware token provisioning.
//
// Planning is pure: PlanSlotAllocation decides which PIV slots a person's
// token gets and what each holds. Device I/O lives behind Adapter; Provision
// drives an adapter through a plan and reports every outcome as an event
// payload, so the log records what the device actually did.
package token

import (
	"errors"
	"fmt"

	"github.com/roach88/keyledger/internal/event"
)

// ErrUnknownPurpose is returned for a purpose PlanSlotAllocation does not know.
var ErrUnknownPurpose = errors.New("token: unknown purpose")

// Purpose selects a slot layout.
type Purpose string

const (
	// PurposeStandard is the everyday layout: login, signing, encryption.
	PurposeStandard Purpose = "standard"
	// PurposeAdministrator adds card authentication for physical access.
	PurposeAdministrator Purpose = "administrator"
	// PurposeSigning carries a signing key only.
	PurposeSigning Purpose = "signing"
	// PurposeAuthentication carries login and card authentication keys.
	PurposeAuthentication Purpose = "authentication"
)

// Usage is what a slot's key is for.
type Usage string

const (
	UsageAuthentication Usage = "authentication"
	UsageSignature      Usage = "digital_signature"
	UsageKeyManagement  Usage = "key_management"
	UsageCardAuth       Usage = "card_authentication"
)

var slotUsage = map[event.Slot]Usage{
	event.SlotAuthentication: UsageAuthentication,
	event.SlotSignature:      UsageSignature,
	event.SlotKeyManagement:  UsageKeyManagement,
	event.SlotCardAuth:       UsageCardAuth,
}

var layouts = map[Purpose][]event.Slot{
	PurposeStandard:       {event.SlotAuthentication, event.SlotSignature, event.SlotKeyManagement},
	PurposeAdministrator:  {event.SlotAuthentication, event.SlotSignature, event.SlotKeyManagement, event.SlotCardAuth},
	PurposeSigning:        {event.SlotSignature},
	PurposeAuthentication: {event.SlotAuthentication, event.SlotCardAuth},
}

// Assignment is one planned slot.
type Assignment struct {
	Slot           event.Slot `json:"slot"`
	Usage          Usage      `json:"usage"`
	DerivationPath string     `json:"derivation_path"`
	// TouchRequired is set for slots whose every use must be confirmed on the device.
	TouchRequired bool `json:"touch_required"`
}

// Plan is the slot allocation for one person's token.
type Plan struct {
	PersonID    string       `json:"person_id"`
	Purpose     Purpose      `json:"purpose"`
	Assignments []Assignment `json:"assignments"`
}

// Slots lists the planned slots in PIV order.
func (p Plan) Slots() []event.Slot {
	out := make([]event.Slot, len(p.Assignments))
	for i, a := range p.Assignments {
		out[i] = a.Slot
	}
	return out
}

// PlanSlotAllocation lays out the PIV slots for personID. An empty purpose
// means PurposeStandard.
func PlanSlotAllocation(personID string, purpose Purpose) (Plan, error) {
	if personID == "" {
		return Plan{}, errors.New("token: person id is required")
	}
	if purpose == "" {
		purpose = PurposeStandard
	}
	slots, ok := layouts[purpose]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPurpose, purpose)
	}

	plan := Plan{PersonID: personID, Purpose: purpose}
	for _, s := range slots {
		plan.Assignments = append(plan.Assignments, Assignment{
			Slot:           s,
			Usage:          slotUsage[s],
			DerivationPath: SlotDerivationPath(personID, s),
			TouchRequired:  s == event.SlotSignature,
		})
	}
	return plan, nil
}

// SlotDerivationPath is the seed label for a person's key in slot.
func SlotDerivationPath(personID string, slot event.Slot) string {
	return "person/" + personID + "/piv/" + string(slot)
}
