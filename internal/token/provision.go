package token

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/keyledger/internal/event"
)

// Device describes a token an adapter found.
type Device struct {
	Serial string
	Model  string
}

// Adapter talks to a physical token. Implementations must be safe to call
// from one goroutine at a time; Provision never calls them concurrently.
type Adapter interface {
	Detect(ctx context.Context) (Device, error)
	ChangeCredentials(ctx context.Context, serial string) (pinChanged, pukChanged bool, err error)
	GenerateKey(ctx context.Context, serial string, a Assignment) (keyID string, err error)
}

// Provision drives adapter through plan and returns the payloads describing
// what happened, in order. Slot failures are recorded and do not stop the
// run; the token is activated only if at least one slot succeeded.
//
// A detection or credential error aborts with the payloads produced so far.
func Provision(ctx context.Context, adapter Adapter, plan Plan) ([]event.Payload, error) {
	dev, err := adapter.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect token for %s: %w", plan.PersonID, err)
	}
	id := dev.Serial
	out := []event.Payload{event.TokenDetected{TokenID: id, Model: dev.Model, PersonID: plan.PersonID}}

	pin, puk, err := adapter.ChangeCredentials(ctx, id)
	if err != nil {
		return out, fmt.Errorf("change credentials on %s: %w", id, err)
	}
	out = append(out, event.TokenCredentialsChanged{TokenID: id, PINChanged: pin, PUKChanged: puk})
	if !pin || !puk {
		slog.Warn("token still has factory credentials",
			"token", id,
			"pin_changed", pin,
			"puk_changed", puk,
		)
		return out, nil
	}
	out = append(out, event.TokenProvisioned{TokenID: id})

	occupied := 0
	for _, a := range plan.Assignments {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		keyID, err := adapter.GenerateKey(ctx, id, a)
		if err != nil {
			slog.Info("slot provisioning failed",
				"token", id,
				"slot", a.Slot,
				"error", err,
				"event", "slot_failed",
			)
			out = append(out, event.SlotProvisioningFailed{TokenID: id, Slot: a.Slot, Reason: err.Error()})
			continue
		}
		out = append(out, event.KeyGeneratedInSlot{TokenID: id, Slot: a.Slot, KeyID: keyID})
		occupied++
	}

	if occupied > 0 {
		out = append(out, event.TokenActivated{TokenID: id})
	}
	return out, nil
}
