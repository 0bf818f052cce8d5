package event

// Hardware token events. Device adapters report back through
// KeyGeneratedInSlot and SlotProvisioningFailed.

type TokenDetected struct {
	TokenID  string `json:"token_id"`
	Model    string `json:"model,omitempty"`
	PersonID string `json:"person_id"`
}

// TokenCredentialsChanged reports which factory credentials were replaced.
type TokenCredentialsChanged struct {
	TokenID    string `json:"token_id"`
	PINChanged bool   `json:"pin_changed"`
	PUKChanged bool   `json:"puk_changed"`
}

type TokenProvisioned struct {
	TokenID string `json:"token_id"`
}

type KeyGeneratedInSlot struct {
	TokenID string `json:"token_id"`
	Slot    Slot   `json:"slot"`
	KeyID   string `json:"key_id"`
}

type SlotProvisioningFailed struct {
	TokenID string `json:"token_id"`
	Slot    Slot   `json:"slot"`
	Reason  string `json:"reason"`
}

type TokenActivated struct {
	TokenID string `json:"token_id"`
}

type TokenLocked struct {
	TokenID string `json:"token_id"`
	Reason  string `json:"reason,omitempty"`
}

type TokenUnlocked struct {
	TokenID string `json:"token_id"`
}

type TokenLost struct {
	TokenID string `json:"token_id"`
}

type TokenRetired struct {
	TokenID string `json:"token_id"`
	Reason  string `json:"reason,omitempty"`
}

func (TokenDetected) Kind() Kind { return KindTokenDetected }
func (p TokenDetected) EntityID() string { return p.TokenID }
func (p TokenDetected) Accept(v Visitor) error { return v.VisitTokenDetected(p) }
func (TokenDetected) payload() {}

func (TokenCredentialsChanged) Kind() Kind { return KindTokenCredentialsChanged }
func (p TokenCredentialsChanged) EntityID() string { return p.TokenID }
func (p TokenCredentialsChanged) Accept(v Visitor) error { return v.VisitTokenCredentialsChanged(p) }
func (TokenCredentialsChanged) payload() {}

func (TokenProvisioned) Kind() Kind { return KindTokenProvisioned }
func (p TokenProvisioned) EntityID() string { return p.TokenID }
func (p TokenProvisioned) Accept(v Visitor) error { return v.VisitTokenProvisioned(p) }
func (TokenProvisioned) payload() {}

func (KeyGeneratedInSlot) Kind() Kind { return KindKeyGeneratedInSlot }
func (p KeyGeneratedInSlot) EntityID() string { return p.TokenID }
func (p KeyGeneratedInSlot) Accept(v Visitor) error { return v.VisitKeyGeneratedInSlot(p) }
func (KeyGeneratedInSlot) payload() {}

func (SlotProvisioningFailed) Kind() Kind { return KindSlotProvisioningFailed }
func (p SlotProvisioningFailed) EntityID() string { return p.TokenID }
func (p SlotProvisioningFailed) Accept(v Visitor) error { return v.VisitSlotProvisioningFailed(p) }
func (SlotProvisioningFailed) payload() {}

func (TokenActivated) Kind() Kind { return KindTokenActivated }
func (p TokenActivated) EntityID() string { return p.TokenID }
func (p TokenActivated) Accept(v Visitor) error { return v.VisitTokenActivated(p) }
func (TokenActivated) payload() {}

func (TokenLocked) Kind() Kind { return KindTokenLocked }
func (p TokenLocked) EntityID() string { return p.TokenID }
func (p TokenLocked) Accept(v Visitor) error { return v.VisitTokenLocked(p) }
func (TokenLocked) payload() {}

func (TokenUnlocked) Kind() Kind { return KindTokenUnlocked }
func (p TokenUnlocked) EntityID() string { return p.TokenID }
func (p TokenUnlocked) Accept(v Visitor) error { return v.VisitTokenUnlocked(p) }
func (TokenUnlocked) payload() {}

func (TokenLost) Kind() Kind { return KindTokenLost }
func (p TokenLost) EntityID() string { return p.TokenID }
func (p TokenLost) Accept(v Visitor) error { return v.VisitTokenLost(p) }
func (TokenLost) payload() {}

func (TokenRetired) Kind() Kind { return KindTokenRetired }
func (p TokenRetired) EntityID() string { return p.TokenID }
func (p TokenRetired) Accept(v Visitor) error { return v.VisitTokenRetired(p) }
func (TokenRetired) payload() {}
