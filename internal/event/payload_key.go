package event

// Key lifecycle events.

// KeyGenerated records a key derived from the seed tree.
type KeyGenerated struct {
	KeyID          string `json:"key_id"`
	Algorithm      string `json:"algorithm"`
	Purpose        string `json:"purpose"`
	OwnerID        string `json:"owner_id,omitempty"`
	DerivationPath string `json:"derivation_path"`
	PublicKey      string `json:"public_key"`
}

// KeyImported records a key brought in from outside the seed tree.
type KeyImported struct {
	KeyID     string `json:"key_id"`
	Algorithm string `json:"algorithm"`
	Purpose   string `json:"purpose"`
	OwnerID   string `json:"owner_id,omitempty"`
	Source    string `json:"source"`
}

type KeyActivated struct {
	KeyID string `json:"key_id"`
}

// KeyRotationInitiated names the key that will replace KeyID.
type KeyRotationInitiated struct {
	KeyID    string `json:"key_id"`
	NewKeyID string `json:"new_key_id"`
}

type KeyRotationCancelled struct {
	KeyID    string `json:"key_id"`
	NewKeyID string `json:"new_key_id"`
	Reason   string `json:"reason,omitempty"`
}

// KeyRotationCompleted finishes a rotation. NewKeyID must match the pending one.
type KeyRotationCompleted struct {
	KeyID    string `json:"key_id"`
	NewKeyID string `json:"new_key_id"`
}

type KeyExpired struct {
	KeyID string `json:"key_id"`
}

type KeyRevoked struct {
	KeyID  string `json:"key_id"`
	Reason string `json:"reason,omitempty"`
}

type KeyArchived struct {
	KeyID string `json:"key_id"`
}

func (KeyGenerated) Kind() Kind { return KindKeyGenerated }
func (p KeyGenerated) EntityID() string { return p.KeyID }
func (p KeyGenerated) Accept(v Visitor) error { return v.VisitKeyGenerated(p) }
func (KeyGenerated) payload() {}

func (KeyImported) Kind() Kind { return KindKeyImported }
func (p KeyImported) EntityID() string { return p.KeyID }
func (p KeyImported) Accept(v Visitor) error { return v.VisitKeyImported(p) }
func (KeyImported) payload() {}

func (KeyActivated) Kind() Kind { return KindKeyActivated }
func (p KeyActivated) EntityID() string { return p.KeyID }
func (p KeyActivated) Accept(v Visitor) error { return v.VisitKeyActivated(p) }
func (KeyActivated) payload() {}

func (KeyRotationInitiated) Kind() Kind { return KindKeyRotationInitiated }
func (p KeyRotationInitiated) EntityID() string { return p.KeyID }
func (p KeyRotationInitiated) Accept(v Visitor) error { return v.VisitKeyRotationInitiated(p) }
func (KeyRotationInitiated) payload() {}

func (KeyRotationCancelled) Kind() Kind { return KindKeyRotationCancelled }
func (p KeyRotationCancelled) EntityID() string { return p.KeyID }
func (p KeyRotationCancelled) Accept(v Visitor) error { return v.VisitKeyRotationCancelled(p) }
func (KeyRotationCancelled) payload() {}

func (KeyRotationCompleted) Kind() Kind { return KindKeyRotationCompleted }
func (p KeyRotationCompleted) EntityID() string { return p.KeyID }
func (p KeyRotationCompleted) Accept(v Visitor) error { return v.VisitKeyRotationCompleted(p) }
func (KeyRotationCompleted) payload() {}

func (KeyExpired) Kind() Kind { return KindKeyExpired }
func (p KeyExpired) EntityID() string { return p.KeyID }
func (p KeyExpired) Accept(v Visitor) error { return v.VisitKeyExpired(p) }
func (KeyExpired) payload() {}

func (KeyRevoked) Kind() Kind { return KindKeyRevoked }
func (p KeyRevoked) EntityID() string { return p.KeyID }
func (p KeyRevoked) Accept(v Visitor) error { return v.VisitKeyRevoked(p) }
func (KeyRevoked) payload() {}

func (KeyArchived) Kind() Kind { return KindKeyArchived }
func (p KeyArchived) EntityID() string { return p.KeyID }
func (p KeyArchived) Accept(v Visitor) error { return v.VisitKeyArchived(p) }
func (KeyArchived) payload() {}
