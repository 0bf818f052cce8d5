package event

// Message-bus identity events. One set serves operators, accounts and users.

// IdentityCreated registers an operator, account or user.
// ParentID is empty for operators.
type IdentityCreated struct {
	IdentityID string       `json:"identity_id"`
	Role       IdentityRole `json:"role"`
	Name       string       `json:"name"`
	ParentID   string       `json:"parent_id,omitempty"`
}

type IdentityKeysGenerated struct {
	IdentityID string `json:"identity_id"`
	PublicKey  string `json:"public_key"`
	ClaimsHash string `json:"claims_hash,omitempty"`
}

type IdentityActivated struct {
	IdentityID string `json:"identity_id"`
}

type IdentitySuspended struct {
	IdentityID string `json:"identity_id"`
	Reason     string `json:"reason,omitempty"`
}

type IdentityReactivated struct {
	IdentityID string `json:"identity_id"`
}

type IdentityDeleted struct {
	IdentityID string `json:"identity_id"`
}

type IdentityRevoked struct {
	IdentityID string `json:"identity_id"`
	Reason     string `json:"reason,omitempty"`
}

func (IdentityCreated) Kind() Kind { return KindIdentityCreated }
func (p IdentityCreated) EntityID() string { return p.IdentityID }
func (p IdentityCreated) Accept(v Visitor) error { return v.VisitIdentityCreated(p) }
func (IdentityCreated) payload() {}

func (IdentityKeysGenerated) Kind() Kind { return KindIdentityKeysGenerated }
func (p IdentityKeysGenerated) EntityID() string { return p.IdentityID }
func (p IdentityKeysGenerated) Accept(v Visitor) error { return v.VisitIdentityKeysGenerated(p) }
func (IdentityKeysGenerated) payload() {}

func (IdentityActivated) Kind() Kind { return KindIdentityActivated }
func (p IdentityActivated) EntityID() string { return p.IdentityID }
func (p IdentityActivated) Accept(v Visitor) error { return v.VisitIdentityActivated(p) }
func (IdentityActivated) payload() {}

func (IdentitySuspended) Kind() Kind { return KindIdentitySuspended }
func (p IdentitySuspended) EntityID() string { return p.IdentityID }
func (p IdentitySuspended) Accept(v Visitor) error { return v.VisitIdentitySuspended(p) }
func (IdentitySuspended) payload() {}

func (IdentityReactivated) Kind() Kind { return KindIdentityReactivated }
func (p IdentityReactivated) EntityID() string { return p.IdentityID }
func (p IdentityReactivated) Accept(v Visitor) error { return v.VisitIdentityReactivated(p) }
func (IdentityReactivated) payload() {}

func (IdentityDeleted) Kind() Kind { return KindIdentityDeleted }
func (p IdentityDeleted) EntityID() string { return p.IdentityID }
func (p IdentityDeleted) Accept(v Visitor) error { return v.VisitIdentityDeleted(p) }
func (IdentityDeleted) payload() {}

func (IdentityRevoked) Kind() Kind { return KindIdentityRevoked }
func (p IdentityRevoked) EntityID() string { return p.IdentityID }
func (p IdentityRevoked) Accept(v Visitor) error { return v.VisitIdentityRevoked(p) }
func (IdentityRevoked) payload() {}
