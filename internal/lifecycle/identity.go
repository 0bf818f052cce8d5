package lifecycle

import "github.com/roach88/keyledger/internal/event"

// IdentityStatus is the state of an operator, account or user.
type IdentityStatus string

const (
	IdentityCreated       IdentityStatus = "created"
	IdentityKeysGenerated IdentityStatus = "keys_generated"
	IdentityActive        IdentityStatus = "active"
	IdentitySuspended     IdentityStatus = "suspended"
	IdentityDeleted       IdentityStatus = "deleted"
	IdentityRevoked       IdentityStatus = "revoked"
)

// Terminal reports whether no further transition is possible.
func (s IdentityStatus) Terminal() bool { return s == IdentityDeleted || s == IdentityRevoked }

// Identity is the projected state of a message-bus identity. Operators,
// accounts and users share this shape; Role tells them apart.
type Identity struct {
	ID         string             `json:"id"`
	Role       event.IdentityRole `json:"role"`
	Status     IdentityStatus     `json:"status"`
	Name       string             `json:"name"`
	ParentID   string             `json:"parent_id,omitempty"`
	PublicKey  string             `json:"public_key,omitempty"`
	ClaimsHash string             `json:"claims_hash,omitempty"`
}

// MachineFor returns the machine name of a role.
func MachineFor(r event.IdentityRole) Machine {
	switch r {
	case event.RoleOperator:
		return MachineOperator
	case event.RoleAccount:
		return MachineAccount
	default:
		return MachineUser
	}
}

// TransitionIdentity applies p to cur. parent is the current state of the
// owning identity (nil for operators); it guards creation, activation and
// reactivation of accounts and users.
func TransitionIdentity(cur *Identity, p event.Payload, parent *Identity) (*Identity, error) {
	if cur == nil {
		created, ok := p.(event.IdentityCreated)
		if !ok {
			return nil, reject(MachineIdentity, p.EntityID(), stateNone, p, "identity does not exist")
		}
		if err := checkOwner(created, parent); err != nil {
			return nil, err
		}
		return &Identity{
			ID:       created.IdentityID,
			Role:     created.Role,
			Status:   IdentityCreated,
			Name:     created.Name,
			ParentID: created.ParentID,
		}, nil
	}

	m := MachineFor(cur.Role)
	from := string(cur.Status)
	if cur.Status.Terminal() {
		return nil, reject(m, cur.ID, from, p, "terminal state")
	}

	next := *cur
	switch p := p.(type) {
	case event.IdentityCreated:
		return nil, reject(m, cur.ID, from, p, "identity already exists")

	case event.IdentityKeysGenerated:
		if cur.Status != IdentityCreated {
			return nil, reject(m, cur.ID, from, p, "")
		}
		if p.PublicKey == "" {
			return nil, reject(m, cur.ID, from, p, "public key is required")
		}
		next.Status = IdentityKeysGenerated
		next.PublicKey = p.PublicKey
		next.ClaimsHash = p.ClaimsHash

	case event.IdentityActivated:
		if cur.Status != IdentityKeysGenerated {
			return nil, reject(m, cur.ID, from, p, "")
		}
		if err := requireActiveParent(m, cur, p, parent); err != nil {
			return nil, err
		}
		next.Status = IdentityActive

	case event.IdentitySuspended:
		if cur.Status != IdentityActive {
			return nil, reject(m, cur.ID, from, p, "")
		}
		next.Status = IdentitySuspended

	case event.IdentityReactivated:
		if cur.Status != IdentitySuspended {
			return nil, reject(m, cur.ID, from, p, "")
		}
		if err := requireActiveParent(m, cur, p, parent); err != nil {
			return nil, err
		}
		next.Status = IdentityActive

	case event.IdentityDeleted:
		if cur.Status == IdentityActive {
			return nil, reject(m, cur.ID, from, p, "suspend before deleting")
		}
		next.Status = IdentityDeleted

	case event.IdentityRevoked:
		next.Status = IdentityRevoked

	default:
		return nil, reject(m, cur.ID, from, p, "not an identity event")
	}
	return &next, nil
}

func checkOwner(c event.IdentityCreated, parent *Identity) error {
	m := MachineFor(c.Role)
	switch c.Role {
	case event.RoleOperator:
		if c.ParentID != "" {
			return reject(m, c.IdentityID, stateNone, c, "operators have no owner")
		}
		return nil
	case event.RoleAccount, event.RoleUser:
	default:
		return reject(m, c.IdentityID, stateNone, c, "unknown role "+string(c.Role))
	}

	if c.ParentID == "" || parent == nil || parent.ID != c.ParentID {
		return reject(m, c.IdentityID, stateNone, c, "owner "+c.ParentID+" does not exist")
	}
	if want := c.Role.Parent(); parent.Role != want {
		return reject(m, c.IdentityID, stateNone, c,
			string(c.Role)+" must be owned by an "+string(want)+", not a "+string(parent.Role))
	}
	if parent.Status.Terminal() {
		return reject(m, c.IdentityID, stateNone, c, "owner "+parent.ID+" is "+string(parent.Status))
	}
	return nil
}

func requireActiveParent(m Machine, cur *Identity, p event.Payload, parent *Identity) error {
	if cur.Role == event.RoleOperator {
		return nil
	}
	if parent == nil || parent.ID != cur.ParentID || parent.Status != IdentityActive {
		return reject(m, cur.ID, string(cur.Status), p, "owner "+cur.ParentID+" is not active")
	}
	return nil
}
