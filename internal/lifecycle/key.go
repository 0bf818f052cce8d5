package lifecycle

import "github.com/roach88/keyledger/internal/event"

// KeyStatus is the state of a key.
type KeyStatus string

const (
	KeyGenerated       KeyStatus = "generated"
	KeyImported        KeyStatus = "imported"
	KeyActive          KeyStatus = "active"
	KeyRotationPending KeyStatus = "rotation_pending"
	KeyRotated         KeyStatus = "rotated"
	KeyExpired         KeyStatus = "expired"
	KeyArchived        KeyStatus = "archived"
	KeyRevoked         KeyStatus = "revoked"
)

// Terminal reports whether no further transition is possible.
func (s KeyStatus) Terminal() bool { return s == KeyArchived || s == KeyRevoked }

// Key is the projected state of one key.
type Key struct {
	ID             string    `json:"id"`
	Status         KeyStatus `json:"status"`
	Algorithm      string    `json:"algorithm"`
	Purpose        string    `json:"purpose"`
	OwnerID        string    `json:"owner_id,omitempty"`
	DerivationPath string    `json:"derivation_path,omitempty"`
	PublicKey      string    `json:"public_key,omitempty"`
	Source         string    `json:"source,omitempty"`
	PendingKeyID   string    `json:"pending_key_id,omitempty"`
	SuccessorKeyID string    `json:"successor_key_id,omitempty"`
	RevokedReason  string    `json:"revoked_reason,omitempty"`
}

// TransitionKey applies p to cur. Rotated is one-way: a rotated key can only
// be archived or revoked.
func TransitionKey(cur *Key, p event.Payload) (*Key, error) {
	if cur == nil {
		switch p := p.(type) {
		case event.KeyGenerated:
			return &Key{
				ID:             p.KeyID,
				Status:         KeyGenerated,
				Algorithm:      p.Algorithm,
				Purpose:        p.Purpose,
				OwnerID:        p.OwnerID,
				DerivationPath: p.DerivationPath,
				PublicKey:      p.PublicKey,
			}, nil
		case event.KeyImported:
			return &Key{
				ID:        p.KeyID,
				Status:    KeyImported,
				Algorithm: p.Algorithm,
				Purpose:   p.Purpose,
				OwnerID:   p.OwnerID,
				Source:    p.Source,
			}, nil
		}
		return nil, reject(MachineKey, p.EntityID(), stateNone, p, "key does not exist")
	}

	from := string(cur.Status)
	if cur.Status.Terminal() {
		return nil, reject(MachineKey, cur.ID, from, p, "terminal state")
	}

	next := *cur
	switch p := p.(type) {
	case event.KeyGenerated, event.KeyImported:
		return nil, reject(MachineKey, cur.ID, from, p, "key already exists")

	case event.KeyActivated:
		if cur.Status != KeyGenerated && cur.Status != KeyImported {
			return nil, reject(MachineKey, cur.ID, from, p, "")
		}
		next.Status = KeyActive

	case event.KeyRotationInitiated:
		if cur.Status != KeyActive {
			return nil, reject(MachineKey, cur.ID, from, p, "")
		}
		if p.NewKeyID == "" || p.NewKeyID == cur.ID {
			return nil, reject(MachineKey, cur.ID, from, p, "rotation needs a distinct new key")
		}
		next.Status = KeyRotationPending
		next.PendingKeyID = p.NewKeyID

	case event.KeyRotationCancelled:
		if cur.Status != KeyRotationPending {
			return nil, reject(MachineKey, cur.ID, from, p, "")
		}
		next.Status = KeyActive
		next.PendingKeyID = ""

	case event.KeyRotationCompleted:
		if cur.Status != KeyRotationPending {
			return nil, reject(MachineKey, cur.ID, from, p, "")
		}
		if p.NewKeyID != cur.PendingKeyID {
			return nil, reject(MachineKey, cur.ID, from, p, "new key "+p.NewKeyID+" does not match pending "+cur.PendingKeyID)
		}
		next.Status = KeyRotated
		next.SuccessorKeyID = p.NewKeyID
		next.PendingKeyID = ""

	case event.KeyExpired:
		if cur.Status != KeyActive && cur.Status != KeyRotationPending {
			return nil, reject(MachineKey, cur.ID, from, p, "")
		}
		next.Status = KeyExpired
		next.PendingKeyID = ""

	case event.KeyArchived:
		if cur.Status != KeyRotated && cur.Status != KeyExpired {
			return nil, reject(MachineKey, cur.ID, from, p, "only rotated or expired keys can be archived")
		}
		next.Status = KeyArchived

	case event.KeyRevoked:
		next.Status = KeyRevoked
		next.PendingKeyID = ""
		next.RevokedReason = p.Reason

	default:
		return nil, reject(MachineKey, cur.ID, from, p, "not a key event")
	}
	return &next, nil
}
