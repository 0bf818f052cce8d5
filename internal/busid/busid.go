// Package busid derives message-bus identities (operator, accounts, users)
// from the seed tree.
//
// Keys are NATS nkeys: Ed25519 with a role prefix in their encoding. Each
// identity carries claims signed by its owner; the operator signs its own.
package busid

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nkeys"

	"github.com/roach88/keyledger/internal/canon"
	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/seed"
)

// ErrInvalidUnitMapping is returned for empty or duplicate unit and person names.
var ErrInvalidUnitMapping = errors.New("busid: invalid unit mapping")

// UnitMapping maps organizational units to accounts and people to users.
type UnitMapping struct {
	Organization string
	Units        []Unit
}

// Unit becomes one account; each person becomes one user under it.
type Unit struct {
	Name   string
	People []string
}

// Claims are the signed statements about an identity.
type Claims struct {
	Subject  string             `json:"sub"`
	Issuer   string             `json:"iss"`
	Name     string             `json:"name"`
	Role     event.IdentityRole `json:"role"`
	IssuedAt time.Time          `json:"iat"`
}

// CanonicalValue implements canon.Marshaler.
func (c Claims) CanonicalValue() map[string]any {
	return map[string]any{
		"sub":  c.Subject,
		"iss":  c.Issuer,
		"name": c.Name,
		"role": string(c.Role),
		"iat":  c.IssuedAt.UTC().Unix(),
	}
}

// Identity is one derived operator, account or user.
type Identity struct {
	// ID is the public nkey; it is stable across re-derivations.
	ID             string
	Role           event.IdentityRole
	Name           string
	ParentID       string
	DerivationPath string
	Claims         Claims
	Signature      []byte

	kp nkeys.KeyPair
}

// KeyPair exposes the signing key. It is nil after Wipe.
func (i *Identity) KeyPair() nkeys.KeyPair { return i.kp }

// Wipe erases the private key.
func (i *Identity) Wipe() {
	if i.kp != nil {
		i.kp.Wipe()
		i.kp = nil
	}
}

// ClaimsHash fingerprints the canonical claims.
func (i *Identity) ClaimsHash() (string, error) {
	return canon.HashValue(canon.DomainClaims, i.Claims)
}

// Events returns the payloads that record this identity: creation followed
// by key generation.
func (i *Identity) Events() ([]event.Payload, error) {
	h, err := i.ClaimsHash()
	if err != nil {
		return nil, err
	}
	return []event.Payload{
		event.IdentityCreated{IdentityID: i.ID, Role: i.Role, Name: i.Name, ParentID: i.ParentID},
		event.IdentityKeysGenerated{IdentityID: i.ID, PublicKey: i.ID, ClaimsHash: h},
	}, nil
}

// Triple is the full identity hierarchy of one organization.
type Triple struct {
	Operator *Identity
	Accounts []*Identity
	Users    []*Identity
}

// Wipe erases every private key in the triple.
func (t *Triple) Wipe() {
	t.Operator.Wipe()
	for _, a := range t.Accounts {
		a.Wipe()
	}
	for _, u := range t.Users {
		u.Wipe()
	}
}

// All lists the identities parents first: operator, accounts, users.
func (t *Triple) All() []*Identity {
	out := []*Identity{t.Operator}
	out = append(out, t.Accounts...)
	return append(out, t.Users...)
}

// GenerateIdentityTriple derives the operator, one account per unit and one
// user per person. issuedAt stamps every claim.
func GenerateIdentityTriple(s *seed.Secret, m UnitMapping, issuedAt time.Time) (*Triple, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	op, err := derive(s, event.RoleOperator, m.Organization, nil, issuedAt, "nats", "operator")
	if err != nil {
		return nil, err
	}
	t := &Triple{Operator: op}

	for _, u := range m.Units {
		acct, err := derive(s, event.RoleAccount, u.Name, op, issuedAt, "nats", "account", u.Name)
		if err != nil {
			t.Wipe()
			return nil, err
		}
		t.Accounts = append(t.Accounts, acct)

		for _, person := range u.People {
			user, err := derive(s, event.RoleUser, person, acct, issuedAt, "nats", "user", u.Name, person)
			if err != nil {
				t.Wipe()
				return nil, err
			}
			t.Users = append(t.Users, user)
		}
	}
	return t, nil
}

// VerifyClaims checks the identity's claims signature against the issuer key
// named in the claims.
func VerifyClaims(i *Identity) error {
	data, err := canon.MarshalCanonical(i.Claims)
	if err != nil {
		return fmt.Errorf("encode claims for %s: %w", i.ID, err)
	}
	issuer, err := nkeys.FromPublicKey(i.Claims.Issuer)
	if err != nil {
		return fmt.Errorf("claims issuer for %s: %w", i.ID, err)
	}
	if err := issuer.Verify(data, i.Signature); err != nil {
		return fmt.Errorf("claims signature for %s: %w", i.ID, err)
	}
	return nil
}

func derive(s *seed.Secret, role event.IdentityRole, name string, owner *Identity, issuedAt time.Time, labels ...string) (*Identity, error) {
	child := seed.DerivePath(s, labels...)
	defer child.Zero()

	kp, err := nkeys.FromRawSeed(prefixFor(role), child.Bytes())
	if err != nil {
		return nil, fmt.Errorf("derive %s %q: %w", role, name, err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive %s %q: %w", role, name, err)
	}

	id := &Identity{
		ID:             pub,
		Role:           role,
		Name:           name,
		DerivationPath: child.Path(),
		kp:             kp,
	}
	signer := kp
	id.Claims = Claims{Subject: pub, Issuer: pub, Name: name, Role: role, IssuedAt: issuedAt.UTC()}
	if owner != nil {
		id.ParentID = owner.ID
		id.Claims.Issuer = owner.ID
		signer = owner.kp
	}

	data, err := canon.MarshalCanonical(id.Claims)
	if err != nil {
		return nil, fmt.Errorf("encode claims for %s %q: %w", role, name, err)
	}
	if id.Signature, err = signer.Sign(data); err != nil {
		return nil, fmt.Errorf("sign claims for %s %q: %w", role, name, err)
	}
	return id, nil
}

func prefixFor(r event.IdentityRole) nkeys.PrefixByte {
	switch r {
	case event.RoleOperator:
		return nkeys.PrefixByteOperator
	case event.RoleAccount:
		return nkeys.PrefixByteAccount
	default:
		return nkeys.PrefixByteUser
	}
}

func (m UnitMapping) validate() error {
	if m.Organization == "" {
		return fmt.Errorf("%w: organization is empty", ErrInvalidUnitMapping)
	}
	units := make(map[string]bool, len(m.Units))
	for _, u := range m.Units {
		if u.Name == "" {
			return fmt.Errorf("%w: unit name is empty", ErrInvalidUnitMapping)
		}
		if units[u.Name] {
			return fmt.Errorf("%w: duplicate unit %q", ErrInvalidUnitMapping, u.Name)
		}
		units[u.Name] = true

		people := make(map[string]bool, len(u.People))
		for _, p := range u.People {
			if p == "" {
				return fmt.Errorf("%w: empty person in unit %q", ErrInvalidUnitMapping, u.Name)
			}
			if people[p] {
				return fmt.Errorf("%w: duplicate person %q in unit %q", ErrInvalidUnitMapping, p, u.Name)
			}
			people[p] = true
		}
	}
	return nil
}
