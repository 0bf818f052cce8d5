package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keyledger/internal/event"
)

const id = "x"

// allPayloads returns one payload of every kind, all addressed to id.
func allPayloads() []event.Payload {
	return []event.Payload{
		event.KeyGenerated{KeyID: id}, event.KeyImported{KeyID: id}, event.KeyActivated{KeyID: id},
		event.KeyRotationInitiated{KeyID: id, NewKeyID: "y"}, event.KeyRotationCancelled{KeyID: id},
		event.KeyRotationCompleted{KeyID: id, NewKeyID: "y"}, event.KeyExpired{KeyID: id},
		event.KeyRevoked{KeyID: id}, event.KeyArchived{KeyID: id},
		event.CertificateGenerated{CertID: id, Tier: event.TierRoot}, event.CertificateActivated{CertID: id},
		event.CertificateSuspended{CertID: id}, event.CertificateReinstated{CertID: id},
		event.CertificateRenewed{CertID: id, SuccessorID: "y"}, event.CertificateRenewalCompleted{CertID: id},
		event.CertificateExpired{CertID: id}, event.CertificateRevoked{CertID: id},
		event.IdentityCreated{IdentityID: id, Role: event.RoleOperator}, event.IdentityKeysGenerated{IdentityID: id, PublicKey: "O"},
		event.IdentityActivated{IdentityID: id}, event.IdentitySuspended{IdentityID: id},
		event.IdentityReactivated{IdentityID: id}, event.IdentityDeleted{IdentityID: id}, event.IdentityRevoked{IdentityID: id},
		event.TokenDetected{TokenID: id, PersonID: "p"}, event.TokenCredentialsChanged{TokenID: id, PINChanged: true, PUKChanged: true},
		event.TokenProvisioned{TokenID: id}, event.KeyGeneratedInSlot{TokenID: id, Slot: event.SlotSignature, KeyID: "k"},
		event.SlotProvisioningFailed{TokenID: id, Slot: event.SlotSignature}, event.TokenActivated{TokenID: id},
		event.TokenLocked{TokenID: id}, event.TokenUnlocked{TokenID: id}, event.TokenLost{TokenID: id},
		event.TokenRetired{TokenID: id},
		event.ManifestPlanned{ManifestID: id, Artifacts: []string{"a"}}, event.ManifestGenerationStarted{ManifestID: id},
		event.ManifestArtifactGenerated{ManifestID: id, Artifact: "a"}, event.ManifestReady{ManifestID: id},
		event.ManifestExported{ManifestID: id, Destination: "d"}, event.ManifestVerified{ManifestID: id},
		event.ManifestFailed{ManifestID: id},
	}
}

func applyKey(t *testing.T, payloads ...event.Payload) *Key {
	t.Helper()
	var k *Key
	for _, p := range payloads {
		next, err := TransitionKey(k, p)
		require.NoError(t, err, "applying %s", p.Kind())
		k = next
	}
	return k
}

func TestAllPayloadsCoverEveryKind(t *testing.T) {
	assert.Len(t, allPayloads(), len(event.Kinds()))
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	keys := []*Key{{ID: id, Status: KeyArchived}, {ID: id, Status: KeyRevoked}}
	certs := []*Certificate{{ID: id, Status: CertExpired}, {ID: id, Status: CertRevoked}}
	idents := []*Identity{{ID: id, Role: event.RoleOperator, Status: IdentityDeleted}, {ID: id, Role: event.RoleOperator, Status: IdentityRevoked}}
	tokens := []*Token{{ID: id, Status: TokenRetired}}
	manifests := []*Manifest{{ID: id, Status: ManifestVerified}, {ID: id, Status: ManifestFailed}}

	for _, p := range allPayloads() {
		for _, k := range keys {
			_, err := TransitionKey(k, p)
			assert.True(t, IsInvalidTransition(err), "key %s accepted %s", k.Status, p.Kind())
		}
		for _, c := range certs {
			_, err := TransitionCertificate(c, p, nil)
			assert.True(t, IsInvalidTransition(err), "cert %s accepted %s", c.Status, p.Kind())
		}
		for _, i := range idents {
			_, err := TransitionIdentity(i, p, nil)
			assert.True(t, IsInvalidTransition(err), "identity %s accepted %s", i.Status, p.Kind())
		}
		for _, tok := range tokens {
			_, err := TransitionToken(tok, p)
			assert.True(t, IsInvalidTransition(err), "token %s accepted %s", tok.Status, p.Kind())
		}
		for _, m := range manifests {
			_, err := TransitionManifest(m, p)
			assert.True(t, IsInvalidTransition(err), "manifest %s accepted %s", m.Status, p.Kind())
		}
	}
}

func TestMachinesRejectForeignPayloads(t *testing.T) {
	k := &Key{ID: id, Status: KeyActive}
	_, err := TransitionKey(k, event.TokenLocked{TokenID: id})
	require.Error(t, err)
	var te *InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, MachineKey, te.Machine)
	assert.Equal(t, event.KindTokenLocked, te.Event)
	assert.Equal(t, "active", te.From)
}

func TestKey_Rotation(t *testing.T) {
	k := applyKey(t,
		event.KeyGenerated{KeyID: "k1", Algorithm: "Ed25519"},
		event.KeyActivated{KeyID: "k1"},
		event.KeyRotationInitiated{KeyID: "k1", NewKeyID: "k2"},
	)
	assert.Equal(t, KeyRotationPending, k.Status)
	assert.Equal(t, "k2", k.PendingKeyID)

	rotated, err := TransitionKey(k, event.KeyRotationCompleted{KeyID: "k1", NewKeyID: "k2"})
	require.NoError(t, err)
	assert.Equal(t, KeyRotated, rotated.Status)
	assert.Equal(t, "k2", rotated.SuccessorKeyID)
	assert.Equal(t, KeyRotationPending, k.Status, "input must not be mutated")

	_, err = TransitionKey(rotated, event.KeyRotationCompleted{KeyID: "k1", NewKeyID: "k2"})
	assert.True(t, IsInvalidTransition(err))

	_, err = TransitionKey(rotated, event.KeyActivated{KeyID: "k1"})
	assert.True(t, IsInvalidTransition(err), "rotated must not return to active")

	archived, err := TransitionKey(rotated, event.KeyArchived{KeyID: "k1"})
	require.NoError(t, err)
	assert.Equal(t, KeyArchived, archived.Status)
}

func TestKey_RotationMismatch(t *testing.T) {
	k := applyKey(t,
		event.KeyImported{KeyID: "k1"},
		event.KeyActivated{KeyID: "k1"},
		event.KeyRotationInitiated{KeyID: "k1", NewKeyID: "k2"},
	)
	_, err := TransitionKey(k, event.KeyRotationCompleted{KeyID: "k1", NewKeyID: "k3"})
	assert.True(t, IsInvalidTransition(err))

	cancelled, err := TransitionKey(k, event.KeyRotationCancelled{KeyID: "k1", NewKeyID: "k2"})
	require.NoError(t, err)
	assert.Equal(t, KeyActive, cancelled.Status)
	assert.Empty(t, cancelled.PendingKeyID)
}

func TestKey_Transitions(t *testing.T) {
	tests := []struct {
		from    KeyStatus
		payload event.Payload
		want    KeyStatus
		ok      bool
	}{
		{KeyGenerated, event.KeyActivated{KeyID: id}, KeyActive, true},
		{KeyImported, event.KeyActivated{KeyID: id}, KeyActive, true},
		{KeyActive, event.KeyActivated{KeyID: id}, "", false},
		{KeyGenerated, event.KeyRotationInitiated{KeyID: id, NewKeyID: "y"}, "", false},
		{KeyActive, event.KeyRotationInitiated{KeyID: id, NewKeyID: id}, "", false},
		{KeyActive, event.KeyExpired{KeyID: id}, KeyExpired, true},
		{KeyRotationPending, event.KeyExpired{KeyID: id}, KeyExpired, true},
		{KeyGenerated, event.KeyExpired{KeyID: id}, "", false},
		{KeyExpired, event.KeyArchived{KeyID: id}, KeyArchived, true},
		{KeyActive, event.KeyArchived{KeyID: id}, "", false},
		{KeyGenerated, event.KeyRevoked{KeyID: id}, KeyRevoked, true},
		{KeyRotated, event.KeyRevoked{KeyID: id}, KeyRevoked, true},
		{KeyExpired, event.KeyRevoked{KeyID: id}, KeyRevoked, true},
		{KeyActive, event.KeyGenerated{KeyID: id}, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.payload.Kind()), func(t *testing.T) {
			next, err := TransitionKey(&Key{ID: id, Status: tt.from, PendingKeyID: "y"}, tt.payload)
			if !tt.ok {
				assert.True(t, IsInvalidTransition(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, next.Status)
		})
	}
}

func TestKey_RequiresCreation(t *testing.T) {
	_, err := TransitionKey(nil, event.KeyActivated{KeyID: "ghost"})
	var te *InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "none", te.From)
	assert.Equal(t, "ghost", te.EntityID)
}

func TestCertificate_IssuerChecks(t *testing.T) {
	nb := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	root, err := TransitionCertificate(nil, event.CertificateGenerated{CertID: "root", Tier: event.TierRoot, NotBefore: nb}, nil)
	require.NoError(t, err)
	assert.Equal(t, CertPending, root.Status)

	inter := event.CertificateGenerated{CertID: "int", Tier: event.TierIntermediate, IssuerID: "root"}
	_, err = TransitionCertificate(nil, inter, root)
	assert.True(t, IsInvalidTransition(err), "pending root cannot sign")

	active, err := TransitionCertificate(root, event.CertificateActivated{CertID: "root"}, nil)
	require.NoError(t, err)
	ic, err := TransitionCertificate(nil, inter, active)
	require.NoError(t, err)

	leafFromRoot := event.CertificateGenerated{CertID: "leaf", Tier: event.TierLeaf, IssuerID: "root"}
	_, err = TransitionCertificate(nil, leafFromRoot, active)
	assert.True(t, IsInvalidTransition(err), "root cannot sign leaves")

	_, err = TransitionCertificate(nil, event.CertificateGenerated{CertID: "leaf", Tier: event.TierLeaf, IssuerID: "int"}, nil)
	assert.True(t, IsInvalidTransition(err), "missing issuer")

	icActive, err := TransitionCertificate(ic, event.CertificateActivated{CertID: "int"}, nil)
	require.NoError(t, err)
	_, err = TransitionCertificate(nil, event.CertificateGenerated{CertID: "leaf", Tier: event.TierLeaf, IssuerID: "int"}, icActive)
	require.NoError(t, err)

	_, err = TransitionCertificate(nil, event.CertificateGenerated{CertID: "r2", Tier: event.TierRoot, IssuerID: "root"}, active)
	assert.True(t, IsInvalidTransition(err), "roots are self-signed")
}

func TestCertificate_Transitions(t *testing.T) {
	c := &Certificate{ID: id, Status: CertActive}

	susp, err := TransitionCertificate(c, event.CertificateSuspended{CertID: id}, nil)
	require.NoError(t, err)
	assert.Equal(t, CertSuspended, susp.Status)
	assert.False(t, susp.Status.SigningEligible())

	back, err := TransitionCertificate(susp, event.CertificateReinstated{CertID: id}, nil)
	require.NoError(t, err)
	assert.Equal(t, CertActive, back.Status)

	renewed, err := TransitionCertificate(back, event.CertificateRenewed{CertID: id, SuccessorID: "y"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "y", renewed.SuccessorID)

	done, err := TransitionCertificate(renewed, event.CertificateRenewalCompleted{CertID: id}, nil)
	require.NoError(t, err)
	assert.Equal(t, CertActive, done.Status)

	_, err = TransitionCertificate(&Certificate{ID: id, Status: CertPending}, event.CertificateExpired{CertID: id}, nil)
	assert.True(t, IsInvalidTransition(err))

	exp, err := TransitionCertificate(susp, event.CertificateExpired{CertID: id}, nil)
	require.NoError(t, err)
	assert.True(t, exp.Status.Terminal())
}

func TestIdentity_Hierarchy(t *testing.T) {
	op, err := TransitionIdentity(nil, event.IdentityCreated{IdentityID: "op", Role: event.RoleOperator, Name: "acme"}, nil)
	require.NoError(t, err)

	_, err = TransitionIdentity(nil, event.IdentityCreated{IdentityID: "u", Role: event.RoleUser, ParentID: "op"}, op)
	assert.True(t, IsInvalidTransition(err), "users are owned by accounts")

	acct, err := TransitionIdentity(nil, event.IdentityCreated{IdentityID: "acct", Role: event.RoleAccount, ParentID: "op"}, op)
	require.NoError(t, err)
	acct, err = TransitionIdentity(acct, event.IdentityKeysGenerated{IdentityID: "acct", PublicKey: "A"}, op)
	require.NoError(t, err)

	_, err = TransitionIdentity(acct, event.IdentityActivated{IdentityID: "acct"}, op)
	assert.True(t, IsInvalidTransition(err), "operator not active yet")

	op, err = TransitionIdentity(op, event.IdentityKeysGenerated{IdentityID: "op", PublicKey: "O"}, nil)
	require.NoError(t, err)
	op, err = TransitionIdentity(op, event.IdentityActivated{IdentityID: "op"}, nil)
	require.NoError(t, err)

	acct, err = TransitionIdentity(acct, event.IdentityActivated{IdentityID: "acct"}, op)
	require.NoError(t, err)
	assert.Equal(t, IdentityActive, acct.Status)

	acct, err = TransitionIdentity(acct, event.IdentitySuspended{IdentityID: "acct"}, op)
	require.NoError(t, err)
	suspendedOp := *op
	suspendedOp.Status = IdentitySuspended
	_, err = TransitionIdentity(acct, event.IdentityReactivated{IdentityID: "acct"}, &suspendedOp)
	assert.True(t, IsInvalidTransition(err))

	deleted, err := TransitionIdentity(acct, event.IdentityDeleted{IdentityID: "acct"}, op)
	require.NoError(t, err)
	assert.Equal(t, IdentityDeleted, deleted.Status)

	_, err = TransitionIdentity(nil, event.IdentityCreated{IdentityID: "u", Role: event.RoleUser, ParentID: "acct"}, deleted)
	assert.True(t, IsInvalidTransition(err), "owner is terminal")
}

func TestIdentity_ActiveCannotBeDeleted(t *testing.T) {
	_, err := TransitionIdentity(&Identity{ID: id, Role: event.RoleOperator, Status: IdentityActive}, event.IdentityDeleted{IdentityID: id}, nil)
	var te *InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, MachineOperator, te.Machine)
}

func TestToken_Provisioning(t *testing.T) {
	tok, err := TransitionToken(nil, event.TokenDetected{TokenID: "t", PersonID: "alice"})
	require.NoError(t, err)

	_, err = TransitionToken(tok, event.TokenProvisioned{TokenID: "t"})
	assert.True(t, IsInvalidTransition(err), "factory credentials still set")

	tok, err = TransitionToken(tok, event.TokenCredentialsChanged{TokenID: "t", PINChanged: true})
	require.NoError(t, err)
	tok, err = TransitionToken(tok, event.TokenCredentialsChanged{TokenID: "t", PUKChanged: true})
	require.NoError(t, err)
	assert.True(t, tok.PINChanged && tok.PUKChanged)

	tok, err = TransitionToken(tok, event.TokenProvisioned{TokenID: "t"})
	require.NoError(t, err)

	_, err = TransitionToken(tok, event.TokenActivated{TokenID: "t"})
	assert.True(t, IsInvalidTransition(err), "no occupied slot")

	failed, err := TransitionToken(tok, event.SlotProvisioningFailed{TokenID: "t", Slot: event.SlotSignature, Reason: "busy"})
	require.NoError(t, err)
	assert.Equal(t, TokenProvisioned, failed.Status)
	assert.Equal(t, "busy", failed.Failures[event.SlotSignature])
	assert.Empty(t, tok.Failures, "input must not be mutated")

	withKey, err := TransitionToken(failed, event.KeyGeneratedInSlot{TokenID: "t", Slot: event.SlotSignature, KeyID: "k"})
	require.NoError(t, err)
	assert.Equal(t, 1, withKey.OccupiedSlots())
	assert.Empty(t, withKey.Failures)
	assert.Equal(t, "busy", failed.Failures[event.SlotSignature])

	_, err = TransitionToken(withKey, event.KeyGeneratedInSlot{TokenID: "t", Slot: event.SlotSignature, KeyID: "k2"})
	assert.True(t, IsInvalidTransition(err), "slot occupied")
	_, err = TransitionToken(withKey, event.KeyGeneratedInSlot{TokenID: "t", Slot: "82", KeyID: "k2"})
	assert.True(t, IsInvalidTransition(err), "unknown slot")

	active, err := TransitionToken(withKey, event.TokenActivated{TokenID: "t"})
	require.NoError(t, err)
	locked, err := TransitionToken(active, event.TokenLocked{TokenID: "t"})
	require.NoError(t, err)
	lost, err := TransitionToken(locked, event.TokenLost{TokenID: "t"})
	require.NoError(t, err)
	_, err = TransitionToken(lost, event.TokenUnlocked{TokenID: "t"})
	assert.True(t, IsInvalidTransition(err))
	retired, err := TransitionToken(lost, event.TokenRetired{TokenID: "t"})
	require.NoError(t, err)
	assert.True(t, retired.Status.Terminal())
}

func TestManifest_Flow(t *testing.T) {
	m, err := TransitionManifest(nil, event.ManifestPlanned{ManifestID: "m", Artifacts: []string{"a", "b"}})
	require.NoError(t, err)
	m, err = TransitionManifest(m, event.ManifestGenerationStarted{ManifestID: "m"})
	require.NoError(t, err)
	m, err = TransitionManifest(m, event.ManifestArtifactGenerated{ManifestID: "m", Artifact: "a"})
	require.NoError(t, err)

	_, err = TransitionManifest(m, event.ManifestArtifactGenerated{ManifestID: "m", Artifact: "a"})
	assert.True(t, IsInvalidTransition(err), "duplicate")
	_, err = TransitionManifest(m, event.ManifestArtifactGenerated{ManifestID: "m", Artifact: "zzz"})
	assert.True(t, IsInvalidTransition(err), "unplanned")
	_, err = TransitionManifest(m, event.ManifestReady{ManifestID: "m"})
	assert.True(t, IsInvalidTransition(err), "b pending")
	assert.Equal(t, []string{"b"}, m.Pending())

	m, err = TransitionManifest(m, event.ManifestArtifactGenerated{ManifestID: "m", Artifact: "b"})
	require.NoError(t, err)
	m, err = TransitionManifest(m, event.ManifestReady{ManifestID: "m"})
	require.NoError(t, err)
	m, err = TransitionManifest(m, event.ManifestExported{ManifestID: "m", Destination: "/out"})
	require.NoError(t, err)
	m, err = TransitionManifest(m, event.ManifestVerified{ManifestID: "m", Checksum: "ff"})
	require.NoError(t, err)
	assert.Equal(t, ManifestVerified, m.Status)
}

func TestManifest_PlanValidation(t *testing.T) {
	_, err := TransitionManifest(nil, event.ManifestPlanned{ManifestID: "m"})
	assert.True(t, IsInvalidTransition(err))
	_, err = TransitionManifest(nil, event.ManifestPlanned{ManifestID: "m", Artifacts: []string{"a", "a"}})
	assert.True(t, IsInvalidTransition(err))
}
