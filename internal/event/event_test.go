package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// everyPayload holds one instance of each variant.
func everyPayload() []Payload {
	return []Payload{
		KeyGenerated{KeyID: "k1", Algorithm: "Ed25519", Purpose: "ca", DerivationPath: "pki/root", PublicKey: "ab"},
		KeyImported{KeyID: "k2", Algorithm: "Ed25519", Purpose: "signing", Source: "legacy"},
		KeyActivated{KeyID: "k1"},
		KeyRotationInitiated{KeyID: "k1", NewKeyID: "k3"},
		KeyRotationCancelled{KeyID: "k1", NewKeyID: "k3"},
		KeyRotationCompleted{KeyID: "k1", NewKeyID: "k3"},
		KeyExpired{KeyID: "k1"},
		KeyRevoked{KeyID: "k1", Reason: "compromised"},
		KeyArchived{KeyID: "k1"},
		CertificateGenerated{CertID: "c1", KeyID: "k1", Tier: TierRoot, Subject: "CN=Root", Serial: "01",
			NotBefore: testTime, NotAfter: testTime.AddDate(20, 0, 0), MaxPathLen: 1, KeyUsage: []string{"cert_sign", "crl_sign"}},
		CertificateActivated{CertID: "c1"},
		CertificateSuspended{CertID: "c1"},
		CertificateReinstated{CertID: "c1"},
		CertificateRenewed{CertID: "c1", SuccessorID: "c2"},
		CertificateRenewalCompleted{CertID: "c1"},
		CertificateExpired{CertID: "c1"},
		CertificateRevoked{CertID: "c1"},
		IdentityCreated{IdentityID: "op", Role: RoleOperator, Name: "acme"},
		IdentityKeysGenerated{IdentityID: "op", PublicKey: "OABC"},
		IdentityActivated{IdentityID: "op"},
		IdentitySuspended{IdentityID: "op"},
		IdentityReactivated{IdentityID: "op"},
		IdentityDeleted{IdentityID: "op"},
		IdentityRevoked{IdentityID: "op"},
		TokenDetected{TokenID: "t1", PersonID: "alice"},
		TokenCredentialsChanged{TokenID: "t1", PINChanged: true},
		TokenProvisioned{TokenID: "t1"},
		KeyGeneratedInSlot{TokenID: "t1", Slot: SlotSignature, KeyID: "k9"},
		SlotProvisioningFailed{TokenID: "t1", Slot: SlotCardAuth, Reason: "busy"},
		TokenActivated{TokenID: "t1"},
		TokenLocked{TokenID: "t1"},
		TokenUnlocked{TokenID: "t1"},
		TokenLost{TokenID: "t1"},
		TokenRetired{TokenID: "t1"},
		ManifestPlanned{ManifestID: "m1", Artifacts: []string{"root.pem"}},
		ManifestGenerationStarted{ManifestID: "m1"},
		ManifestArtifactGenerated{ManifestID: "m1", Artifact: "root.pem"},
		ManifestReady{ManifestID: "m1"},
		ManifestExported{ManifestID: "m1", Destination: "/out"},
		ManifestVerified{ManifestID: "m1", Checksum: "ff"},
		ManifestFailed{ManifestID: "m1", Reason: "disk"},
	}
}

func TestEveryKindHasAVariant(t *testing.T) {
	seen := map[Kind]bool{}
	for _, p := range everyPayload() {
		seen[p.Kind()] = true
	}
	assert.Len(t, seen, len(Kinds()))
	for _, k := range Kinds() {
		assert.True(t, seen[k], "no sample for %s", k)
		assert.NotEmpty(t, k.Aggregate(), "kind %s has no aggregate", k)
	}
}

func TestKind_Aggregate(t *testing.T) {
	assert.Equal(t, AggregateKey, KindKeyRevoked.Aggregate())
	assert.Equal(t, AggregateToken, KindKeyGeneratedInSlot.Aggregate())
	assert.Equal(t, AggregateIdentity, KindIdentityCreated.Aggregate())
	assert.False(t, Kind("Nope").Valid())
}

func TestEvent_JSON(t *testing.T) {
	for _, p := range everyPayload() {
		ev := Event{ID: "e1", CorrelationID: "c", CausationID: "e0", Timestamp: testTime, Payload: p}
		data, err := json.Marshal(ev)
		require.NoError(t, err, p.Kind())

		var got Event
		require.NoError(t, json.Unmarshal(data, &got), p.Kind())
		assert.Equal(t, ev, got, p.Kind())
	}
}

func TestEvent_JSONShape(t *testing.T) {
	ev := Event{ID: "e1", CorrelationID: "c", Timestamp: testTime, Payload: KeyActivated{KeyID: "k1"}}
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "e1",
		"correlation_id": "c",
		"timestamp": "2026-01-02T03:04:05Z",
		"kind": "KeyActivated",
		"payload": {"key_id": "k1"}
	}`, string(data))
}

func TestDecodePayload_UnknownKind(t *testing.T) {
	_, err := DecodePayload("Bogus", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestEncodePayload_Canonical(t *testing.T) {
	data, err := EncodePayload(KeyRotationInitiated{KeyID: "k1", NewKeyID: "k2"})
	require.NoError(t, err)
	assert.Equal(t, `{"key_id":"k1","new_key_id":"k2"}`, string(data))
}

func TestContentHash(t *testing.T) {
	ev := Event{ID: "e1", CorrelationID: "c", Timestamp: testTime, Payload: KeyActivated{KeyID: "k1"}}
	h1, err := ContentHash(ev)
	require.NoError(t, err)
	h2, err := ContentHash(ev)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	ev.Payload = KeyActivated{KeyID: "k2"}
	h3, err := ContentHash(ev)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestInverse_Pairs(t *testing.T) {
	pairs := []Payload{
		KeyRotationInitiated{KeyID: "k1", NewKeyID: "k2"},
		CertificateSuspended{CertID: "c1", Reason: undoReason},
		IdentitySuspended{IdentityID: "i1", Reason: undoReason},
		TokenLocked{TokenID: "t1", Reason: undoReason},
	}
	for _, p := range pairs {
		inv, err := Inverse(p)
		require.NoError(t, err, p.Kind())
		assert.Equal(t, p.EntityID(), inv.EntityID())

		back, err := Inverse(inv)
		require.NoError(t, err, inv.Kind())
		assert.Equal(t, p.Kind(), back.Kind())
	}
}

func TestInverse_CreationCompensatesToTerminal(t *testing.T) {
	tests := []struct {
		in   Payload
		want Kind
	}{
		{KeyGenerated{KeyID: "k1"}, KindKeyRevoked},
		{KeyImported{KeyID: "k1"}, KindKeyRevoked},
		{CertificateGenerated{CertID: "c1"}, KindCertificateRevoked},
		{IdentityCreated{IdentityID: "i1"}, KindIdentityDeleted},
		{TokenDetected{TokenID: "t1"}, KindTokenRetired},
		{ManifestPlanned{ManifestID: "m1"}, KindManifestFailed},
	}
	for _, tt := range tests {
		inv, err := Inverse(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, inv.Kind())
		assert.Equal(t, tt.in.EntityID(), inv.EntityID())
	}
}

func TestInverse_Irreversible(t *testing.T) {
	for _, p := range []Payload{
		KeyActivated{KeyID: "k1"},
		KeyRotationCompleted{KeyID: "k1", NewKeyID: "k2"},
		KeyRevoked{KeyID: "k1"},
		CertificateRevoked{CertID: "c1"},
		IdentityRevoked{IdentityID: "i1"},
		TokenRetired{TokenID: "t1"},
		ManifestVerified{ManifestID: "m1"},
	} {
		_, err := Inverse(p)
		assert.True(t, IsIrreversible(err), p.Kind())
	}
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.NewID())
	assert.Equal(t, "b", g.NewID())
	assert.Panics(t, func() { g.NewID() })
}

func TestUUIDv7Generator_Sortable(t *testing.T) {
	var g UUIDv7Generator
	prev := g.NewID()
	for i := 0; i < 100; i++ {
		next := g.NewID()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestSlot_Valid(t *testing.T) {
	for _, s := range Slots() {
		assert.True(t, s.Valid())
	}
	assert.False(t, Slot("82").Valid())
}
