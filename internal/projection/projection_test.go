package projection

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/lifecycle"
)

var t0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func ev(n int, corr, cause string, p event.Payload) event.Event {
	return event.Event{
		ID:            fmt.Sprintf("%04d", n),
		CorrelationID: corr,
		CausationID:   cause,
		Timestamp:     t0.Add(time.Duration(n) * time.Second),
		Payload:       p,
	}
}

// interleaved builds n events across three correlation groups. Each group
// alternates generating and activating its own keys; activations are caused
// by the matching generation.
func interleaved(n int) []event.Event {
	out := make([]event.Event, 0, n)
	for i := 0; i < n; i++ {
		group := i % 3
		step := i / 3
		corr := fmt.Sprintf("corr-%d", group)
		keyID := fmt.Sprintf("key-%d-%d", group, step/2)
		if step%2 == 0 {
			out = append(out, ev(i+1, corr, "", event.KeyGenerated{KeyID: keyID, Algorithm: "Ed25519"}))
		} else {
			cause := fmt.Sprintf("%04d", i+1-3)
			out = append(out, ev(i+1, corr, cause, event.KeyActivated{KeyID: keyID}))
		}
	}
	return out
}

func TestRebuild_Deterministic(t *testing.T) {
	events := interleaved(100)

	a, err := Rebuild(events)
	require.NoError(t, err)
	b, err := Rebuild(events)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Snapshot(), b.Snapshot())
	assert.Equal(t, 100, a.Len())
	assert.Equal(t, "0100", a.LastEventID())
	assert.Equal(t, []string{"corr-0", "corr-1", "corr-2"}, a.CorrelationIDs())
	assert.Len(t, a.Correlation("corr-0"), 34)
	assert.Len(t, a.Correlation("corr-1"), 33)
}

func TestRebuild_ConcatenationLaw(t *testing.T) {
	events := interleaved(60)
	whole, err := Rebuild(events)
	require.NoError(t, err)

	for _, split := range []int{0, 1, 17, 59, 60} {
		p, err := Rebuild(events[:split])
		require.NoError(t, err)
		for _, e := range events[split:] {
			p, err = Apply(p, e)
			require.NoError(t, err)
		}
		assert.True(t, whole.Equal(p), "split at %d", split)
	}
}

func TestApplyAll(t *testing.T) {
	events := interleaved(30)
	whole, err := Rebuild(events)
	require.NoError(t, err)

	head, err := Rebuild(events[:12])
	require.NoError(t, err)
	got, err := ApplyAll(head, events[12:])
	require.NoError(t, err)
	assert.True(t, whole.Equal(got))
	assert.Equal(t, 12, head.Len())
}

func TestApplyAll_RejectsWholeBatch(t *testing.T) {
	events := interleaved(6)
	p, err := Rebuild(events[:3])
	require.NoError(t, err)
	before := p.Snapshot()

	batch := []event.Event{
		events[3],
		ev(7, "corr-1", "", event.KeyActivated{KeyID: "key-9-9"}),
	}
	_, err = ApplyAll(p, batch)
	require.Error(t, err)
	assert.True(t, IsProjectionError(err))
	assert.Equal(t, before, p.Snapshot())
	assert.False(t, p.Applied(events[3].ID))
}

func TestApply_LeavesInputUntouched(t *testing.T) {
	p, err := Rebuild(interleaved(6))
	require.NoError(t, err)
	before := p.Snapshot()

	next, err := Apply(p, ev(7, "corr-0", "0004", event.KeyRotationInitiated{KeyID: "key-0-0", NewKeyID: "key-x"}))
	require.NoError(t, err)

	assert.Equal(t, before, p.Snapshot())
	k, _ := next.Key("key-0-0")
	assert.Equal(t, lifecycle.KeyRotationPending, k.Status)
	k, _ = p.Key("key-0-0")
	assert.Equal(t, lifecycle.KeyActive, k.Status)
}

func TestApply_RejectsInvalidTransition(t *testing.T) {
	p, err := Rebuild(interleaved(3))
	require.NoError(t, err)
	before := p.Snapshot()

	_, err = Apply(p, ev(4, "corr-0", "", event.KeyArchived{KeyID: "key-0-0"}))
	require.Error(t, err)

	var pe *ProjectionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrKindTransition, pe.Kind)
	assert.Equal(t, "0004", pe.EventID)
	assert.True(t, lifecycle.IsInvalidTransition(err))
	assert.Equal(t, before, p.Snapshot())
}

func TestApply_Envelope(t *testing.T) {
	p, err := Rebuild(interleaved(3))
	require.NoError(t, err)
	gen := event.KeyGenerated{KeyID: "fresh"}

	tests := []struct {
		name string
		ev   event.Event
		kind ErrorKind
	}{
		{"missing id", event.Event{CorrelationID: "c", Payload: gen}, ErrKindMissingID},
		{"duplicate id", ev(2, "c", "", gen), ErrKindDuplicateID},
		{"missing correlation", ev(9, "", "", gen), ErrKindMissingCorrelation},
		{"nil payload", ev(9, "c", "", nil), ErrKindMissingPayload},
		{"empty entity", ev(9, "c", "", event.KeyGenerated{}), ErrKindMissingPayload},
		{"unknown causation", ev(9, "c", "0042", gen), ErrKindUnknownCausation},
		{"self causation", ev(9, "c", "0009", gen), ErrKindUnknownCausation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(p, tt.ev)
			var pe *ProjectionError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.kind, pe.Kind)
		})
	}
}

func TestApply_CausationMustPrecede(t *testing.T) {
	events := []event.Event{
		ev(5, "c", "", event.KeyGenerated{KeyID: "a"}),
		ev(3, "c", "0005", event.KeyActivated{KeyID: "a"}),
	}
	_, err := Rebuild(events)
	var pe *ProjectionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrKindCausationOrder, pe.Kind)
}

func TestEveryEventIDExceedsItsCausation(t *testing.T) {
	p, err := Rebuild(interleaved(100))
	require.NoError(t, err)
	for id, cause := range p.causation {
		if cause != "" {
			assert.Less(t, cause, id)
		}
	}
}

func TestCausalChain(t *testing.T) {
	p, err := Rebuild(interleaved(9))
	require.NoError(t, err)

	p, err = Apply(p, ev(10, "corr-0", "0004", event.KeyRotationInitiated{KeyID: "key-0-0", NewKeyID: "n"}))
	require.NoError(t, err)
	p, err = Apply(p, ev(11, "corr-0", "0010", event.KeyRotationCancelled{KeyID: "key-0-0", NewKeyID: "n"}))
	require.NoError(t, err)

	assert.Equal(t, []string{"0001", "0004", "0010", "0011"}, p.CausalChain("0011"))
	assert.Equal(t, []string{"0002"}, p.CausalChain("0002"))
	assert.Nil(t, p.CausalChain("9999"))
}

func TestReplayUntil(t *testing.T) {
	events := interleaved(12)

	p, err := ReplayUntil(events, "0006")
	require.NoError(t, err)
	assert.Equal(t, 6, p.Len())
	assert.Equal(t, "0006", p.LastEventID())

	_, err = ReplayUntil(events, "nope")
	assert.ErrorIs(t, err, ErrCutoffNotFound)
}

func TestCertificateIssuerLookup(t *testing.T) {
	p := New()
	var err error
	steps := []event.Event{
		ev(1, "c", "", event.CertificateGenerated{CertID: "root", Tier: event.TierRoot}),
		ev(2, "c", "", event.CertificateGenerated{CertID: "int", Tier: event.TierIntermediate, IssuerID: "root"}),
	}
	p, err = Apply(p, steps[0])
	require.NoError(t, err)
	_, err = Apply(p, steps[1])
	assert.True(t, lifecycle.IsInvalidTransition(err), "root still pending")

	p, err = Apply(p, ev(3, "c", "0001", event.CertificateActivated{CertID: "root"}))
	require.NoError(t, err)
	p, err = Apply(p, ev(4, "c", "0003", event.CertificateGenerated{CertID: "int", Tier: event.TierIntermediate, IssuerID: "root"}))
	require.NoError(t, err)

	status, ok := p.IssuerStatus("root")
	assert.True(t, ok)
	assert.Equal(t, lifecycle.CertActive, status)
	_, ok = p.IssuerStatus("missing")
	assert.False(t, ok)
	assert.Len(t, p.Certificates(), 2)
}

func TestIdentityParentLookup(t *testing.T) {
	events := []event.Event{
		ev(1, "c", "", event.IdentityCreated{IdentityID: "op", Role: event.RoleOperator, Name: "acme"}),
		ev(2, "c", "", event.IdentityKeysGenerated{IdentityID: "op", PublicKey: "O"}),
		ev(3, "c", "", event.IdentityCreated{IdentityID: "acct", Role: event.RoleAccount, Name: "eng", ParentID: "op"}),
		ev(4, "c", "", event.IdentityKeysGenerated{IdentityID: "acct", PublicKey: "A"}),
	}
	p, err := Rebuild(events)
	require.NoError(t, err)

	_, err = Apply(p, ev(5, "c", "", event.IdentityActivated{IdentityID: "acct"}))
	assert.True(t, lifecycle.IsInvalidTransition(err), "operator not active")

	p, err = Apply(p, ev(5, "c", "", event.IdentityActivated{IdentityID: "op"}))
	require.NoError(t, err)
	p, err = Apply(p, ev(6, "c", "", event.IdentityActivated{IdentityID: "acct"}))
	require.NoError(t, err)

	acct, ok := p.Identity("acct")
	require.True(t, ok)
	assert.Equal(t, lifecycle.IdentityActive, acct.Status)
	assert.Len(t, p.Identities(), 2)
}

func TestEqual(t *testing.T) {
	a, err := Rebuild(interleaved(5))
	require.NoError(t, err)
	b, err := Rebuild(interleaved(6))
	require.NoError(t, err)

	assert.False(t, a.Equal(b))
	assert.True(t, New().Equal(New()))
	assert.False(t, a.Equal(nil))
}
