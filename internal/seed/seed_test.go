package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassphrase = "correct horse battery staple"

func deriveTestSeed(t *testing.T, passphrase, org string) *Secret {
	t.Helper()
	s, _, err := DeriveMasterSeed(context.Background(), passphrase, org, TestKDFParams())
	require.NoError(t, err)
	t.Cleanup(s.Zero)
	return s
}

func TestEstimateStrength(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		band       Band
		acceptable bool
	}{
		{"empty", "", BandVeryWeak, false},
		{"whitespace only", "   \t ", BandVeryWeak, false},
		{"short lowercase", "abc", BandVeryWeak, false},
		{"dictionary word", "password", BandWeak, false},
		{"mixed classes", "Tr0ub4dor&3", BandStrong, true},
		{"four word phrase", testPassphrase, BandFair, true},
		{"seven word phrase", "orbit maple quartz lantern vivid tundra socket", BandVeryStrong, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := EstimateStrength(tt.passphrase)
			assert.Equal(t, tt.band, s.Band, "bits=%.1f", s.Bits)
			assert.Equal(t, tt.acceptable, s.Acceptable())
		})
	}
}

func TestEstimateStrength_WordsCapCharacterEstimate(t *testing.T) {
	s := EstimateStrength(testPassphrase)
	assert.Equal(t, 4, s.Words)
	assert.InDelta(t, 4*bitsPerWord, s.Bits, 0.1)
}

func TestEstimateStrength_RepeatedWordsCountOnce(t *testing.T) {
	s := EstimateStrength("banana banana banana banana")
	assert.Equal(t, 1, s.Words)
	assert.Equal(t, BandVeryWeak, s.Band)
	assert.False(t, s.Acceptable())
}

func TestStrengthString(t *testing.T) {
	s := Strength{Bits: 52.34, Band: BandFair}
	assert.Equal(t, "fair (52.3 bits)", s.String())
}

func TestKDFParams_Validate(t *testing.T) {
	require.NoError(t, ProductionKDFParams().Validate())
	require.NoError(t, TestKDFParams().Validate())

	bad := []KDFParams{
		{Memory: 1024, Iterations: 0, Parallelism: 1},
		{Memory: 1024, Iterations: 1, Parallelism: 0},
		{Memory: 4, Iterations: 1, Parallelism: 1},
	}
	for _, p := range bad {
		assert.ErrorIs(t, p.Validate(), ErrInvalidKDFParams, "%+v", p)
	}

	assert.True(t, ProductionKDFParams().MeetsProduction())
	assert.False(t, TestKDFParams().MeetsProduction())
}

func TestOrgSalt(t *testing.T) {
	a := OrgSalt("acme")
	assert.Len(t, a, saltSize)
	assert.Equal(t, a, OrgSalt("acme"))
	assert.NotEqual(t, a, OrgSalt("acme2"))
}

func TestDeriveMasterSeed_Deterministic(t *testing.T) {
	a := deriveTestSeed(t, testPassphrase, "acme")
	b := deriveTestSeed(t, testPassphrase, "acme")
	assert.True(t, a.Equal(b))
	assert.Equal(t, "master", a.Path())
}

func TestDeriveMasterSeed_NormalizesPassphrase(t *testing.T) {
	a := deriveTestSeed(t, testPassphrase, "acme")
	b := deriveTestSeed(t, "  "+testPassphrase+"\n", "acme")
	assert.True(t, a.Equal(b))
}

func TestDeriveMasterSeed_OrgSeparates(t *testing.T) {
	a := deriveTestSeed(t, testPassphrase, "acme")
	b := deriveTestSeed(t, testPassphrase, "globex")
	assert.False(t, a.Equal(b))
}

func TestDeriveMasterSeed_RejectsWeakPassphrase(t *testing.T) {
	s, strength, err := DeriveMasterSeed(context.Background(), "", "acme", TestKDFParams())
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, IsWeakPassphrase(err))
	assert.Equal(t, BandVeryWeak, strength.Band)

	var we *WeakPassphraseError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, MinEntropyBits, we.Minimum)
}

func TestDeriveMasterSeed_RejectsEmptyOrganization(t *testing.T) {
	_, strength, err := DeriveMasterSeed(context.Background(), testPassphrase, "", TestKDFParams())
	assert.ErrorIs(t, err, ErrEmptyOrganization)
	assert.True(t, strength.Acceptable())
}

func TestDeriveMasterSeed_RejectsInvalidParams(t *testing.T) {
	_, _, err := DeriveMasterSeed(context.Background(), testPassphrase, "acme", KDFParams{})
	assert.ErrorIs(t, err, ErrInvalidKDFParams)
}

func TestDeriveMasterSeed_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, _, err := DeriveMasterSeed(ctx, testPassphrase, "acme", TestKDFParams())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, s)
}

func TestDeriveMasterSeedAsync(t *testing.T) {
	ch := DeriveMasterSeedAsync(context.Background(), testPassphrase, "acme", TestKDFParams())

	select {
	case res := <-ch:
		require.NoError(t, res.Err)
		require.NotNil(t, res.Seed)
		defer res.Seed.Zero()
		assert.True(t, res.Strength.Acceptable())

		sync := deriveTestSeed(t, testPassphrase, "acme")
		assert.True(t, res.Seed.Equal(sync))
	case <-time.After(10 * time.Second):
		t.Fatal("async derivation did not complete")
	}
}

func TestDeriveMasterSeedAsync_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	// Large enough that cancellation always wins the race.
	params := KDFParams{Memory: 64 * 1024, Iterations: 4, Parallelism: 1}
	ch := DeriveMasterSeedAsync(ctx, testPassphrase, "acme", params)
	cancel()

	select {
	case res := <-ch:
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.Nil(t, res.Seed)
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation was not prompt")
	}
}

func TestDeriveChild(t *testing.T) {
	master := deriveTestSeed(t, testPassphrase, "acme")

	a := DeriveChild(master, "pki/root")
	b := DeriveChild(master, "pki/root")
	c := DeriveChild(master, "pki/intermediate/eng")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(master))
	assert.Equal(t, "pki/root", a.Path())
}

func TestDeriveChild_LabelsAreNotPrefixAmbiguous(t *testing.T) {
	master := deriveTestSeed(t, testPassphrase, "acme")
	seen := map[string]string{}
	for i := 0; i < 64; i++ {
		label := fmt.Sprintf("label/%d", i)
		s := DeriveChild(master, label)
		key := string(s.Bytes())
		prev, dup := seen[key]
		require.False(t, dup, "labels %q and %q collided", prev, label)
		seen[key] = label
	}
}

func TestDerivePath(t *testing.T) {
	master := deriveTestSeed(t, testPassphrase, "acme")

	step := DeriveChild(DeriveChild(master, "nats"), "operator")
	path := DerivePath(master, "nats", "operator")
	assert.True(t, step.Equal(path))
	assert.Equal(t, "nats/operator", path.Path())

	cp := DerivePath(master)
	assert.True(t, cp.Equal(master))
	cp.Zero()
	assert.False(t, master.Zeroed())
}

func TestDeriveChild_PanicsOnZeroedParent(t *testing.T) {
	master := deriveTestSeed(t, testPassphrase, "acme")
	parent := DeriveChild(master, "tmp")
	parent.Zero()
	assert.Panics(t, func() { DeriveChild(parent, "x") })
}

func TestStream(t *testing.T) {
	master := deriveTestSeed(t, testPassphrase, "acme")

	read := func(label string) []byte {
		buf := make([]byte, 64)
		_, err := Stream(master, label).Read(buf)
		require.NoError(t, err)
		return buf
	}

	assert.Equal(t, read("x509"), read("x509"))
	assert.NotEqual(t, read("x509"), read("serial"))
}

func TestSecret_Zero(t *testing.T) {
	s := DeriveChild(deriveTestSeed(t, testPassphrase, "acme"), "z")
	s.Zero()
	s.Zero()
	assert.True(t, s.Zeroed())
	assert.Panics(t, func() { s.Bytes() })

	var nilSecret *Secret
	assert.NotPanics(t, nilSecret.Zero)
}

func TestSecret_NeverSerialized(t *testing.T) {
	s := deriveTestSeed(t, testPassphrase, "acme")

	_, err := json.Marshal(s)
	assert.ErrorIs(t, err, ErrSecretSerialization)
	assert.Equal(t, "[redacted]", fmt.Sprint(s))
	assert.Equal(t, "[redacted]", fmt.Sprintf("%v", s))
	assert.NotContains(t, s.LogValue().String(), fmt.Sprintf("%x", s.Bytes()))
}

func TestGenerateKeypair(t *testing.T) {
	master := deriveTestSeed(t, testPassphrase, "acme")
	s := DeriveChild(master, "person/alice/piv/9A")
	defer s.Zero()

	a := GenerateKeypair(s)
	b := GenerateKeypair(s)
	assert.Equal(t, a.Public, b.Public)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, AlgorithmEd25519, a.Algorithm)
	assert.Regexp(t, `^ed25519:[0-9a-f]{32}$`, a.ID)

	other := GenerateKeypair(DeriveChild(master, "person/bob/piv/9A"))
	assert.NotEqual(t, a.ID, other.ID)

	sig, err := a.Signer().Sign(nil, []byte("msg"), nil)
	require.NoError(t, err)
	assert.Len(t, sig, 64)

	a.Zero()
	assert.Nil(t, a.Signer())
}
