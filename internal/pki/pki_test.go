package pki

import (
	"context"
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/lifecycle"
	"github.com/roach88/keyledger/internal/seed"
)

var notBefore = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func masterSeed(t *testing.T) *seed.Secret {
	t.Helper()
	s, _, err := seed.DeriveMasterSeed(context.Background(), "correct horse battery staple", "acme", seed.TestKDFParams())
	require.NoError(t, err)
	t.Cleanup(s.Zero)
	return s
}

type chain struct {
	root, inter, leaf *CertificateRecord
}

func buildChain(t *testing.T, master *seed.Secret) chain {
	t.Helper()
	root, err := GenerateRootCA(seed.DeriveChild(master, "pki/root"), Params{
		Subject:   Subject{CommonName: "Acme Root CA", Organization: "Acme"},
		NotBefore: notBefore,
	})
	require.NoError(t, err)

	inter, err := GenerateIntermediateCA(seed.DeriveChild(master, "pki/intermediate/eng"), Params{
		Subject:   Subject{CommonName: "Acme Eng CA", Organization: "Acme", OrganizationalUnit: "eng"},
		NotBefore: notBefore,
	}, root.Issuer(lifecycle.CertActive))
	require.NoError(t, err)

	leaf, err := GenerateLeafCertificate(seed.DeriveChild(master, "pki/leaf/api"), Params{
		Subject:   Subject{CommonName: "api.acme.test"},
		DNSNames:  []string{"api.acme.test"},
		NotBefore: notBefore,
	}, inter.Issuer(lifecycle.CertActive))
	require.NoError(t, err)

	return chain{root, inter, leaf}
}

func TestChain_Verifies(t *testing.T) {
	c := buildChain(t, masterSeed(t))
	require.NoError(t, VerifyChain(c.root, c.inter, c.leaf))

	assert.Equal(t, event.TierRoot, c.root.Tier)
	assert.Empty(t, c.root.IssuerID)
	assert.Equal(t, c.root.ID, c.inter.IssuerID)
	assert.Equal(t, c.inter.ID, c.leaf.IssuerID)
	assert.Equal(t, lifecycle.CertPending, c.leaf.Status)
}

func TestChain_TierConstraints(t *testing.T) {
	c := buildChain(t, masterSeed(t))

	root := c.root.Certificate()
	assert.True(t, root.IsCA)
	assert.Equal(t, 1, root.MaxPathLen)
	assert.Equal(t, x509.KeyUsageCertSign|x509.KeyUsageCRLSign, root.KeyUsage)
	assert.Equal(t, notBefore.AddDate(20, 0, 0), c.root.NotAfter)

	inter := c.inter.Certificate()
	assert.True(t, inter.IsCA)
	assert.Equal(t, 0, inter.MaxPathLen)
	assert.True(t, inter.MaxPathLenZero)
	assert.Zero(t, inter.KeyUsage&x509.KeyUsageDigitalSignature)
	assert.Zero(t, inter.KeyUsage&x509.KeyUsageKeyEncipherment)
	assert.Equal(t, notBefore.AddDate(3, 0, 0), c.inter.NotAfter)

	leaf := c.leaf.Certificate()
	assert.False(t, leaf.IsCA)
	assert.Equal(t, -1, c.leaf.MaxPathLen)
	assert.Equal(t, x509.KeyUsageDigitalSignature|x509.KeyUsageKeyEncipherment, leaf.KeyUsage)
	assert.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}, leaf.ExtKeyUsage)
	assert.Equal(t, notBefore.Add(LeafValidity), c.leaf.NotAfter)
	assert.Equal(t, []string{"api.acme.test"}, leaf.DNSNames)
}

func TestChain_Deterministic(t *testing.T) {
	a := buildChain(t, masterSeed(t))
	b := buildChain(t, masterSeed(t))

	assert.Equal(t, a.root.DER, b.root.DER)
	assert.Equal(t, a.inter.DER, b.inter.DER)
	assert.Equal(t, a.leaf.DER, b.leaf.DER)
	assert.Equal(t, a.leaf.ID, b.leaf.ID)
	assert.Equal(t, 0, a.root.Serial.Cmp(b.root.Serial))
	assert.NotEqual(t, 0, a.root.Serial.Cmp(a.inter.Serial))
	assert.Positive(t, a.root.Serial.Sign())
}

func TestLeafFromRootRejected(t *testing.T) {
	master := masterSeed(t)
	c := buildChain(t, master)

	_, err := GenerateLeafCertificate(seed.DeriveChild(master, "pki/leaf/bad"), Params{
		Subject:   Subject{CommonName: "bad"},
		NotBefore: notBefore,
	}, c.root.Issuer(lifecycle.CertActive))
	require.Error(t, err)
	assert.True(t, IsIssuerNotEligible(err))

	var ie *IssuerNotEligibleError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, c.root.ID, ie.IssuerID)
	assert.Equal(t, event.TierRoot, ie.Tier)
}

func TestIssuerEligibility(t *testing.T) {
	master := masterSeed(t)
	c := buildChain(t, master)
	p := Params{Subject: Subject{CommonName: "x"}, NotBefore: notBefore}
	s := seed.DeriveChild(master, "pki/extra")

	tests := []struct {
		name   string
		issuer Issuer
		gen    func(*seed.Secret, Params, Issuer) (*CertificateRecord, error)
	}{
		{"intermediate from pending root", c.root.Issuer(lifecycle.CertPending), GenerateIntermediateCA},
		{"intermediate from suspended root", c.root.Issuer(lifecycle.CertSuspended), GenerateIntermediateCA},
		{"intermediate from intermediate", c.inter.Issuer(lifecycle.CertActive), GenerateIntermediateCA},
		{"intermediate from leaf", c.leaf.Issuer(lifecycle.CertActive), GenerateIntermediateCA},
		{"leaf from revoked intermediate", c.inter.Issuer(lifecycle.CertRevoked), GenerateLeafCertificate},
		{"leaf from leaf", c.leaf.Issuer(lifecycle.CertActive), GenerateLeafCertificate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.gen(s, p, tt.issuer)
			assert.True(t, IsIssuerNotEligible(err), "got %v", err)
		})
	}
}

func TestIntermediate_PathLengthExhausted(t *testing.T) {
	master := masterSeed(t)
	c := buildChain(t, master)

	iss := c.root.Issuer(lifecycle.CertActive)
	iss.MaxPathLen = 0
	_, err := GenerateIntermediateCA(seed.DeriveChild(master, "pki/x"), Params{
		Subject: Subject{CommonName: "x"}, NotBefore: notBefore,
	}, iss)
	assert.True(t, IsIssuerNotEligible(err))
}

func TestParamsValidation(t *testing.T) {
	master := masterSeed(t)
	_, err := GenerateRootCA(seed.DeriveChild(master, "pki/root"), Params{Subject: Subject{CommonName: "r"}})
	assert.ErrorIs(t, err, ErrMissingNotBefore)

	_, err = GenerateRootCA(seed.DeriveChild(master, "pki/root"), Params{NotBefore: notBefore})
	assert.ErrorIs(t, err, ErrMissingCommonName)
}

func TestLeaf_ValidityClampedToIssuer(t *testing.T) {
	master := masterSeed(t)
	c := buildChain(t, master)

	leaf, err := GenerateLeafCertificate(seed.DeriveChild(master, "pki/leaf/long"), Params{
		Subject:    Subject{CommonName: "long"},
		NotBefore:  notBefore,
		Validity:   10 * 365 * 24 * time.Hour,
		ClientAuth: true,
	}, c.inter.Issuer(lifecycle.CertActive))
	require.NoError(t, err)
	assert.Equal(t, c.inter.NotAfter, leaf.NotAfter)
	assert.Contains(t, leaf.ExtKeyUsage, x509.ExtKeyUsageClientAuth)
}

func TestGeneratedEvent(t *testing.T) {
	c := buildChain(t, masterSeed(t))
	ev := c.inter.GeneratedEvent()

	assert.Equal(t, c.inter.ID, ev.CertID)
	assert.Equal(t, c.root.ID, ev.IssuerID)
	assert.Equal(t, event.TierIntermediate, ev.Tier)
	assert.Equal(t, 0, ev.MaxPathLen)
	assert.Equal(t, []string{"cert_sign", "crl_sign"}, ev.KeyUsage)
	assert.Equal(t, c.inter.Key.ID, ev.KeyID)
	assert.Contains(t, ev.Subject, "CN=Acme Eng CA")
}

func TestPEM(t *testing.T) {
	c := buildChain(t, masterSeed(t))
	assert.Contains(t, string(c.root.PEM()), "-----BEGIN CERTIFICATE-----")
}

func TestParsePEM(t *testing.T) {
	c := buildChain(t, masterSeed(t))

	root, err := ParsePEM(c.root.PEM())
	require.NoError(t, err)
	inter, err := ParsePEM(c.inter.PEM())
	require.NoError(t, err)
	leaf, err := ParsePEM(append([]byte("-----BEGIN JUNK-----\n-----END JUNK-----\n"), c.leaf.PEM()...))
	require.NoError(t, err)

	assert.Equal(t, event.TierRoot, root.Tier)
	assert.Equal(t, event.TierIntermediate, inter.Tier)
	assert.Equal(t, event.TierLeaf, leaf.Tier)
	assert.Equal(t, c.leaf.ID, leaf.ID)
	assert.Equal(t, c.inter.MaxPathLen, inter.MaxPathLen)
	require.NoError(t, VerifyChain(root, inter, leaf))

	_, err = ParsePEM([]byte("not pem"))
	assert.ErrorContains(t, err, "no certificate")
}
