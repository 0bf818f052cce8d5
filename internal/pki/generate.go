package pki

import (
	"crypto/x509"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/lifecycle"
	"github.com/roach88/keyledger/internal/seed"
)

// Labels for the seed children each certificate consumes.
const (
	labelKey    = "key"
	labelSerial = "serial"
	labelSign   = "x509"
)

const (
	caKeyUsage   = x509.KeyUsageCertSign | x509.KeyUsageCRLSign
	leafKeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment
)

// GenerateRootCA creates a self-signed root from s. The caller keeps
// ownership of s and zeroes it afterwards.
func GenerateRootCA(s *seed.Secret, p Params) (*CertificateRecord, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	key := keyFor(s)
	tmpl := &x509.Certificate{
		SerialNumber:          serialFor(s),
		Subject:               p.Subject.pkix(),
		NotBefore:             p.NotBefore.UTC(),
		NotAfter:              p.notAfter(RootValidityYears, 0),
		KeyUsage:              caKeyUsage,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            1,
	}
	der, err := x509.CreateCertificate(seed.Stream(s, labelSign), tmpl, tmpl, key.Public, key.Signer())
	if err != nil {
		return nil, fmt.Errorf("create root certificate: %w", err)
	}
	return newRecord(event.TierRoot, "", der, key)
}

// GenerateIntermediateCA creates an intermediate signed by issuer, which must
// be an Active root with path length left.
func GenerateIntermediateCA(s *seed.Secret, p Params, issuer Issuer) (*CertificateRecord, error) {
	if err := checkIssuer(issuer, event.TierRoot); err != nil {
		return nil, err
	}
	if issuer.MaxPathLen == 0 || (issuer.Cert != nil && issuer.Cert.MaxPathLenZero) {
		return nil, issuer.notEligible("path length exhausted")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	key := keyFor(s)
	tmpl := &x509.Certificate{
		SerialNumber:          serialFor(s),
		Subject:               p.Subject.pkix(),
		NotBefore:             p.NotBefore.UTC(),
		NotAfter:              clampTo(p.notAfter(IntermediateValidityYears, 0), issuer.Cert.NotAfter),
		KeyUsage:              caKeyUsage,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
	}
	der, err := x509.CreateCertificate(seed.Stream(s, labelSign), tmpl, issuer.Cert, key.Public, issuer.Signer)
	if err != nil {
		return nil, fmt.Errorf("create intermediate certificate: %w", err)
	}
	return newRecord(event.TierIntermediate, issuer.ID, der, key)
}

// GenerateLeafCertificate creates an end-entity certificate signed by issuer,
// which must be an Active intermediate. Roots never sign leaves directly.
func GenerateLeafCertificate(s *seed.Secret, p Params, issuer Issuer) (*CertificateRecord, error) {
	if issuer.Tier == event.TierRoot {
		return nil, issuer.notEligible("roots sign intermediates only")
	}
	if err := checkIssuer(issuer, event.TierIntermediate); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	ext := []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
	if p.ClientAuth {
		ext = append(ext, x509.ExtKeyUsageClientAuth)
	}

	key := keyFor(s)
	tmpl := &x509.Certificate{
		SerialNumber:          serialFor(s),
		Subject:               p.Subject.pkix(),
		NotBefore:             p.NotBefore.UTC(),
		NotAfter:              clampTo(p.notAfter(0, LeafValidity), issuer.Cert.NotAfter),
		KeyUsage:              leafKeyUsage,
		ExtKeyUsage:           ext,
		BasicConstraintsValid: true,
		IsCA:                  false,
		DNSNames:              p.DNSNames,
		EmailAddresses:        p.EmailAddresses,
	}
	der, err := x509.CreateCertificate(seed.Stream(s, labelSign), tmpl, issuer.Cert, key.Public, issuer.Signer)
	if err != nil {
		return nil, fmt.Errorf("create leaf certificate: %w", err)
	}
	return newRecord(event.TierLeaf, issuer.ID, der, key)
}

func checkIssuer(issuer Issuer, want event.CertTier) error {
	switch {
	case issuer.Tier != want:
		return issuer.notEligible(fmt.Sprintf("a %s cannot sign here, need a %s", issuer.Tier, want))
	case !issuer.Status.SigningEligible():
		return issuer.notEligible("status must be " + string(lifecycle.CertActive))
	case issuer.Cert == nil || issuer.Signer == nil:
		return issuer.notEligible("no certificate or signing key")
	}
	return nil
}

func keyFor(s *seed.Secret) seed.KeyMaterial {
	ks := seed.DeriveChild(s, labelKey)
	defer ks.Zero()
	return seed.GenerateKeypair(ks)
}

// serialFor derives a positive, non-zero 128-bit serial.
func serialFor(s *seed.Secret) *big.Int {
	var b [16]byte
	// The HKDF stream cannot run dry at 16 bytes.
	if _, err := io.ReadFull(seed.Stream(s, labelSerial), b[:]); err != nil {
		panic("pki: serial stream: " + err.Error())
	}
	b[0] &= 0x7f
	n := new(big.Int).SetBytes(b[:])
	if n.Sign() == 0 {
		n.SetInt64(1)
	}
	return n
}

func clampTo(t, limit time.Time) time.Time {
	if t.After(limit) {
		return limit
	}
	return t
}
