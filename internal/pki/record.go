package pki

import (
	"bytes"
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/lifecycle"
	"github.com/roach88/keyledger/internal/seed"
)

// CertificateRecord is a generated certificate together with the key that
// can sign with it.
type CertificateRecord struct {
	ID          string
	Tier        event.CertTier
	Subject     string
	IssuerID    string
	Serial      *big.Int
	NotBefore   time.Time
	NotAfter    time.Time
	MaxPathLen  int // -1 for leaves
	KeyUsage    x509.KeyUsage
	ExtKeyUsage []x509.ExtKeyUsage
	DER         []byte
	Fingerprint string
	Status      lifecycle.CertStatus
	Key         seed.KeyMaterial

	cert *x509.Certificate
}

// Certificate returns the parsed certificate.
func (r *CertificateRecord) Certificate() *x509.Certificate { return r.cert }

// PEM encodes the certificate.
func (r *CertificateRecord) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: r.DER})
}

// ParsePEM reads the first certificate in data as a public record. The tier
// is read from the certificate; the record has no key and no issuer id.
func ParsePEM(data []byte) (*CertificateRecord, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, errors.New("pki: no certificate in PEM data")
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("pki: parse certificate: %w", err)
		}
		tier := event.TierLeaf
		if cert.IsCA {
			tier = event.TierIntermediate
			if bytes.Equal(cert.RawIssuer, cert.RawSubject) {
				tier = event.TierRoot
			}
		}
		return newRecord(tier, "", block.Bytes, seed.KeyMaterial{})
	}
}

// Issuer snapshots the record as an issuer in the given lifecycle status.
// The status normally comes from the projection, not from the record.
func (r *CertificateRecord) Issuer(status lifecycle.CertStatus) Issuer {
	return Issuer{
		ID:         r.ID,
		Tier:       r.Tier,
		Status:     status,
		MaxPathLen: r.MaxPathLen,
		Cert:       r.cert,
		Signer:     r.Key.Signer(),
	}
}

// GeneratedEvent describes the record as a CertificateGenerated payload.
func (r *CertificateRecord) GeneratedEvent() event.CertificateGenerated {
	return event.CertificateGenerated{
		CertID:      r.ID,
		KeyID:       r.Key.ID,
		Tier:        r.Tier,
		Subject:     r.Subject,
		IssuerID:    r.IssuerID,
		Serial:      r.Serial.Text(16),
		NotBefore:   r.NotBefore,
		NotAfter:    r.NotAfter,
		MaxPathLen:  r.MaxPathLen,
		KeyUsage:    KeyUsageNames(r.KeyUsage),
		Fingerprint: r.Fingerprint,
	}
}

// Issuer is what a certificate needs to know about its signer. Issuers are
// referenced by stable id; the caller looks the status up in the projection.
type Issuer struct {
	ID         string
	Tier       event.CertTier
	Status     lifecycle.CertStatus
	MaxPathLen int
	Cert       *x509.Certificate
	Signer     crypto.Signer
}

func (i Issuer) notEligible(reason string) error {
	return &IssuerNotEligibleError{IssuerID: i.ID, Tier: i.Tier, Status: i.Status, Reason: reason}
}

// Fingerprint is the hex SHA-256 of a DER certificate.
func Fingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

// CertID derives a stable certificate id from its DER.
func CertID(der []byte) string {
	sum := sha256.Sum256(der)
	return "cert:" + hex.EncodeToString(sum[:16])
}

var keyUsageNames = []struct {
	bit  x509.KeyUsage
	name string
}{
	{x509.KeyUsageDigitalSignature, "digital_signature"},
	{x509.KeyUsageContentCommitment, "content_commitment"},
	{x509.KeyUsageKeyEncipherment, "key_encipherment"},
	{x509.KeyUsageDataEncipherment, "data_encipherment"},
	{x509.KeyUsageKeyAgreement, "key_agreement"},
	{x509.KeyUsageCertSign, "cert_sign"},
	{x509.KeyUsageCRLSign, "crl_sign"},
	{x509.KeyUsageEncipherOnly, "encipher_only"},
	{x509.KeyUsageDecipherOnly, "decipher_only"},
}

// KeyUsageNames lists the set bits of ku in a fixed order.
func KeyUsageNames(ku x509.KeyUsage) []string {
	var out []string
	for _, k := range keyUsageNames {
		if ku&k.bit != 0 {
			out = append(out, k.name)
		}
	}
	return out
}

func newRecord(tier event.CertTier, issuerID string, der []byte, key seed.KeyMaterial) (*CertificateRecord, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parse generated %s certificate: %w", tier, err)
	}
	maxPath := cert.MaxPathLen
	if !cert.IsCA {
		maxPath = -1
	}
	return &CertificateRecord{
		ID:          CertID(der),
		Tier:        tier,
		Subject:     cert.Subject.String(),
		IssuerID:    issuerID,
		Serial:      cert.SerialNumber,
		NotBefore:   cert.NotBefore.UTC(),
		NotAfter:    cert.NotAfter.UTC(),
		MaxPathLen:  maxPath,
		KeyUsage:    cert.KeyUsage,
		ExtKeyUsage: cert.ExtKeyUsage,
		DER:         der,
		Fingerprint: Fingerprint(der),
		Status:      lifecycle.CertPending,
		Key:         key,
		cert:        cert,
	}, nil
}
