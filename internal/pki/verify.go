package pki

import (
	"crypto/x509"
	"errors"
	"fmt"
)

// VerifyChain checks that leaf chains to root through intermediate, at the
// leaf's NotBefore.
func VerifyChain(root, intermediate, leaf *CertificateRecord) error {
	if root == nil || intermediate == nil || leaf == nil {
		return errors.New("pki: verify chain: missing certificate")
	}
	roots := x509.NewCertPool()
	roots.AddCert(root.Certificate())
	inters := x509.NewCertPool()
	inters.AddCert(intermediate.Certificate())

	_, err := leaf.Certificate().Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: inters,
		CurrentTime:   leaf.NotBefore,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return fmt.Errorf("verify chain for %s: %w", leaf.ID, err)
	}
	return nil
}
