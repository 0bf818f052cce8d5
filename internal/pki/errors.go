package pki

import (
	"errors"
	"fmt"

	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/lifecycle"
)

var (
	// ErrMissingNotBefore is returned when Params.NotBefore is zero.
	ErrMissingNotBefore = errors.New("pki: NotBefore is required")

	// ErrMissingCommonName is returned when the subject has no common name.
	ErrMissingCommonName = errors.New("pki: subject common name is required")
)

// IssuerNotEligibleError rejects an issuer that may not sign the requested
// certificate: wrong tier, not Active, or path length exhausted.
type IssuerNotEligibleError struct {
	IssuerID string
	Tier     event.CertTier
	Status   lifecycle.CertStatus
	Reason   string
}

func (e *IssuerNotEligibleError) Error() string {
	return fmt.Sprintf("issuer %s (%s, %s) not eligible: %s", e.IssuerID, e.Tier, e.Status, e.Reason)
}

// IsIssuerNotEligible reports whether err is (or wraps) an IssuerNotEligibleError.
func IsIssuerNotEligible(err error) bool {
	var ie *IssuerNotEligibleError
	return errors.As(err, &ie)
}
