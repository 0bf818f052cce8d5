package pki

import (
	"crypto/x509/pkix"
	"time"
)

// Default validity per tier.
const (
	RootValidityYears         = 20
	IntermediateValidityYears = 3
	LeafValidity              = 90 * 24 * time.Hour
)

// Subject is the distinguished name of a certificate.
type Subject struct {
	CommonName         string `json:"common_name" yaml:"common_name"`
	Organization       string `json:"organization,omitempty" yaml:"organization,omitempty"`
	OrganizationalUnit string `json:"organizational_unit,omitempty" yaml:"organizational_unit,omitempty"`
	Country            string `json:"country,omitempty" yaml:"country,omitempty"`
}

func (s Subject) pkix() pkix.Name {
	n := pkix.Name{CommonName: s.CommonName}
	if s.Organization != "" {
		n.Organization = []string{s.Organization}
	}
	if s.OrganizationalUnit != "" {
		n.OrganizationalUnit = []string{s.OrganizationalUnit}
	}
	if s.Country != "" {
		n.Country = []string{s.Country}
	}
	return n
}

// Params describes one certificate to generate.
type Params struct {
	Subject Subject
	// DNSNames and EmailAddresses only apply to leaves.
	DNSNames       []string
	EmailAddresses []string
	// ClientAuth adds the clientAuth extended key usage to a leaf.
	ClientAuth bool
	// NotBefore is the start of validity. It is required: certificate
	// generation never reads the wall clock.
	NotBefore time.Time
	// Validity overrides the tier default when positive.
	Validity time.Duration
}

func (p Params) validate() error {
	if p.NotBefore.IsZero() {
		return ErrMissingNotBefore
	}
	if p.Subject.CommonName == "" {
		return ErrMissingCommonName
	}
	return nil
}

func (p Params) notAfter(years int, fallback time.Duration) time.Time {
	nb := p.NotBefore.UTC()
	switch {
	case p.Validity > 0:
		return nb.Add(p.Validity)
	case years > 0:
		return nb.AddDate(years, 0, 0)
	default:
		return nb.Add(fallback)
	}
}
