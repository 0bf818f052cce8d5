package event

import "time"

// Certificate lifecycle events.

// CertificateGenerated records a freshly signed certificate.
// IssuerID is empty for roots.
type CertificateGenerated struct {
	CertID      string    `json:"cert_id"`
	KeyID       string    `json:"key_id"`
	Tier        CertTier  `json:"tier"`
	Subject     string    `json:"subject"`
	IssuerID    string    `json:"issuer_id,omitempty"`
	Serial      string    `json:"serial"`
	NotBefore   time.Time `json:"not_before"`
	NotAfter    time.Time `json:"not_after"`
	MaxPathLen  int       `json:"max_path_len"`
	KeyUsage    []string  `json:"key_usage"`
	Fingerprint string    `json:"fingerprint"`
}

type CertificateActivated struct {
	CertID string `json:"cert_id"`
}

type CertificateSuspended struct {
	CertID string `json:"cert_id"`
	Reason string `json:"reason,omitempty"`
}

type CertificateReinstated struct {
	CertID string `json:"cert_id"`
}

// CertificateRenewed links the successor certificate.
type CertificateRenewed struct {
	CertID      string `json:"cert_id"`
	SuccessorID string `json:"successor_id"`
}

type CertificateRenewalCompleted struct {
	CertID string `json:"cert_id"`
}

type CertificateExpired struct {
	CertID string `json:"cert_id"`
}

type CertificateRevoked struct {
	CertID string `json:"cert_id"`
	Reason string `json:"reason,omitempty"`
}

func (CertificateGenerated) Kind() Kind { return KindCertificateGenerated }
func (p CertificateGenerated) EntityID() string { return p.CertID }
func (p CertificateGenerated) Accept(v Visitor) error { return v.VisitCertificateGenerated(p) }
func (CertificateGenerated) payload() {}

func (CertificateActivated) Kind() Kind { return KindCertificateActivated }
func (p CertificateActivated) EntityID() string { return p.CertID }
func (p CertificateActivated) Accept(v Visitor) error { return v.VisitCertificateActivated(p) }
func (CertificateActivated) payload() {}

func (CertificateSuspended) Kind() Kind { return KindCertificateSuspended }
func (p CertificateSuspended) EntityID() string { return p.CertID }
func (p CertificateSuspended) Accept(v Visitor) error { return v.VisitCertificateSuspended(p) }
func (CertificateSuspended) payload() {}

func (CertificateReinstated) Kind() Kind { return KindCertificateReinstated }
func (p CertificateReinstated) EntityID() string { return p.CertID }
func (p CertificateReinstated) Accept(v Visitor) error { return v.VisitCertificateReinstated(p) }
func (CertificateReinstated) payload() {}

func (CertificateRenewed) Kind() Kind { return KindCertificateRenewed }
func (p CertificateRenewed) EntityID() string { return p.CertID }
func (p CertificateRenewed) Accept(v Visitor) error { return v.VisitCertificateRenewed(p) }
func (CertificateRenewed) payload() {}

func (CertificateRenewalCompleted) Kind() Kind { return KindCertificateRenewalCompleted }
func (p CertificateRenewalCompleted) EntityID() string { return p.CertID }
func (p CertificateRenewalCompleted) Accept(v Visitor) error { return v.VisitCertificateRenewalCompleted(p) }
func (CertificateRenewalCompleted) payload() {}

func (CertificateExpired) Kind() Kind { return KindCertificateExpired }
func (p CertificateExpired) EntityID() string { return p.CertID }
func (p CertificateExpired) Accept(v Visitor) error { return v.VisitCertificateExpired(p) }
func (CertificateExpired) payload() {}

func (CertificateRevoked) Kind() Kind { return KindCertificateRevoked }
func (p CertificateRevoked) EntityID() string { return p.CertID }
func (p CertificateRevoked) Accept(v Visitor) error { return v.VisitCertificateRevoked(p) }
func (CertificateRevoked) payload() {}
