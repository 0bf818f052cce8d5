package lifecycle

import (
	"slices"
	"time"

	"github.com/roach88/keyledger/internal/event"
)

// CertStatus is the state of a certificate.
type CertStatus string

const (
	CertPending   CertStatus = "pending"
	CertActive    CertStatus = "active"
	CertSuspended CertStatus = "suspended"
	CertRenewed   CertStatus = "renewed"
	CertExpired   CertStatus = "expired"
	CertRevoked   CertStatus = "revoked"
)

// Terminal reports whether no further transition is possible.
func (s CertStatus) Terminal() bool { return s == CertExpired || s == CertRevoked }

// SigningEligible reports whether a certificate in this state may issue.
func (s CertStatus) SigningEligible() bool { return s == CertActive }

// Certificate is the projected state of one certificate.
type Certificate struct {
	ID          string         `json:"id"`
	Status      CertStatus     `json:"status"`
	Tier        event.CertTier `json:"tier"`
	KeyID       string         `json:"key_id"`
	Subject     string         `json:"subject"`
	IssuerID    string         `json:"issuer_id,omitempty"`
	Serial      string         `json:"serial"`
	NotBefore   time.Time      `json:"not_before"`
	NotAfter    time.Time      `json:"not_after"`
	MaxPathLen  int            `json:"max_path_len"`
	KeyUsage    []string       `json:"key_usage,omitempty"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	SuccessorID string         `json:"successor_id,omitempty"`
}

// issuerTier is the tier allowed to sign each tier.
var issuerTier = map[event.CertTier]event.CertTier{
	event.TierIntermediate: event.TierRoot,
	event.TierLeaf:         event.TierIntermediate,
}

// TransitionCertificate applies p to cur. For CertificateGenerated, issuer is
// the current state of the referenced issuer (nil for roots or when unknown);
// other payloads ignore it.
func TransitionCertificate(cur *Certificate, p event.Payload, issuer *Certificate) (*Certificate, error) {
	if cur == nil {
		gen, ok := p.(event.CertificateGenerated)
		if !ok {
			return nil, reject(MachineCertificate, p.EntityID(), stateNone, p, "certificate does not exist")
		}
		if err := checkIssuer(gen, issuer); err != nil {
			return nil, err
		}
		return &Certificate{
			ID:          gen.CertID,
			Status:      CertPending,
			Tier:        gen.Tier,
			KeyID:       gen.KeyID,
			Subject:     gen.Subject,
			IssuerID:    gen.IssuerID,
			Serial:      gen.Serial,
			NotBefore:   gen.NotBefore,
			NotAfter:    gen.NotAfter,
			MaxPathLen:  gen.MaxPathLen,
			KeyUsage:    slices.Clone(gen.KeyUsage),
			Fingerprint: gen.Fingerprint,
		}, nil
	}

	from := string(cur.Status)
	if cur.Status.Terminal() {
		return nil, reject(MachineCertificate, cur.ID, from, p, "terminal state")
	}

	next := *cur
	switch p := p.(type) {
	case event.CertificateGenerated:
		return nil, reject(MachineCertificate, cur.ID, from, p, "certificate already exists")

	case event.CertificateActivated:
		if cur.Status != CertPending {
			return nil, reject(MachineCertificate, cur.ID, from, p, "")
		}
		next.Status = CertActive

	case event.CertificateSuspended:
		if cur.Status != CertActive {
			return nil, reject(MachineCertificate, cur.ID, from, p, "")
		}
		next.Status = CertSuspended

	case event.CertificateReinstated:
		if cur.Status != CertSuspended {
			return nil, reject(MachineCertificate, cur.ID, from, p, "")
		}
		next.Status = CertActive

	case event.CertificateRenewed:
		if cur.Status != CertActive {
			return nil, reject(MachineCertificate, cur.ID, from, p, "")
		}
		if p.SuccessorID == "" || p.SuccessorID == cur.ID {
			return nil, reject(MachineCertificate, cur.ID, from, p, "renewal needs a distinct successor")
		}
		next.Status = CertRenewed
		next.SuccessorID = p.SuccessorID

	case event.CertificateRenewalCompleted:
		if cur.Status != CertRenewed {
			return nil, reject(MachineCertificate, cur.ID, from, p, "")
		}
		next.Status = CertActive

	case event.CertificateExpired:
		if cur.Status == CertPending {
			return nil, reject(MachineCertificate, cur.ID, from, p, "")
		}
		next.Status = CertExpired

	case event.CertificateRevoked:
		next.Status = CertRevoked

	default:
		return nil, reject(MachineCertificate, cur.ID, from, p, "not a certificate event")
	}
	return &next, nil
}

func checkIssuer(gen event.CertificateGenerated, issuer *Certificate) error {
	switch gen.Tier {
	case event.TierRoot:
		if gen.IssuerID != "" {
			return reject(MachineCertificate, gen.CertID, stateNone, gen, "root certificates are self-signed")
		}
		return nil
	case event.TierIntermediate, event.TierLeaf:
	default:
		return reject(MachineCertificate, gen.CertID, stateNone, gen, "unknown tier "+string(gen.Tier))
	}

	if gen.IssuerID == "" || issuer == nil || issuer.ID != gen.IssuerID {
		return reject(MachineCertificate, gen.CertID, stateNone, gen, "issuer "+gen.IssuerID+" does not exist")
	}
	if want := issuerTier[gen.Tier]; issuer.Tier != want {
		return reject(MachineCertificate, gen.CertID, stateNone, gen,
			string(gen.Tier)+" must be issued by a "+string(want)+", not a "+string(issuer.Tier))
	}
	if !issuer.Status.SigningEligible() {
		return reject(MachineCertificate, gen.CertID, stateNone, gen, "issuer "+issuer.ID+" is "+string(issuer.Status))
	}
	return nil
}
