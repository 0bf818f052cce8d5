package bootstrap

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/roach88/keyledger/internal/busid"
	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/lifecycle"
	"github.com/roach88/keyledger/internal/params"
	"github.com/roach88/keyledger/internal/pki"
	"github.com/roach88/keyledger/internal/seed"
	"github.com/roach88/keyledger/internal/token"
)

// Purposes recorded on KeyGenerated for certificate keys.
const (
	PurposeRootCA         = "root_ca"
	PurposeIntermediateCA = "intermediate_ca"
	PurposeServerTLS      = "server_tls"
	PurposePersonCert     = "person_certificate"
)

// Artifact is one public file produced by a bootstrap.
type Artifact struct {
	Name     string `json:"name"`
	Checksum string `json:"sha256"`
	Data     []byte `json:"-"`
}

func newArtifact(name string, data []byte) Artifact {
	sum := sha256.Sum256(data)
	return Artifact{Name: name, Checksum: hex.EncodeToString(sum[:]), Data: data}
}

// Generated is everything derived from one seed and parameter document.
type Generated struct {
	Payloads   []event.Payload
	Artifacts  []Artifact
	RootID     string
	ManifestID string
	Plans      []token.Plan
}

// ManifestID names the export manifest of an organization.
func ManifestID(orgID string) string { return "manifest:" + orgID }

// generator accumulates payloads and artifacts in emission order.
type generator struct {
	master  *seed.Secret
	p       *params.Bootstrap
	adapter token.Adapter
	out     Generated
}

// Generate derives the organization from master. With a non-nil adapter
// each person's token is provisioned and the device's reports are included.
// master is not zeroed; every derived secret is.
func Generate(ctx context.Context, master *seed.Secret, p *params.Bootstrap, adapter token.Adapter) (*Generated, error) {
	g := &generator{master: master, p: p, adapter: adapter}
	g.out.ManifestID = ManifestID(p.Organization.ID)

	root, err := g.certificate(PurposeRootCA, "", func(s *seed.Secret) (*pki.CertificateRecord, error) {
		return pki.GenerateRootCA(s, pki.Params{Subject: g.subject(p.Organization.Name+" Root CA", ""), NotBefore: p.NotBefore})
	}, "pki", "root")
	if err != nil {
		return nil, err
	}
	defer root.Key.Zero()
	g.out.RootID = root.ID
	g.artifact("pki/root.pem", root.PEM())

	intermediates := make(map[string]*pki.CertificateRecord, len(p.Units))
	defer func() {
		for _, r := range intermediates {
			r.Key.Zero()
		}
	}()
	for _, u := range p.Units {
		issuer := root.Issuer(lifecycle.CertActive)
		rec, err := g.certificate(PurposeIntermediateCA, "", func(s *seed.Secret) (*pki.CertificateRecord, error) {
			return pki.GenerateIntermediateCA(s, pki.Params{
				Subject:   g.subject(p.Organization.Name+" "+u.Name+" Intermediate CA", u.Name),
				NotBefore: p.NotBefore,
			}, issuer)
		}, "pki", "intermediate", u.Name)
		if err != nil {
			return nil, err
		}
		intermediates[u.Name] = rec
		g.artifact("pki/intermediate/"+u.Name+".pem", rec.PEM())
	}

	for _, srv := range p.Servers {
		issuer := intermediates[srv.Unit].Issuer(lifecycle.CertActive)
		rec, err := g.certificate(PurposeServerTLS, "", func(s *seed.Secret) (*pki.CertificateRecord, error) {
			return pki.GenerateLeafCertificate(s, pki.Params{
				Subject:   g.subject(srv.DNS[0], srv.Unit),
				DNSNames:  srv.DNS,
				NotBefore: p.NotBefore,
			}, issuer)
		}, "pki", "server", srv.Name)
		if err != nil {
			return nil, err
		}
		rec.Key.Zero()
		g.artifact("pki/server/"+srv.Name+".pem", rec.PEM())
	}

	for _, up := range p.People() {
		if err := g.person(ctx, up, intermediates[up.Unit]); err != nil {
			return nil, err
		}
	}

	if err := g.identities(); err != nil {
		return nil, err
	}

	g.manifest()
	return &g.out, nil
}

func (g *generator) subject(cn, unit string) pki.Subject {
	return pki.Subject{
		CommonName:         cn,
		Organization:       g.p.Organization.Name,
		OrganizationalUnit: unit,
		Country:            g.p.Organization.Country,
	}
}

func (g *generator) emit(p ...event.Payload) {
	g.out.Payloads = append(g.out.Payloads, p...)
}

func (g *generator) artifact(name string, data []byte) {
	g.out.Artifacts = append(g.out.Artifacts, newArtifact(name, data))
}

// certificate derives a secret at labels, runs gen and records the key and
// certificate as generated and active.
func (g *generator) certificate(purpose, owner string, gen func(*seed.Secret) (*pki.CertificateRecord, error), labels ...string) (*pki.CertificateRecord, error) {
	s := seed.DerivePath(g.master, labels...)
	defer s.Zero()

	rec, err := gen(s)
	if err != nil {
		return nil, fmt.Errorf("generate %s certificate %s: %w", purpose, s.Path(), err)
	}
	g.emit(
		keyGenerated(rec.Key, purpose, owner, s.Path()),
		event.KeyActivated{KeyID: rec.Key.ID},
		rec.GeneratedEvent(),
		event.CertificateActivated{CertID: rec.ID},
	)
	slog.Debug("certificate generated",
		"cert_id", rec.ID,
		"tier", string(rec.Tier),
		"subject", rec.Subject,
	)
	return rec, nil
}

func keyGenerated(k seed.KeyMaterial, purpose, owner, path string) event.KeyGenerated {
	return event.KeyGenerated{
		KeyID:          k.ID,
		Algorithm:      k.Algorithm,
		Purpose:        purpose,
		OwnerID:        owner,
		DerivationPath: path,
		PublicKey:      hex.EncodeToString(k.Public),
	}
}

// person issues the person's certificate and slot keys, then provisions the
// token when an adapter is configured.
func (g *generator) person(ctx context.Context, up params.UnitPerson, issuer *pki.CertificateRecord) error {
	rec, err := g.certificate(PurposePersonCert, up.ID, func(s *seed.Secret) (*pki.CertificateRecord, error) {
		pp := pki.Params{
			Subject:    g.subject(up.Name, up.Unit),
			ClientAuth: true,
			NotBefore:  g.p.NotBefore,
		}
		if up.Email != "" {
			pp.EmailAddresses = []string{up.Email}
		}
		return pki.GenerateLeafCertificate(s, pp, issuer.Issuer(lifecycle.CertActive))
	}, "pki", "person", up.ID)
	if err != nil {
		return err
	}
	rec.Key.Zero()
	g.artifact("pki/person/"+up.ID+".pem", rec.PEM())

	plan, err := token.PlanSlotAllocation(up.ID, token.Purpose(up.TokenPurpose))
	if err != nil {
		return fmt.Errorf("plan token for %s: %w", up.ID, err)
	}
	g.out.Plans = append(g.out.Plans, plan)

	for _, a := range plan.Assignments {
		s := seed.DeriveChild(g.master, a.DerivationPath)
		key := seed.GenerateKeypair(s)
		s.Zero()
		g.emit(keyGenerated(key, string(a.Usage), up.ID, a.DerivationPath), event.KeyActivated{KeyID: key.ID})
		key.Zero()
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token plan for %s: %w", up.ID, err)
	}
	g.artifact("tokens/"+up.ID+".json", append(data, '\n'))

	if g.adapter == nil {
		return nil
	}
	reports, err := token.Provision(ctx, g.adapter, plan)
	if err != nil {
		return fmt.Errorf("provision token for %s: %w", up.ID, err)
	}
	g.emit(reports...)
	return nil
}

// identities derives the bus identity triple, parents first, activating
// each identity right after its keys so children find an active owner.
func (g *generator) identities() error {
	m := busid.UnitMapping{Organization: g.p.Organization.ID}
	for _, u := range g.p.Units {
		unit := busid.Unit{Name: u.Name}
		for _, person := range u.People {
			unit.People = append(unit.People, person.ID)
		}
		m.Units = append(m.Units, unit)
	}

	triple, err := busid.GenerateIdentityTriple(g.master, m, g.p.NotBefore)
	if err != nil {
		return fmt.Errorf("generate bus identities: %w", err)
	}
	defer triple.Wipe()

	for _, id := range triple.All() {
		payloads, err := id.Events()
		if err != nil {
			return fmt.Errorf("identity %s: %w", id.ID, err)
		}
		g.emit(payloads...)
		g.emit(event.IdentityActivated{IdentityID: id.ID})
		g.artifact(identityArtifact(id), []byte(id.ID+"\n"))
	}
	return nil
}

func identityArtifact(id *busid.Identity) string {
	switch id.Role {
	case event.RoleOperator:
		return "nats/operator.pub"
	case event.RoleAccount:
		return "nats/account/" + id.Name + ".pub"
	default:
		return "nats/user/" + id.Name + ".pub"
	}
}

// manifest records every artifact as planned and generated.
func (g *generator) manifest() {
	names := make([]string, len(g.out.Artifacts))
	for i, a := range g.out.Artifacts {
		names[i] = a.Name
	}
	id := g.out.ManifestID
	g.emit(
		event.ManifestPlanned{ManifestID: id, Artifacts: names},
		event.ManifestGenerationStarted{ManifestID: id},
	)
	for _, a := range g.out.Artifacts {
		g.emit(event.ManifestArtifactGenerated{ManifestID: id, Artifact: a.Name, Checksum: a.Checksum})
	}
	g.emit(event.ManifestReady{ManifestID: id})
}
