package projection

import (
	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/lifecycle"
)

// applier routes each variant to its state machine and stores the result.
type applier struct {
	p *Projection
}

func (a applier) key(pl event.Payload) error {
	next, err := lifecycle.TransitionKey(a.p.keys[pl.EntityID()], pl)
	if err != nil {
		return err
	}
	a.p.keys[next.ID] = next
	return nil
}

func (a applier) certificate(pl event.Payload, issuerID string) error {
	next, err := lifecycle.TransitionCertificate(a.p.certs[pl.EntityID()], pl, a.p.certs[issuerID])
	if err != nil {
		return err
	}
	a.p.certs[next.ID] = next
	return nil
}

// identity resolves the owner from the payload on creation and from the
// stored state afterwards.
func (a applier) identity(pl event.Payload, parentID string) error {
	cur := a.p.identities[pl.EntityID()]
	if cur != nil {
		parentID = cur.ParentID
	}
	next, err := lifecycle.TransitionIdentity(cur, pl, a.p.identities[parentID])
	if err != nil {
		return err
	}
	a.p.identities[next.ID] = next
	return nil
}

func (a applier) token(pl event.Payload) error {
	next, err := lifecycle.TransitionToken(a.p.tokens[pl.EntityID()], pl)
	if err != nil {
		return err
	}
	a.p.tokens[next.ID] = next
	return nil
}

func (a applier) manifest(pl event.Payload) error {
	next, err := lifecycle.TransitionManifest(a.p.manifests[pl.EntityID()], pl)
	if err != nil {
		return err
	}
	a.p.manifests[next.ID] = next
	return nil
}

func (a applier) VisitKeyGenerated(p event.KeyGenerated) error { return a.key(p) }
func (a applier) VisitKeyImported(p event.KeyImported) error { return a.key(p) }
func (a applier) VisitKeyActivated(p event.KeyActivated) error { return a.key(p) }
func (a applier) VisitKeyRotationInitiated(p event.KeyRotationInitiated) error { return a.key(p) }
func (a applier) VisitKeyRotationCancelled(p event.KeyRotationCancelled) error { return a.key(p) }
func (a applier) VisitKeyRotationCompleted(p event.KeyRotationCompleted) error { return a.key(p) }
func (a applier) VisitKeyExpired(p event.KeyExpired) error { return a.key(p) }
func (a applier) VisitKeyRevoked(p event.KeyRevoked) error { return a.key(p) }
func (a applier) VisitKeyArchived(p event.KeyArchived) error { return a.key(p) }
func (a applier) VisitCertificateGenerated(p event.CertificateGenerated) error { return a.certificate(p, p.IssuerID) }
func (a applier) VisitCertificateActivated(p event.CertificateActivated) error { return a.certificate(p, "") }
func (a applier) VisitCertificateSuspended(p event.CertificateSuspended) error { return a.certificate(p, "") }
func (a applier) VisitCertificateReinstated(p event.CertificateReinstated) error { return a.certificate(p, "") }
func (a applier) VisitCertificateRenewed(p event.CertificateRenewed) error { return a.certificate(p, "") }
func (a applier) VisitCertificateRenewalCompleted(p event.CertificateRenewalCompleted) error { return a.certificate(p, "") }
func (a applier) VisitCertificateExpired(p event.CertificateExpired) error { return a.certificate(p, "") }
func (a applier) VisitCertificateRevoked(p event.CertificateRevoked) error { return a.certificate(p, "") }
func (a applier) VisitIdentityCreated(p event.IdentityCreated) error { return a.identity(p, p.ParentID) }
func (a applier) VisitIdentityKeysGenerated(p event.IdentityKeysGenerated) error { return a.identity(p, "") }
func (a applier) VisitIdentityActivated(p event.IdentityActivated) error { return a.identity(p, "") }
func (a applier) VisitIdentitySuspended(p event.IdentitySuspended) error { return a.identity(p, "") }
func (a applier) VisitIdentityReactivated(p event.IdentityReactivated) error { return a.identity(p, "") }
func (a applier) VisitIdentityDeleted(p event.IdentityDeleted) error { return a.identity(p, "") }
func (a applier) VisitIdentityRevoked(p event.IdentityRevoked) error { return a.identity(p, "") }
func (a applier) VisitTokenDetected(p event.TokenDetected) error { return a.token(p) }
func (a applier) VisitTokenCredentialsChanged(p event.TokenCredentialsChanged) error { return a.token(p) }
func (a applier) VisitTokenProvisioned(p event.TokenProvisioned) error { return a.token(p) }
func (a applier) VisitKeyGeneratedInSlot(p event.KeyGeneratedInSlot) error { return a.token(p) }
func (a applier) VisitSlotProvisioningFailed(p event.SlotProvisioningFailed) error { return a.token(p) }
func (a applier) VisitTokenActivated(p event.TokenActivated) error { return a.token(p) }
func (a applier) VisitTokenLocked(p event.TokenLocked) error { return a.token(p) }
func (a applier) VisitTokenUnlocked(p event.TokenUnlocked) error { return a.token(p) }
func (a applier) VisitTokenLost(p event.TokenLost) error { return a.token(p) }
func (a applier) VisitTokenRetired(p event.TokenRetired) error { return a.token(p) }
func (a applier) VisitManifestPlanned(p event.ManifestPlanned) error { return a.manifest(p) }
func (a applier) VisitManifestGenerationStarted(p event.ManifestGenerationStarted) error { return a.manifest(p) }
func (a applier) VisitManifestArtifactGenerated(p event.ManifestArtifactGenerated) error { return a.manifest(p) }
func (a applier) VisitManifestReady(p event.ManifestReady) error { return a.manifest(p) }
func (a applier) VisitManifestExported(p event.ManifestExported) error { return a.manifest(p) }
func (a applier) VisitManifestVerified(p event.ManifestVerified) error { return a.manifest(p) }
func (a applier) VisitManifestFailed(p event.ManifestFailed) error { return a.manifest(p) }
