package event

// undoReason is recorded on compensating events that need a reason.
const undoReason = "undo"

// Inverse returns the payload that compensates p.
//
// Reversible pairs invert each other (suspend and reinstate, lock and
// unlock, rotation initiated and cancelled). Creation events compensate to
// the terminal state of their machine. Everything else, including every
// transition into a terminal state, returns *IrreversibleError.
func Inverse(p Payload) (Payload, error) {
	var b inverseBuilder
	if err := p.Accept(&b); err != nil {
		return nil, err
	}
	return b.out, nil
}

type inverseBuilder struct {
	out Payload
}

func (b *inverseBuilder) set(p Payload) error {
	b.out = p
	return nil
}

func irreversible(k Kind, reason string) error {
	return &IrreversibleError{Kind: k, Reason: reason}
}

func (b *inverseBuilder) VisitKeyGenerated(p KeyGenerated) error {
	return b.set(KeyRevoked{KeyID: p.KeyID, Reason: undoReason})
}

func (b *inverseBuilder) VisitKeyImported(p KeyImported) error {
	return b.set(KeyRevoked{KeyID: p.KeyID, Reason: undoReason})
}

func (b *inverseBuilder) VisitKeyActivated(p KeyActivated) error {
	return irreversible(p.Kind(), "activation cannot be withdrawn")
}

func (b *inverseBuilder) VisitKeyRotationInitiated(p KeyRotationInitiated) error {
	return b.set(KeyRotationCancelled{KeyID: p.KeyID, NewKeyID: p.NewKeyID, Reason: undoReason})
}

func (b *inverseBuilder) VisitKeyRotationCancelled(p KeyRotationCancelled) error {
	return b.set(KeyRotationInitiated{KeyID: p.KeyID, NewKeyID: p.NewKeyID})
}

func (b *inverseBuilder) VisitKeyRotationCompleted(p KeyRotationCompleted) error {
	return irreversible(p.Kind(), "rotation is one-way")
}

func (b *inverseBuilder) VisitKeyExpired(p KeyExpired) error {
	return irreversible(p.Kind(), "expiry is final")
}

func (b *inverseBuilder) VisitKeyRevoked(p KeyRevoked) error {
	return irreversible(p.Kind(), "revocation is terminal")
}

func (b *inverseBuilder) VisitKeyArchived(p KeyArchived) error {
	return irreversible(p.Kind(), "archival is terminal")
}

func (b *inverseBuilder) VisitCertificateGenerated(p CertificateGenerated) error {
	return b.set(CertificateRevoked{CertID: p.CertID, Reason: undoReason})
}

func (b *inverseBuilder) VisitCertificateActivated(p CertificateActivated) error {
	return irreversible(p.Kind(), "activation cannot be withdrawn")
}

func (b *inverseBuilder) VisitCertificateSuspended(p CertificateSuspended) error {
	return b.set(CertificateReinstated{CertID: p.CertID})
}

func (b *inverseBuilder) VisitCertificateReinstated(p CertificateReinstated) error {
	return b.set(CertificateSuspended{CertID: p.CertID, Reason: undoReason})
}

func (b *inverseBuilder) VisitCertificateRenewed(p CertificateRenewed) error {
	return irreversible(p.Kind(), "a renewed certificate has a successor")
}

func (b *inverseBuilder) VisitCertificateRenewalCompleted(p CertificateRenewalCompleted) error {
	return irreversible(p.Kind(), "renewal cannot be rolled back")
}

func (b *inverseBuilder) VisitCertificateExpired(p CertificateExpired) error {
	return irreversible(p.Kind(), "expiry is terminal")
}

func (b *inverseBuilder) VisitCertificateRevoked(p CertificateRevoked) error {
	return irreversible(p.Kind(), "revocation is terminal")
}

func (b *inverseBuilder) VisitIdentityCreated(p IdentityCreated) error {
	return b.set(IdentityDeleted{IdentityID: p.IdentityID})
}

func (b *inverseBuilder) VisitIdentityKeysGenerated(p IdentityKeysGenerated) error {
	return b.set(IdentityDeleted{IdentityID: p.IdentityID})
}

func (b *inverseBuilder) VisitIdentityActivated(p IdentityActivated) error {
	return irreversible(p.Kind(), "activation cannot be withdrawn")
}

func (b *inverseBuilder) VisitIdentitySuspended(p IdentitySuspended) error {
	return b.set(IdentityReactivated{IdentityID: p.IdentityID})
}

func (b *inverseBuilder) VisitIdentityReactivated(p IdentityReactivated) error {
	return b.set(IdentitySuspended{IdentityID: p.IdentityID, Reason: undoReason})
}

func (b *inverseBuilder) VisitIdentityDeleted(p IdentityDeleted) error {
	return irreversible(p.Kind(), "deletion is terminal")
}

func (b *inverseBuilder) VisitIdentityRevoked(p IdentityRevoked) error {
	return irreversible(p.Kind(), "revocation is terminal")
}

func (b *inverseBuilder) VisitTokenDetected(p TokenDetected) error {
	return b.set(TokenRetired{TokenID: p.TokenID, Reason: undoReason})
}

func (b *inverseBuilder) VisitTokenCredentialsChanged(p TokenCredentialsChanged) error {
	return irreversible(p.Kind(), "factory credentials cannot be restored")
}

func (b *inverseBuilder) VisitTokenProvisioned(p TokenProvisioned) error {
	return irreversible(p.Kind(), "provisioning cannot be withdrawn")
}

func (b *inverseBuilder) VisitKeyGeneratedInSlot(p KeyGeneratedInSlot) error {
	return irreversible(p.Kind(), "on-device keys cannot be recalled")
}

func (b *inverseBuilder) VisitSlotProvisioningFailed(p SlotProvisioningFailed) error {
	return irreversible(p.Kind(), "failures are observations")
}

func (b *inverseBuilder) VisitTokenActivated(p TokenActivated) error {
	return irreversible(p.Kind(), "activation cannot be withdrawn")
}

func (b *inverseBuilder) VisitTokenLocked(p TokenLocked) error {
	return b.set(TokenUnlocked{TokenID: p.TokenID})
}

func (b *inverseBuilder) VisitTokenUnlocked(p TokenUnlocked) error {
	return b.set(TokenLocked{TokenID: p.TokenID, Reason: undoReason})
}

func (b *inverseBuilder) VisitTokenLost(p TokenLost) error {
	return irreversible(p.Kind(), "a lost token stays lost")
}

func (b *inverseBuilder) VisitTokenRetired(p TokenRetired) error {
	return irreversible(p.Kind(), "retirement is terminal")
}

func (b *inverseBuilder) VisitManifestPlanned(p ManifestPlanned) error {
	return b.set(ManifestFailed{ManifestID: p.ManifestID, Reason: undoReason})
}

func (b *inverseBuilder) VisitManifestGenerationStarted(p ManifestGenerationStarted) error {
	return b.set(ManifestFailed{ManifestID: p.ManifestID, Reason: undoReason})
}

func (b *inverseBuilder) VisitManifestArtifactGenerated(p ManifestArtifactGenerated) error {
	return irreversible(p.Kind(), "generated artifacts cannot be recalled")
}

func (b *inverseBuilder) VisitManifestReady(p ManifestReady) error {
	return irreversible(p.Kind(), "readiness cannot be withdrawn")
}

func (b *inverseBuilder) VisitManifestExported(p ManifestExported) error {
	return irreversible(p.Kind(), "exported artifacts have left the system")
}

func (b *inverseBuilder) VisitManifestVerified(p ManifestVerified) error {
	return irreversible(p.Kind(), "verification is terminal")
}

func (b *inverseBuilder) VisitManifestFailed(p ManifestFailed) error {
	return irreversible(p.Kind(), "failure is terminal")
}
