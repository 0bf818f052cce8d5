package event

// Visitor has one method per payload variant. Adding a variant breaks every
// Visitor implementation until it handles the new case.
type Visitor interface {
	VisitKeyGenerated(KeyGenerated) error
	VisitKeyImported(KeyImported) error
	VisitKeyActivated(KeyActivated) error
	VisitKeyRotationInitiated(KeyRotationInitiated) error
	VisitKeyRotationCancelled(KeyRotationCancelled) error
	VisitKeyRotationCompleted(KeyRotationCompleted) error
	VisitKeyExpired(KeyExpired) error
	VisitKeyRevoked(KeyRevoked) error
	VisitKeyArchived(KeyArchived) error

	VisitCertificateGenerated(CertificateGenerated) error
	VisitCertificateActivated(CertificateActivated) error
	VisitCertificateSuspended(CertificateSuspended) error
	VisitCertificateReinstated(CertificateReinstated) error
	VisitCertificateRenewed(CertificateRenewed) error
	VisitCertificateRenewalCompleted(CertificateRenewalCompleted) error
	VisitCertificateExpired(CertificateExpired) error
	VisitCertificateRevoked(CertificateRevoked) error

	VisitIdentityCreated(IdentityCreated) error
	VisitIdentityKeysGenerated(IdentityKeysGenerated) error
	VisitIdentityActivated(IdentityActivated) error
	VisitIdentitySuspended(IdentitySuspended) error
	VisitIdentityReactivated(IdentityReactivated) error
	VisitIdentityDeleted(IdentityDeleted) error
	VisitIdentityRevoked(IdentityRevoked) error

	VisitTokenDetected(TokenDetected) error
	VisitTokenCredentialsChanged(TokenCredentialsChanged) error
	VisitTokenProvisioned(TokenProvisioned) error
	VisitKeyGeneratedInSlot(KeyGeneratedInSlot) error
	VisitSlotProvisioningFailed(SlotProvisioningFailed) error
	VisitTokenActivated(TokenActivated) error
	VisitTokenLocked(TokenLocked) error
	VisitTokenUnlocked(TokenUnlocked) error
	VisitTokenLost(TokenLost) error
	VisitTokenRetired(TokenRetired) error

	VisitManifestPlanned(ManifestPlanned) error
	VisitManifestGenerationStarted(ManifestGenerationStarted) error
	VisitManifestArtifactGenerated(ManifestArtifactGenerated) error
	VisitManifestReady(ManifestReady) error
	VisitManifestExported(ManifestExported) error
	VisitManifestVerified(ManifestVerified) error
	VisitManifestFailed(ManifestFailed) error
}
