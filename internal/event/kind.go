package event

// Kind names a payload variant. It is the discriminator stored with every event.
type Kind string

const (
	KindKeyGenerated         Kind = "KeyGenerated"
	KindKeyImported          Kind = "KeyImported"
	KindKeyActivated         Kind = "KeyActivated"
	KindKeyRotationInitiated Kind = "KeyRotationInitiated"
	KindKeyRotationCancelled Kind = "KeyRotationCancelled"
	KindKeyRotationCompleted Kind = "KeyRotationCompleted"
	KindKeyExpired           Kind = "KeyExpired"
	KindKeyRevoked           Kind = "KeyRevoked"
	KindKeyArchived          Kind = "KeyArchived"

	KindCertificateGenerated        Kind = "CertificateGenerated"
	KindCertificateActivated        Kind = "CertificateActivated"
	KindCertificateSuspended        Kind = "CertificateSuspended"
	KindCertificateReinstated       Kind = "CertificateReinstated"
	KindCertificateRenewed          Kind = "CertificateRenewed"
	KindCertificateRenewalCompleted Kind = "CertificateRenewalCompleted"
	KindCertificateExpired          Kind = "CertificateExpired"
	KindCertificateRevoked          Kind = "CertificateRevoked"

	KindIdentityCreated       Kind = "IdentityCreated"
	KindIdentityKeysGenerated Kind = "IdentityKeysGenerated"
	KindIdentityActivated     Kind = "IdentityActivated"
	KindIdentitySuspended     Kind = "IdentitySuspended"
	KindIdentityReactivated   Kind = "IdentityReactivated"
	KindIdentityDeleted       Kind = "IdentityDeleted"
	KindIdentityRevoked       Kind = "IdentityRevoked"

	KindTokenDetected           Kind = "TokenDetected"
	KindTokenCredentialsChanged Kind = "TokenCredentialsChanged"
	KindTokenProvisioned        Kind = "TokenProvisioned"
	KindKeyGeneratedInSlot      Kind = "KeyGeneratedInSlot"
	KindSlotProvisioningFailed  Kind = "SlotProvisioningFailed"
	KindTokenActivated          Kind = "TokenActivated"
	KindTokenLocked             Kind = "TokenLocked"
	KindTokenUnlocked           Kind = "TokenUnlocked"
	KindTokenLost               Kind = "TokenLost"
	KindTokenRetired            Kind = "TokenRetired"

	KindManifestPlanned           Kind = "ManifestPlanned"
	KindManifestGenerationStarted Kind = "ManifestGenerationStarted"
	KindManifestArtifactGenerated Kind = "ManifestArtifactGenerated"
	KindManifestReady             Kind = "ManifestReady"
	KindManifestExported          Kind = "ManifestExported"
	KindManifestVerified          Kind = "ManifestVerified"
	KindManifestFailed            Kind = "ManifestFailed"
)

// kindAggregates maps every kind to the aggregate it mutates.
var kindAggregates = map[Kind]Aggregate{
	KindKeyGenerated:                AggregateKey,
	KindKeyImported:                 AggregateKey,
	KindKeyActivated:                AggregateKey,
	KindKeyRotationInitiated:        AggregateKey,
	KindKeyRotationCancelled:        AggregateKey,
	KindKeyRotationCompleted:        AggregateKey,
	KindKeyExpired:                  AggregateKey,
	KindKeyRevoked:                  AggregateKey,
	KindKeyArchived:                 AggregateKey,
	KindCertificateGenerated:        AggregateCertificate,
	KindCertificateActivated:        AggregateCertificate,
	KindCertificateSuspended:        AggregateCertificate,
	KindCertificateReinstated:       AggregateCertificate,
	KindCertificateRenewed:          AggregateCertificate,
	KindCertificateRenewalCompleted: AggregateCertificate,
	KindCertificateExpired:          AggregateCertificate,
	KindCertificateRevoked:          AggregateCertificate,
	KindIdentityCreated:             AggregateIdentity,
	KindIdentityKeysGenerated:       AggregateIdentity,
	KindIdentityActivated:           AggregateIdentity,
	KindIdentitySuspended:           AggregateIdentity,
	KindIdentityReactivated:         AggregateIdentity,
	KindIdentityDeleted:             AggregateIdentity,
	KindIdentityRevoked:             AggregateIdentity,
	KindTokenDetected:               AggregateToken,
	KindTokenCredentialsChanged:     AggregateToken,
	KindTokenProvisioned:            AggregateToken,
	KindKeyGeneratedInSlot:          AggregateToken,
	KindSlotProvisioningFailed:      AggregateToken,
	KindTokenActivated:              AggregateToken,
	KindTokenLocked:                 AggregateToken,
	KindTokenUnlocked:               AggregateToken,
	KindTokenLost:                   AggregateToken,
	KindTokenRetired:                AggregateToken,
	KindManifestPlanned:             AggregateManifest,
	KindManifestGenerationStarted:   AggregateManifest,
	KindManifestArtifactGenerated:   AggregateManifest,
	KindManifestReady:               AggregateManifest,
	KindManifestExported:            AggregateManifest,
	KindManifestVerified:            AggregateManifest,
	KindManifestFailed:              AggregateManifest,
}

// decoders maps every kind to its payload decoder.
var decoders = map[Kind]func([]byte) (Payload, error){
	KindKeyGenerated:                decodeAs[KeyGenerated],
	KindKeyImported:                 decodeAs[KeyImported],
	KindKeyActivated:                decodeAs[KeyActivated],
	KindKeyRotationInitiated:        decodeAs[KeyRotationInitiated],
	KindKeyRotationCancelled:        decodeAs[KeyRotationCancelled],
	KindKeyRotationCompleted:        decodeAs[KeyRotationCompleted],
	KindKeyExpired:                  decodeAs[KeyExpired],
	KindKeyRevoked:                  decodeAs[KeyRevoked],
	KindKeyArchived:                 decodeAs[KeyArchived],
	KindCertificateGenerated:        decodeAs[CertificateGenerated],
	KindCertificateActivated:        decodeAs[CertificateActivated],
	KindCertificateSuspended:        decodeAs[CertificateSuspended],
	KindCertificateReinstated:       decodeAs[CertificateReinstated],
	KindCertificateRenewed:          decodeAs[CertificateRenewed],
	KindCertificateRenewalCompleted: decodeAs[CertificateRenewalCompleted],
	KindCertificateExpired:          decodeAs[CertificateExpired],
	KindCertificateRevoked:          decodeAs[CertificateRevoked],
	KindIdentityCreated:             decodeAs[IdentityCreated],
	KindIdentityKeysGenerated:       decodeAs[IdentityKeysGenerated],
	KindIdentityActivated:           decodeAs[IdentityActivated],
	KindIdentitySuspended:           decodeAs[IdentitySuspended],
	KindIdentityReactivated:         decodeAs[IdentityReactivated],
	KindIdentityDeleted:             decodeAs[IdentityDeleted],
	KindIdentityRevoked:             decodeAs[IdentityRevoked],
	KindTokenDetected:               decodeAs[TokenDetected],
	KindTokenCredentialsChanged:     decodeAs[TokenCredentialsChanged],
	KindTokenProvisioned:            decodeAs[TokenProvisioned],
	KindKeyGeneratedInSlot:          decodeAs[KeyGeneratedInSlot],
	KindSlotProvisioningFailed:      decodeAs[SlotProvisioningFailed],
	KindTokenActivated:              decodeAs[TokenActivated],
	KindTokenLocked:                 decodeAs[TokenLocked],
	KindTokenUnlocked:               decodeAs[TokenUnlocked],
	KindTokenLost:                   decodeAs[TokenLost],
	KindTokenRetired:                decodeAs[TokenRetired],
	KindManifestPlanned:             decodeAs[ManifestPlanned],
	KindManifestGenerationStarted:   decodeAs[ManifestGenerationStarted],
	KindManifestArtifactGenerated:   decodeAs[ManifestArtifactGenerated],
	KindManifestReady:               decodeAs[ManifestReady],
	KindManifestExported:            decodeAs[ManifestExported],
	KindManifestVerified:            decodeAs[ManifestVerified],
	KindManifestFailed:              decodeAs[ManifestFailed],
}

