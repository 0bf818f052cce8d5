package event

// Export manifest events.

// ManifestPlanned lists every artifact the export will contain.
type ManifestPlanned struct {
	ManifestID string   `json:"manifest_id"`
	Artifacts  []string `json:"artifacts"`
}

type ManifestGenerationStarted struct {
	ManifestID string `json:"manifest_id"`
}

type ManifestArtifactGenerated struct {
	ManifestID string `json:"manifest_id"`
	Artifact   string `json:"artifact"`
	Checksum   string `json:"checksum,omitempty"`
}

type ManifestReady struct {
	ManifestID string `json:"manifest_id"`
}

type ManifestExported struct {
	ManifestID  string `json:"manifest_id"`
	Destination string `json:"destination"`
}

type ManifestVerified struct {
	ManifestID string `json:"manifest_id"`
	Checksum   string `json:"checksum"`
}

type ManifestFailed struct {
	ManifestID string `json:"manifest_id"`
	Reason     string `json:"reason"`
}

func (ManifestPlanned) Kind() Kind { return KindManifestPlanned }
func (p ManifestPlanned) EntityID() string { return p.ManifestID }
func (p ManifestPlanned) Accept(v Visitor) error { return v.VisitManifestPlanned(p) }
func (ManifestPlanned) payload() {}

func (ManifestGenerationStarted) Kind() Kind { return KindManifestGenerationStarted }
func (p ManifestGenerationStarted) EntityID() string { return p.ManifestID }
func (p ManifestGenerationStarted) Accept(v Visitor) error { return v.VisitManifestGenerationStarted(p) }
func (ManifestGenerationStarted) payload() {}

func (ManifestArtifactGenerated) Kind() Kind { return KindManifestArtifactGenerated }
func (p ManifestArtifactGenerated) EntityID() string { return p.ManifestID }
func (p ManifestArtifactGenerated) Accept(v Visitor) error { return v.VisitManifestArtifactGenerated(p) }
func (ManifestArtifactGenerated) payload() {}

func (ManifestReady) Kind() Kind { return KindManifestReady }
func (p ManifestReady) EntityID() string { return p.ManifestID }
func (p ManifestReady) Accept(v Visitor) error { return v.VisitManifestReady(p) }
func (ManifestReady) payload() {}

func (ManifestExported) Kind() Kind { return KindManifestExported }
func (p ManifestExported) EntityID() string { return p.ManifestID }
func (p ManifestExported) Accept(v Visitor) error { return v.VisitManifestExported(p) }
func (ManifestExported) payload() {}

func (ManifestVerified) Kind() Kind { return KindManifestVerified }
func (p ManifestVerified) EntityID() string { return p.ManifestID }
func (p ManifestVerified) Accept(v Visitor) error { return v.VisitManifestVerified(p) }
func (ManifestVerified) payload() {}

func (ManifestFailed) Kind() Kind { return KindManifestFailed }
func (p ManifestFailed) EntityID() string { return p.ManifestID }
func (p ManifestFailed) Accept(v Visitor) error { return v.VisitManifestFailed(p) }
func (ManifestFailed) payload() {}
