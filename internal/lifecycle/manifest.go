package lifecycle

import (
	"maps"
	"slices"

	"github.com/roach88/keyledger/internal/event"
)

// ManifestStatus is the state of an export manifest.
type ManifestStatus string

const (
	ManifestPlanning   ManifestStatus = "planning"
	ManifestGenerating ManifestStatus = "generating"
	ManifestReady      ManifestStatus = "ready"
	ManifestExported   ManifestStatus = "exported"
	ManifestVerified   ManifestStatus = "verified"
	ManifestFailed     ManifestStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s ManifestStatus) Terminal() bool { return s == ManifestVerified || s == ManifestFailed }

// Manifest is the projected state of an export.
type Manifest struct {
	ID            string            `json:"id"`
	Status        ManifestStatus    `json:"status"`
	Artifacts     []string          `json:"artifacts"`
	Generated     map[string]string `json:"generated,omitempty"` // artifact -> checksum
	Destination   string            `json:"destination,omitempty"`
	Checksum      string            `json:"checksum,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
}

// Pending lists planned artifacts not generated yet, in plan order.
func (m *Manifest) Pending() []string {
	var out []string
	for _, a := range m.Artifacts {
		if _, ok := m.Generated[a]; !ok {
			out = append(out, a)
		}
	}
	return out
}

// TransitionManifest applies p to cur.
func TransitionManifest(cur *Manifest, p event.Payload) (*Manifest, error) {
	if cur == nil {
		plan, ok := p.(event.ManifestPlanned)
		if !ok {
			return nil, reject(MachineManifest, p.EntityID(), stateNone, p, "manifest does not exist")
		}
		if len(plan.Artifacts) == 0 {
			return nil, reject(MachineManifest, plan.ManifestID, stateNone, p, "no artifacts planned")
		}
		seen := make(map[string]bool, len(plan.Artifacts))
		for _, a := range plan.Artifacts {
			if a == "" || seen[a] {
				return nil, reject(MachineManifest, plan.ManifestID, stateNone, p, "empty or duplicate artifact "+a)
			}
			seen[a] = true
		}
		return &Manifest{ID: plan.ManifestID, Status: ManifestPlanning, Artifacts: slices.Clone(plan.Artifacts)}, nil
	}

	from := string(cur.Status)
	if cur.Status.Terminal() {
		return nil, reject(MachineManifest, cur.ID, from, p, "terminal state")
	}

	next := *cur
	switch p := p.(type) {
	case event.ManifestPlanned:
		return nil, reject(MachineManifest, cur.ID, from, p, "manifest already exists")

	case event.ManifestGenerationStarted:
		if cur.Status != ManifestPlanning {
			return nil, reject(MachineManifest, cur.ID, from, p, "")
		}
		next.Status = ManifestGenerating

	case event.ManifestArtifactGenerated:
		if cur.Status != ManifestGenerating {
			return nil, reject(MachineManifest, cur.ID, from, p, "")
		}
		if !slices.Contains(cur.Artifacts, p.Artifact) {
			return nil, reject(MachineManifest, cur.ID, from, p, "artifact "+p.Artifact+" was not planned")
		}
		if _, dup := cur.Generated[p.Artifact]; dup {
			return nil, reject(MachineManifest, cur.ID, from, p, "artifact "+p.Artifact+" already generated")
		}
		next.Generated = maps.Clone(cur.Generated)
		if next.Generated == nil {
			next.Generated = make(map[string]string)
		}
		next.Generated[p.Artifact] = p.Checksum

	case event.ManifestReady:
		if cur.Status != ManifestGenerating {
			return nil, reject(MachineManifest, cur.ID, from, p, "")
		}
		if pending := cur.Pending(); len(pending) > 0 {
			return nil, reject(MachineManifest, cur.ID, from, p, "artifacts still pending: "+pending[0])
		}
		next.Status = ManifestReady

	case event.ManifestExported:
		if cur.Status != ManifestReady {
			return nil, reject(MachineManifest, cur.ID, from, p, "")
		}
		if p.Destination == "" {
			return nil, reject(MachineManifest, cur.ID, from, p, "destination is required")
		}
		next.Status = ManifestExported
		next.Destination = p.Destination

	case event.ManifestVerified:
		if cur.Status != ManifestExported {
			return nil, reject(MachineManifest, cur.ID, from, p, "")
		}
		next.Status = ManifestVerified
		next.Checksum = p.Checksum

	case event.ManifestFailed:
		next.Status = ManifestFailed
		next.FailureReason = p.Reason

	default:
		return nil, reject(MachineManifest, cur.ID, from, p, "not a manifest event")
	}
	return &next, nil
}
