package projection

import (
	"cmp"
	"reflect"
	"slices"

	"github.com/roach88/keyledger/internal/lifecycle"
)

// Len is the number of events applied.
func (p *Projection) Len() int { return p.count }

// LastEventID is the id of the most recently applied event.
func (p *Projection) LastEventID() string { return p.lastID }

// Applied reports whether the event id has been applied.
func (p *Projection) Applied(eventID string) bool {
	_, ok := p.causation[eventID]
	return ok
}

// Key returns a copy of the key's state.
func (p *Projection) Key(id string) (lifecycle.Key, bool) { return lookup(p.keys, id) }

// Certificate returns a copy of the certificate's state.
func (p *Projection) Certificate(id string) (lifecycle.Certificate, bool) { return lookup(p.certs, id) }

// Identity returns a copy of the identity's state.
func (p *Projection) Identity(id string) (lifecycle.Identity, bool) { return lookup(p.identities, id) }

// Token returns a copy of the token's state.
func (p *Projection) Token(id string) (lifecycle.Token, bool) { return lookup(p.tokens, id) }

// Manifest returns a copy of the manifest's state.
func (p *Projection) Manifest(id string) (lifecycle.Manifest, bool) { return lookup(p.manifests, id) }

// IssuerStatus is the lifecycle status of a certificate, for issuer
// eligibility checks.
func (p *Projection) IssuerStatus(certID string) (lifecycle.CertStatus, bool) {
	c, ok := p.certs[certID]
	if !ok {
		return "", false
	}
	return c.Status, true
}

// Keys lists every key sorted by id.
func (p *Projection) Keys() []lifecycle.Key {
	return sorted(p.keys, func(k lifecycle.Key) string { return k.ID })
}

// Certificates lists every certificate sorted by id.
func (p *Projection) Certificates() []lifecycle.Certificate {
	return sorted(p.certs, func(c lifecycle.Certificate) string { return c.ID })
}

// Identities lists every identity sorted by id.
func (p *Projection) Identities() []lifecycle.Identity {
	return sorted(p.identities, func(i lifecycle.Identity) string { return i.ID })
}

// Tokens lists every token sorted by id.
func (p *Projection) Tokens() []lifecycle.Token {
	return sorted(p.tokens, func(t lifecycle.Token) string { return t.ID })
}

// Manifests lists every manifest sorted by id.
func (p *Projection) Manifests() []lifecycle.Manifest {
	return sorted(p.manifests, func(m lifecycle.Manifest) string { return m.ID })
}

// Correlation lists the events of one correlation group in apply order.
func (p *Projection) Correlation(correlationID string) []string {
	return slices.Clone(p.correlations[correlationID])
}

// CorrelationIDs lists every correlation id, sorted.
func (p *Projection) CorrelationIDs() []string {
	ids := make([]string, 0, len(p.correlations))
	for id := range p.correlations {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// CausalChain walks causation links back from eventID and returns the chain
// root first, ending with eventID. It returns nil for unknown ids.
func (p *Projection) CausalChain(eventID string) []string {
	if !p.Applied(eventID) {
		return nil
	}
	var chain []string
	// Causation ids strictly decrease along the walk, so it terminates.
	for id := eventID; id != ""; id = p.causation[id] {
		chain = append(chain, id)
	}
	slices.Reverse(chain)
	return chain
}

// Snapshot is a serializable view of the whole projection.
type Snapshot struct {
	EventCount   int                     `json:"event_count"`
	LastEventID  string                  `json:"last_event_id,omitempty"`
	Keys         []lifecycle.Key         `json:"keys"`
	Certificates []lifecycle.Certificate `json:"certificates"`
	Identities   []lifecycle.Identity    `json:"identities"`
	Tokens       []lifecycle.Token       `json:"tokens"`
	Manifests    []lifecycle.Manifest    `json:"manifests"`
	Correlations map[string][]string     `json:"correlations"`
}

// Snapshot captures the projection.
func (p *Projection) Snapshot() Snapshot {
	corr := make(map[string][]string, len(p.correlations))
	for k, v := range p.correlations {
		corr[k] = slices.Clone(v)
	}
	return Snapshot{
		EventCount:   p.count,
		LastEventID:  p.lastID,
		Keys:         p.Keys(),
		Certificates: p.Certificates(),
		Identities:   p.Identities(),
		Tokens:       p.Tokens(),
		Manifests:    p.Manifests(),
		Correlations: corr,
	}
}

// Equal reports whether two projections hold the same state.
func (p *Projection) Equal(o *Projection) bool {
	if p == nil || o == nil {
		return p == o
	}
	return reflect.DeepEqual(p.Snapshot(), o.Snapshot()) && reflect.DeepEqual(p.causation, o.causation)
}

func lookup[T any](m map[string]*T, id string) (T, bool) {
	v, ok := m[id]
	if !ok {
		var zero T
		return zero, false
	}
	return *v, true
}

func sorted[T any](m map[string]*T, key func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, *v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(key(a), key(b)) })
	return out
}
