package projection

import (
	"maps"
	"slices"

	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/lifecycle"
)

// Projection is the materialized state of the log.
type Projection struct {
	keys       map[string]*lifecycle.Key
	certs      map[string]*lifecycle.Certificate
	identities map[string]*lifecycle.Identity
	tokens     map[string]*lifecycle.Token
	manifests  map[string]*lifecycle.Manifest

	causation    map[string]string   // event id -> causation id ("" for roots)
	correlations map[string][]string // correlation id -> event ids in apply order
	lastID       string
	count        int
}

// New returns an empty projection.
func New() *Projection {
	return &Projection{
		keys:         make(map[string]*lifecycle.Key),
		certs:        make(map[string]*lifecycle.Certificate),
		identities:   make(map[string]*lifecycle.Identity),
		tokens:       make(map[string]*lifecycle.Token),
		manifests:    make(map[string]*lifecycle.Manifest),
		causation:    make(map[string]string),
		correlations: make(map[string][]string),
	}
}

// Apply validates ev and returns the projection with ev folded in. On error
// it returns a *ProjectionError and p is unchanged.
func Apply(p *Projection, ev event.Event) (*Projection, error) {
	if err := p.checkEnvelope(ev); err != nil {
		return nil, err
	}
	next := p.clone()
	if err := next.applyInPlace(ev); err != nil {
		return nil, err
	}
	return next, nil
}

// ApplyAll folds events into a copy of p. The batch is all-or-nothing: on
// the first rejected event it returns the error and p is unchanged.
func ApplyAll(p *Projection, events []event.Event) (*Projection, error) {
	next := p.clone()
	for _, ev := range events {
		if err := next.checkEnvelope(ev); err != nil {
			return nil, err
		}
		if err := next.applyInPlace(ev); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// Rebuild folds events from an empty projection. It stops at the first
// rejected event.
func Rebuild(events []event.Event) (*Projection, error) {
	p := New()
	for _, ev := range events {
		if err := p.checkEnvelope(ev); err != nil {
			return nil, err
		}
		if err := p.applyInPlace(ev); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ReplayUntil folds events up to and including the one with id cutoffID.
func ReplayUntil(events []event.Event, cutoffID string) (*Projection, error) {
	idx := slices.IndexFunc(events, func(ev event.Event) bool { return ev.ID == cutoffID })
	if idx < 0 {
		return nil, ErrCutoffNotFound
	}
	return Rebuild(events[:idx+1])
}

func (p *Projection) checkEnvelope(ev event.Event) error {
	switch {
	case ev.ID == "":
		return envelopeError(ev.ID, ErrKindMissingID, "event id is empty")
	case p.Applied(ev.ID):
		return envelopeError(ev.ID, ErrKindDuplicateID, "event already applied")
	case ev.CorrelationID == "":
		return envelopeError(ev.ID, ErrKindMissingCorrelation, "correlation id is empty")
	case ev.Payload == nil:
		return envelopeError(ev.ID, ErrKindMissingPayload, "payload is nil")
	case ev.Payload.EntityID() == "":
		return envelopeError(ev.ID, ErrKindMissingPayload, "%s has no entity id", ev.Payload.Kind())
	}
	if ev.CausationID != "" {
		if !p.Applied(ev.CausationID) {
			return envelopeError(ev.ID, ErrKindUnknownCausation, "causation %s has not been applied", ev.CausationID)
		}
		if ev.CausationID >= ev.ID {
			return envelopeError(ev.ID, ErrKindCausationOrder, "causation %s does not precede the event", ev.CausationID)
		}
	}
	return nil
}

// applyInPlace runs the machine for ev and records the envelope. The caller
// has already checked the envelope.
func (p *Projection) applyInPlace(ev event.Event) error {
	if err := ev.Payload.Accept(applier{p}); err != nil {
		return &ProjectionError{EventID: ev.ID, Kind: ErrKindTransition, Err: err}
	}
	p.causation[ev.ID] = ev.CausationID
	p.correlations[ev.CorrelationID] = append(p.correlations[ev.CorrelationID], ev.ID)
	p.lastID = ev.ID
	p.count++
	return nil
}

// clone copies every index so the copy can be mutated freely. Entity values
// are shared; machines replace them rather than mutate them.
func (p *Projection) clone() *Projection {
	c := &Projection{
		keys:         maps.Clone(p.keys),
		certs:        maps.Clone(p.certs),
		identities:   maps.Clone(p.identities),
		tokens:       maps.Clone(p.tokens),
		manifests:    maps.Clone(p.manifests),
		causation:    maps.Clone(p.causation),
		correlations: make(map[string][]string, len(p.correlations)),
		lastID:       p.lastID,
		count:        p.count,
	}
	for k, v := range p.correlations {
		// Clip so appends on the copy never write into p's backing array.
		c.correlations[k] = slices.Clip(v)
	}
	return c
}
