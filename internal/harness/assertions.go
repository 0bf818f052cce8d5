package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/pki"
	"github.com/roach88/keyledger/internal/projection"
	"github.com/roach88/keyledger/internal/seed"
	"github.com/roach88/keyledger/internal/store"
)

// AssertionContext is the final state assertions run against.
type AssertionContext struct {
	Ctx        context.Context
	Store      *store.Store
	Projection *projection.Projection
	Seeds      map[string]*seed.Secret
	Certs      map[string]*pki.CertificateRecord
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// entityStatus looks up an entity's status by aggregate.
type entityStatus func(p *projection.Projection, id string) (status, successor string, ok bool)

var aggregates = map[string]entityStatus{
	string(event.AggregateKey): func(p *projection.Projection, id string) (string, string, bool) {
		k, ok := p.Key(id)
		return string(k.Status), k.SuccessorKeyID, ok
	},
	string(event.AggregateCertificate): func(p *projection.Projection, id string) (string, string, bool) {
		c, ok := p.Certificate(id)
		return string(c.Status), "", ok
	},
	string(event.AggregateIdentity): func(p *projection.Projection, id string) (string, string, bool) {
		i, ok := p.Identity(id)
		return string(i.Status), "", ok
	},
	string(event.AggregateToken): func(p *projection.Projection, id string) (string, string, bool) {
		t, ok := p.Token(id)
		return string(t.Status), "", ok
	},
	string(event.AggregateManifest): func(p *projection.Projection, id string) (string, string, bool) {
		m, ok := p.Manifest(id)
		return string(m.Status), "", ok
	},
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i+1, err))
		}
	}
	return errs
}

func evaluate(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertStatus:
		return assertStatus(a, actx)
	case AssertEventCount:
		n, err := actx.Store.Count(actx.Ctx)
		if err != nil {
			return err
		}
		if n != a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d events", a.Count), Actual: fmt.Sprintf("%d events", n)}
		}
	case AssertCorrelationCount:
		n := len(actx.Projection.Correlation(a.Correlation))
		if n != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d events under %s", a.Count, a.Correlation),
				Actual:   fmt.Sprintf("%d events", n),
			}
		}
	case AssertSameSeed, AssertDistinctSeed:
		x, y, err := seedPair(a.Seeds, actx.Seeds)
		if err != nil {
			return err
		}
		same := x.Equal(y)
		if same != (a.Type == AssertSameSeed) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("seeds %s and %s equal=%t", a.Seeds[0], a.Seeds[1], !same),
				Actual:   fmt.Sprintf("equal=%t", same),
			}
		}
	case AssertNoSeed:
		for _, name := range a.Seeds {
			if _, ok := actx.Seeds[name]; ok {
				return &AssertionError{Type: a.Type, Expected: "no seed " + name, Actual: "seed derived"}
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func assertStatus(a Assertion, actx *AssertionContext) error {
	id := a.ID
	if a.Ref != "" {
		rec, ok := actx.Certs[a.Ref]
		if !ok {
			return fmt.Errorf("unknown certificate %q", a.Ref)
		}
		id = rec.ID
	}
	lookup, ok := aggregates[a.Aggregate]
	if !ok {
		return fmt.Errorf("unknown aggregate %q", a.Aggregate)
	}
	status, successor, ok := lookup(actx.Projection, id)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s %s exists", a.Aggregate, id), Actual: "not found"}
	}
	if status != a.Status {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s %s is %s", a.Aggregate, id, a.Status), Actual: status}
	}
	if a.Successor != "" && successor != a.Successor {
		return &AssertionError{Type: a.Type, Expected: "successor " + a.Successor, Actual: "successor " + successor}
	}
	return nil
}

func seedPair(names []string, seeds map[string]*seed.Secret) (*seed.Secret, *seed.Secret, error) {
	x, ok := seeds[names[0]]
	if !ok {
		return nil, nil, fmt.Errorf("unknown seed %q", names[0])
	}
	y, ok := seeds[names[1]]
	if !ok {
		return nil, nil, fmt.Errorf("unknown seed %q", names[1])
	}
	return x, y, nil
}
