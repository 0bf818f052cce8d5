package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/keyledger/internal/engine"
	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/metrics"
	"github.com/roach88/keyledger/internal/params"
	"github.com/roach88/keyledger/internal/projection"
	"github.com/roach88/keyledger/internal/seed"
	"github.com/roach88/keyledger/internal/token"
	"github.com/roach88/keyledger/internal/tracing"
)

// ErrAlreadyBootstrapped is returned when the organization's manifest is
// already in the projection.
var ErrAlreadyBootstrapped = errors.New("bootstrap: organization already bootstrapped")

// Submitter is the part of the engine bootstrap needs.
type Submitter interface {
	Submit(ctx context.Context, cmd engine.Command) ([]event.Event, error)
	Current() *projection.Projection
}

// Options configure Run.
type Options struct {
	Passphrase string
	// OrgID overrides the document's organization id as the KDF salt input.
	OrgID string
	KDF   seed.KDFParams
	// Adapter provisions tokens; nil skips provisioning.
	Adapter token.Adapter
	// SimulateTokens provisions software tokens derived from the seed when
	// Adapter is nil.
	SimulateTokens bool
	// OutDir receives the public artifacts; empty skips export.
	OutDir  string
	Metrics metrics.Recorder
}

// Result summarizes a completed bootstrap.
type Result struct {
	CorrelationID string
	Strength      seed.Strength
	Events        []event.Event
	Generated     *Generated
	// ManifestPath is set when artifacts were exported.
	ManifestPath string
}

// Run derives the master seed, generates the organization and commits it.
// Nothing is appended unless every step before the commit succeeds.
func Run(ctx context.Context, sub Submitter, p *params.Bootstrap, opts Options) (_ *Result, err error) {
	orgID := opts.OrgID
	if orgID == "" {
		orgID = p.Organization.ID
	}
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}

	ctx, span := tracing.Start(ctx, "bootstrap", "run", attribute.String("org_id", orgID))
	defer func() { tracing.End(span, err) }()

	if _, ok := sub.Current().Manifest(ManifestID(p.Organization.ID)); ok {
		return nil, ErrAlreadyBootstrapped
	}

	start := time.Now()
	master, strength, err := seed.DeriveMasterSeed(ctx, opts.Passphrase, orgID, opts.KDF)
	if err != nil {
		return nil, fmt.Errorf("derive master seed: %w", err)
	}
	defer master.Zero()
	rec.RecordKDF(time.Since(start))
	slog.Info("master seed derived",
		"org_id", orgID,
		"strength", strength.Band.String(),
		"duration", time.Since(start),
	)

	adapter := opts.Adapter
	if adapter == nil && opts.SimulateTokens {
		adapter = token.NewMemoryAdapter(master, "sim-"+p.Organization.ID)
	}

	gen, err := Generate(ctx, master, p, adapter)
	if err != nil {
		return nil, err
	}
	master.Zero()

	events, err := sub.Submit(ctx, engine.Command{Payloads: gen.Payloads})
	if err != nil {
		return nil, fmt.Errorf("commit bootstrap: %w", err)
	}
	res := &Result{
		CorrelationID: events[0].CorrelationID,
		Strength:      strength,
		Events:        events,
		Generated:     gen,
	}
	slog.Info("bootstrap committed",
		"org_id", orgID,
		"correlation_id", res.CorrelationID,
		"events", len(events),
		"artifacts", len(gen.Artifacts),
		"event", "bootstrap_committed",
	)

	if opts.OutDir == "" {
		return res, nil
	}
	if err := res.export(ctx, sub, opts.OutDir, p.Organization.ID); err != nil {
		return res, err
	}
	return res, nil
}

// export writes the artifacts, re-reads them to verify, and records both.
func (r *Result) export(ctx context.Context, sub Submitter, dir, orgID string) error {
	manifestPath, checksum, err := WriteArtifacts(dir, orgID, r.CorrelationID, r.Generated.Artifacts)
	if err != nil {
		return fmt.Errorf("export artifacts: %w", err)
	}
	if err := VerifyArtifacts(dir, r.Generated.Artifacts); err != nil {
		return fmt.Errorf("verify artifacts: %w", err)
	}
	r.ManifestPath = manifestPath

	id := r.Generated.ManifestID
	evs, err := sub.Submit(ctx, engine.Command{
		CorrelationID: r.CorrelationID,
		CausationID:   r.Events[len(r.Events)-1].ID,
		Payloads: []event.Payload{
			event.ManifestExported{ManifestID: id, Destination: dir},
			event.ManifestVerified{ManifestID: id, Checksum: checksum},
		},
	})
	if err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	r.Events = append(r.Events, evs...)
	slog.Info("artifacts exported",
		"dir", dir,
		"artifacts", len(r.Generated.Artifacts),
		"event", "manifest_exported",
	)
	return nil
}
