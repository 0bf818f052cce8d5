package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/keyledger/internal/engine"
	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/pki"
	"github.com/roach88/keyledger/internal/projection"
	"github.com/roach88/keyledger/internal/seed"
	"github.com/roach88/keyledger/internal/store"
	"github.com/roach88/keyledger/internal/testutil"
)

// Outcome codes for failures that carry no engine code.
const (
	OutcomeWeakPassphrase    = "WEAK_PASSPHRASE"
	OutcomeIssuerNotEligible = "ISSUER_NOT_ELIGIBLE"
	OutcomeNondeterministic  = "NONDETERMINISTIC"
	OutcomeChainInvalid      = "CHAIN_INVALID"
	OutcomeError             = "ERROR"
)

// Harness executes one scenario against a fresh engine.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger

	scenario *Scenario
	seeds    map[string]*seed.Secret
	certs    map[string]*pki.CertificateRecord
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with sequential event
// ids and a stepping clock, so the trace is reproducible.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	eng := engine.New(st,
		engine.WithIDGenerator(testutil.NewSequenceGenerator("ev")),
		engine.WithClock(testutil.NewDeterministicClock()),
	)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- eng.Run(runCtx) }()
	defer func() {
		cancel()
		<-done
	}()

	h := &Harness{
		store:    st,
		engine:   eng,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		scenario: scenario,
		seeds:    make(map[string]*seed.Secret),
		certs:    make(map[string]*pki.CertificateRecord),
	}
	defer h.wipe()

	result := NewResult()
	for i, step := range scenario.Steps {
		ev, err := h.execute(ctx, step)
		if err != nil && !isOutcome(err) {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		ev.Step = i + 1
		ev.Op = step.Op
		ev.Outcome = outcomeOf(err)
		result.addTrace(ev)

		want := step.Expect
		if want == "" {
			want = OutcomeOK
		}
		if ev.Outcome != want {
			msg := fmt.Sprintf("step %d (%s): expected outcome %s, got %s", ev.Step, step.Op, want, ev.Outcome)
			if err != nil {
				msg += ": " + err.Error()
			}
			result.AddError(msg)
		}
		h.logger.Info("step completed",
			"step", ev.Step,
			"op", step.Op,
			"outcome", ev.Outcome,
		)
	}

	proj := eng.Current()
	actx := &AssertionContext{
		Ctx:        ctx,
		Store:      st,
		Projection: proj,
		Seeds:      h.seeds,
		Certs:      h.certs,
	}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	result.Snapshot = proj.Snapshot()
	return result, nil
}

// outcomeError marks an error as an expected step outcome rather than a
// harness failure.
type outcomeError struct{ err error }

func (o outcomeError) Error() string { return o.err.Error() }
func (o outcomeError) Unwrap() error { return o.err }

func outcome(err error) error {
	if err == nil {
		return nil
	}
	return outcomeError{err: err}
}

func isOutcome(err error) bool {
	var oe outcomeError
	return errors.As(err, &oe)
}

// outcomeOf maps an error to the code a scenario expects.
func outcomeOf(err error) string {
	var pe *projection.ProjectionError
	switch {
	case err == nil:
		return OutcomeOK
	case seed.IsWeakPassphrase(err):
		return OutcomeWeakPassphrase
	case pki.IsIssuerNotEligible(err):
		return OutcomeIssuerNotEligible
	case errors.Is(err, errNondeterministic):
		return OutcomeNondeterministic
	case errors.Is(err, errChainInvalid):
		return OutcomeChainInvalid
	case errors.As(err, &pe):
		return string(pe.Kind)
	case engine.CodeOf(err) != "":
		return string(engine.CodeOf(err))
	default:
		return OutcomeError
	}
}

var (
	errNondeterministic = errors.New("rebuilt projections differ")
	errChainInvalid     = errors.New("certificate chain does not verify")
)

func (h *Harness) execute(ctx context.Context, st Step) (TraceEvent, error) {
	switch st.Op {
	case OpDerive:
		return TraceEvent{}, h.derive(ctx, st)
	case OpIssue:
		return h.issue(ctx, st)
	case OpVerifyChain:
		return TraceEvent{}, h.verifyChain(st)
	case OpSubmit:
		payloads, err := decodeEvents(st.Events)
		if err != nil {
			return TraceEvent{}, err
		}
		return traced(h.engine.Submit(ctx, engine.Command{CorrelationID: st.Correlation, Payloads: payloads}))
	case OpUndo:
		return traced(h.engine.Undo(ctx))
	case OpRedo:
		return traced(h.engine.Redo(ctx))
	case OpInterleave:
		return h.interleave(ctx, st)
	case OpRebuild:
		return TraceEvent{}, h.rebuild(ctx)
	}
	return TraceEvent{}, fmt.Errorf("unknown op %q", st.Op)
}

func traced(evs []event.Event, err error) (TraceEvent, error) {
	if err != nil {
		return TraceEvent{}, outcome(err)
	}
	return TraceEvent{Kinds: kindsOf(evs)}, nil
}

func kindsOf(evs []event.Event) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = string(ev.Kind())
	}
	return out
}

func (h *Harness) derive(ctx context.Context, st Step) error {
	pass := h.scenario.Passphrase
	if st.Passphrase != nil {
		pass = *st.Passphrase
	}
	org := st.Org
	if org == "" {
		org = h.scenario.Organization
	}
	s, _, err := seed.DeriveMasterSeed(ctx, pass, org, seed.TestKDFParams())
	if err != nil {
		return outcome(err)
	}
	if old, ok := h.seeds[st.As]; ok {
		old.Zero()
	}
	h.seeds[st.As] = s
	return nil
}

// issue generates a certificate from the named seed and commits its
// generation and activation. The issuer's status comes from the projection.
func (h *Harness) issue(ctx context.Context, st Step) (TraceEvent, error) {
	master, ok := h.seeds[st.Seed]
	if !ok {
		return TraceEvent{}, fmt.Errorf("unknown seed %q", st.Seed)
	}
	cn := st.CommonName
	if cn == "" {
		cn = st.As
	}
	params := pki.Params{
		Subject:   pki.Subject{CommonName: cn, Organization: h.scenario.Organization},
		NotBefore: testutil.Epoch,
	}

	s := seed.DerivePath(master, "pki", st.Tier, st.As)
	defer s.Zero()

	var (
		rec *pki.CertificateRecord
		err error
	)
	switch event.CertTier(st.Tier) {
	case event.TierRoot:
		rec, err = pki.GenerateRootCA(s, params)
	default:
		parent, ok := h.certs[st.Issuer]
		if !ok {
			return TraceEvent{}, fmt.Errorf("unknown issuer %q", st.Issuer)
		}
		status, _ := h.engine.Current().IssuerStatus(parent.ID)
		issuer := parent.Issuer(status)
		if event.CertTier(st.Tier) == event.TierIntermediate {
			rec, err = pki.GenerateIntermediateCA(s, params, issuer)
		} else {
			params.DNSNames = []string{cn}
			rec, err = pki.GenerateLeafCertificate(s, params, issuer)
		}
	}
	if err != nil {
		return TraceEvent{}, outcome(err)
	}

	evs, err := h.engine.Submit(ctx, engine.Command{
		CorrelationID: st.Correlation,
		Payloads: []event.Payload{
			rec.GeneratedEvent(),
			event.CertificateActivated{CertID: rec.ID},
		},
	})
	if err != nil {
		rec.Key.Zero()
		return TraceEvent{}, outcome(err)
	}
	if old, ok := h.certs[st.As]; ok {
		old.Key.Zero()
	}
	h.certs[st.As] = rec
	return TraceEvent{Kinds: kindsOf(evs)}, nil
}

func (h *Harness) verifyChain(st Step) error {
	chain := make([]*pki.CertificateRecord, len(st.Certs))
	for i, name := range st.Certs {
		rec, ok := h.certs[name]
		if !ok {
			return fmt.Errorf("unknown certificate %q", name)
		}
		chain[i] = rec
	}
	if err := pki.VerifyChain(chain[0], chain[1], chain[2]); err != nil {
		return outcome(fmt.Errorf("%w: %v", errChainInvalid, err))
	}
	return nil
}

// interleave commits count single-event commands spread round-robin over
// the groups, each group its own correlation. Within a group events
// alternate between generating a key and activating it, and each event is
// caused by the group's previous one.
func (h *Harness) interleave(ctx context.Context, st Step) (TraceEvent, error) {
	last := make(map[string]string, len(st.Groups))
	seen := make(map[string]int, len(st.Groups))
	total := 0
	for i := 0; i < st.Count; i++ {
		group := st.Groups[i%len(st.Groups)]
		n := seen[group]
		seen[group]++

		keyID := fmt.Sprintf("%s-key-%03d", group, n/2)
		var p event.Payload = event.KeyActivated{KeyID: keyID}
		if n%2 == 0 {
			p = event.KeyGenerated{
				KeyID:          keyID,
				Algorithm:      "Ed25519",
				Purpose:        "scenario",
				DerivationPath: group + "/" + keyID,
				PublicKey:      keyID,
			}
		}
		evs, err := h.engine.Submit(ctx, engine.Command{
			CorrelationID: group,
			CausationID:   last[group],
			Payloads:      []event.Payload{p},
		})
		if err != nil {
			return TraceEvent{Events: total}, outcome(err)
		}
		last[group] = evs[len(evs)-1].ID
		total += len(evs)
	}
	return TraceEvent{Events: total}, nil
}

// rebuild replays the stored log twice and checks both results match each
// other and the engine's live projection.
func (h *Harness) rebuild(ctx context.Context) error {
	events, err := h.store.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}
	a, err := projection.Rebuild(events)
	if err != nil {
		return outcome(err)
	}
	b, err := projection.Rebuild(events)
	if err != nil {
		return outcome(err)
	}
	if !a.Equal(b) || !a.Equal(h.engine.Current()) {
		return outcome(errNondeterministic)
	}
	return nil
}

// decodeEvents turns YAML payload maps into typed payloads by
// round-tripping through the event codec.
func decodeEvents(specs []EventSpec) ([]event.Payload, error) {
	out := make([]event.Payload, len(specs))
	for i, es := range specs {
		fields := es.Payload
		if fields == nil {
			fields = map[string]any{}
		}
		raw, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: encode payload: %w", i, err)
		}
		p, err := event.DecodePayload(event.Kind(es.Kind), raw)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

func (h *Harness) wipe() {
	for _, s := range h.seeds {
		s.Zero()
	}
	for _, rec := range h.certs {
		rec.Key.Zero()
	}
}
