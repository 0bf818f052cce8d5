package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/keyledger/internal/event"
)

// Scenario is an executable sequence of ledger operations with assertions
// on the final state.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Passphrase and Organization are the derive defaults.
	Passphrase   string `yaml:"passphrase,omitempty"`
	Organization string `yaml:"organization,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// As names the seed (derive) or certificate (issue) the step produces.
	As string `yaml:"as,omitempty"`

	// Passphrase overrides the scenario passphrase; an explicit empty
	// string is kept.
	Passphrase *string `yaml:"passphrase,omitempty"`
	Org        string  `yaml:"org,omitempty"`

	Seed       string `yaml:"seed,omitempty"`
	Tier       string `yaml:"tier,omitempty"`
	Issuer     string `yaml:"issuer,omitempty"`
	CommonName string `yaml:"common_name,omitempty"`

	Certs []string `yaml:"certs,omitempty"`

	Correlation string      `yaml:"correlation,omitempty"`
	Events      []EventSpec `yaml:"events,omitempty"`

	Count  int      `yaml:"count,omitempty"`
	Groups []string `yaml:"groups,omitempty"`

	// Expect is the outcome the step must produce. Empty means "ok".
	Expect string `yaml:"expect,omitempty"`
}

// EventSpec is a payload written out by kind and fields.
type EventSpec struct {
	Kind    string         `yaml:"kind"`
	Payload map[string]any `yaml:"payload"`
}

// Assertion validates the final state.
type Assertion struct {
	Type string `yaml:"type"`

	// Aggregate, ID or Ref, Status and Successor are used by status.
	// Ref resolves a certificate alias from an issue step.
	Aggregate string `yaml:"aggregate,omitempty"`
	ID        string `yaml:"id,omitempty"`
	Ref       string `yaml:"ref,omitempty"`
	Status    string `yaml:"status,omitempty"`
	Successor string `yaml:"successor,omitempty"`

	Correlation string `yaml:"correlation,omitempty"`
	Count       int    `yaml:"count,omitempty"`

	Seeds []string `yaml:"seeds,omitempty"`
}

// Operation names.
const (
	OpDerive      = "derive"
	OpIssue       = "issue"
	OpVerifyChain = "verify_chain"
	OpSubmit      = "submit"
	OpUndo        = "undo"
	OpRedo        = "redo"
	OpInterleave  = "interleave"
	OpRebuild     = "rebuild"
)

// Assertion type constants.
const (
	AssertStatus           = "status"
	AssertEventCount       = "event_count"
	AssertCorrelationCount = "correlation_count"
	AssertSameSeed         = "same_seed"
	AssertDistinctSeed     = "distinct_seed"
	AssertNoSeed           = "no_seed"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, st *Step) error {
	switch st.Op {
	case OpDerive:
		if st.As == "" {
			return fmt.Errorf("steps[%d]: as is required for derive", i)
		}
	case OpIssue:
		if st.As == "" || st.Seed == "" {
			return fmt.Errorf("steps[%d]: as and seed are required for issue", i)
		}
		switch st.Tier {
		case string(event.TierRoot):
		case string(event.TierIntermediate), string(event.TierLeaf):
			if st.Issuer == "" {
				return fmt.Errorf("steps[%d]: issuer is required for tier %s", i, st.Tier)
			}
		default:
			return fmt.Errorf("steps[%d]: unknown tier %q", i, st.Tier)
		}
	case OpVerifyChain:
		if len(st.Certs) != 3 {
			return fmt.Errorf("steps[%d]: verify_chain needs root, intermediate and leaf", i)
		}
	case OpSubmit:
		if len(st.Events) == 0 {
			return fmt.Errorf("steps[%d]: events are required for submit", i)
		}
		for j, es := range st.Events {
			if !event.Kind(es.Kind).Valid() {
				return fmt.Errorf("steps[%d].events[%d]: unknown kind %q", i, j, es.Kind)
			}
		}
	case OpInterleave:
		if st.Count <= 0 || len(st.Groups) == 0 {
			return fmt.Errorf("steps[%d]: count and groups are required for interleave", i)
		}
	case OpUndo, OpRedo, OpRebuild:
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, st.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertStatus:
		if a.Aggregate == "" || a.Status == "" {
			return fmt.Errorf("assertions[%d]: aggregate and status are required for status", index)
		}
		if (a.ID == "") == (a.Ref == "") {
			return fmt.Errorf("assertions[%d]: exactly one of id and ref is required", index)
		}
		if _, ok := aggregates[a.Aggregate]; !ok {
			return fmt.Errorf("assertions[%d]: unknown aggregate %q", index, a.Aggregate)
		}
	case AssertEventCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertCorrelationCount:
		if a.Correlation == "" {
			return fmt.Errorf("assertions[%d]: correlation is required for correlation_count", index)
		}
	case AssertSameSeed, AssertDistinctSeed:
		if len(a.Seeds) != 2 {
			return fmt.Errorf("assertions[%d]: %s compares exactly two seeds", index, a.Type)
		}
	case AssertNoSeed:
		if len(a.Seeds) == 0 {
			return fmt.Errorf("assertions[%d]: seeds are required for no_seed", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
