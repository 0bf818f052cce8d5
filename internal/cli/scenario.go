package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/keyledger/internal/harness"
)

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string               `json:"name"`
	Pass   bool                 `json:"pass"`
	Trace  []harness.TraceEvent `json:"trace"`
	Errors []string             `json:"errors,omitempty"`
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scenario <file.yaml>...",
		Short: "Run harness scenarios",
		Long: `Run one or more YAML scenarios against a fresh in-memory ledger and
check every step outcome and assertion.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (unreadable or invalid scenario)

Examples:
  keyledger scenario testdata/scenarios/rotation_one_way.yaml
  keyledger scenario testdata/scenarios/*.yaml --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]ScenarioResult, 0, len(args))
			failed := 0
			for _, path := range args {
				sc, err := harness.LoadScenario(path)
				if err != nil {
					return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", path), err)
				}
				res, err := harness.Run(cmd.Context(), sc)
				if err != nil {
					return WrapExitError(ExitCommandError, fmt.Sprintf("failed to run %s", sc.Name), err)
				}
				if !res.Pass {
					failed++
				}
				results = append(results, ScenarioResult{Name: sc.Name, Pass: res.Pass, Trace: res.Trace, Errors: res.Errors})
			}

			f := opts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err := f.Success(results, func(w io.Writer) { outputScenarioText(w, results, opts.Verbose) }); err != nil {
				return err
			}
			if failed > 0 {
				return &ExitError{Code: ExitFailure, Kind: "SCENARIO_FAILED", Message: fmt.Sprintf("%d of %d scenario(s) failed", failed, len(results))}
			}
			return nil
		},
	}
}

func outputScenarioText(w io.Writer, results []ScenarioResult, verbose bool) {
	for _, r := range results {
		status := "✓"
		if !r.Pass {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", status, r.Name)
		if verbose || !r.Pass {
			for _, ev := range r.Trace {
				line := fmt.Sprintf("  [%d] %-12s %s", ev.Step, ev.Op, ev.Outcome)
				if len(ev.Kinds) > 0 {
					line += " " + strings.Join(ev.Kinds, ",")
				}
				if ev.Events > 0 {
					line += fmt.Sprintf(" (%d events)", ev.Events)
				}
				fmt.Fprintln(w, line)
			}
		}
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}
