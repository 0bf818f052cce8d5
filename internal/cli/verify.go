package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/pki"
)

// VerifyResult is the output of the verify command.
type VerifyResult struct {
	Valid        bool   `json:"valid"`
	Root         string `json:"root"`
	Intermediate string `json:"intermediate"`
	Leaf         string `json:"leaf"`
	Subject      string `json:"subject"`
	NotAfter     string `json:"not_after"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <root.pem> <intermediate.pem> <leaf.pem>",
		Short: "Verify an exported certificate chain",
		Long: `Check that a leaf certificate chains to a root through an intermediate.

Exit codes:
  0 - Chain is valid
  1 - Chain is invalid
  2 - Command error

Examples:
  keyledger verify out/pki/root.pem out/pki/intermediate/eng.pem out/pki/server/api.pem`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			tiers := []event.CertTier{event.TierRoot, event.TierIntermediate, event.TierLeaf}
			recs := make([]*pki.CertificateRecord, len(args))
			for i, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read certificate", err)
				}
				rec, err := pki.ParsePEM(data)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to parse "+path, err)
				}
				if rec.Tier != tiers[i] {
					return NewExitError(ExitCommandError, fmt.Sprintf("%s is a %s certificate, expected %s", path, rec.Tier, tiers[i]))
				}
				recs[i] = rec
			}

			f := opts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err := pki.VerifyChain(recs[0], recs[1], recs[2]); err != nil {
				return &ExitError{Code: ExitFailure, Kind: "CHAIN_INVALID", Message: "chain does not verify", Err: err}
			}

			res := VerifyResult{
				Valid:        true,
				Root:         recs[0].ID,
				Intermediate: recs[1].ID,
				Leaf:         recs[2].ID,
				Subject:      recs[2].Subject,
				NotAfter:     recs[2].NotAfter.Format("2006-01-02"),
			}
			return f.Success(res, func(w io.Writer) {
				fmt.Fprintf(w, "✓ %s (valid until %s)\n", res.Subject, res.NotAfter)
			})
		},
	}
}
