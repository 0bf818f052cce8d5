package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/keyledger/internal/seed"
)

// StrengthResult is the output of the strength command.
type StrengthResult struct {
	Bits       float64 `json:"bits"`
	Band       string  `json:"band"`
	Acceptable bool    `json:"acceptable"`
	Minimum    float64 `json:"minimum_bits"`
}

// NewStrengthCommand creates the strength command.
func NewStrengthCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "strength",
		Short: "Estimate passphrase strength",
		Long: `Read a passphrase from stdin and print its estimated entropy band.

Exit codes:
  0 - Strong enough to derive a master seed
  1 - Below the minimum
  2 - Command error

Examples:
  echo "copper lantern orbit meadow thistle" | keyledger strength`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := readPassphrase(cmd.InOrStdin())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read passphrase", err)
			}
			s := seed.EstimateStrength(pass)
			res := StrengthResult{
				Bits:       s.Bits,
				Band:       s.Band.String(),
				Acceptable: s.Acceptable(),
				Minimum:    seed.MinEntropyBits,
			}

			f := opts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err := f.Success(res, func(w io.Writer) {
				fmt.Fprintf(w, "%s (%.1f bits)\n", res.Band, res.Bits)
			}); err != nil {
				return err
			}
			if !res.Acceptable {
				return &ExitError{
					Code:    ExitFailure,
					Kind:    "WEAK_PASSPHRASE",
					Message: fmt.Sprintf("passphrase below %.0f bits", seed.MinEntropyBits),
				}
			}
			return nil
		},
	}
}
