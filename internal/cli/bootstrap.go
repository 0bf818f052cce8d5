package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/keyledger/internal/bootstrap"
	"github.com/roach88/keyledger/internal/params"
	"github.com/roach88/keyledger/internal/seed"
)

// BootstrapOptions holds flags for the bootstrap command.
type BootstrapOptions struct {
	*RootOptions
	Params         string
	Database       string
	OrgID          string
	OutDir         string
	SimulateTokens bool
}

// BootstrapResult summarizes a committed bootstrap.
type BootstrapResult struct {
	CorrelationID string  `json:"correlation_id"`
	Strength      string  `json:"strength"`
	Bits          float64 `json:"bits"`
	Events        int     `json:"events"`
	Certificates  int     `json:"certificates"`
	Identities    int     `json:"identities"`
	Keys          int     `json:"keys"`
	Tokens        int     `json:"tokens"`
	Artifacts     int     `json:"artifacts"`
	RootID        string  `json:"root_id"`
	ManifestPath  string  `json:"manifest_path,omitempty"`
}

// NewBootstrapCommand creates the bootstrap command.
func NewBootstrapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BootstrapOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Derive and record an organization's PKI and identities",
		Long: `Read a passphrase from stdin, derive the master seed and generate the
organization described by --params (.cue, .yaml or .yml). Every event is
appended under one correlation id; nothing is written if any step fails.

With --out the public artifacts (certificate PEMs, nkey public keys, token
plans and manifest.json) are written and verified.

Exit codes:
  0 - Organization committed
  1 - Rejected (weak passphrase, already bootstrapped, invalid transition)
  2 - Command error (unreadable params, database errors)

Examples:
  keyledger bootstrap --params org.yaml --db ledger.db < passphrase.txt
  keyledger bootstrap --params org.cue --out ./public --simulate-tokens`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Params, "params", "", "bootstrap parameter document (required)")
	_ = cmd.MarkFlagRequired("params")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $KEYLEDGER_DB)")
	cmd.Flags().StringVar(&opts.OrgID, "org", "", "organization id used as KDF salt (default from params)")
	cmd.Flags().StringVar(&opts.OutDir, "out", "", "directory for public artifacts")
	cmd.Flags().BoolVar(&opts.SimulateTokens, "simulate-tokens", false, "provision software tokens derived from the seed")

	return cmd
}

func runBootstrap(opts *BootstrapOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	p, err := params.Load(opts.Params)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load params", err)
	}
	pass, err := readPassphrase(cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read passphrase", err)
	}

	eng, stop, err := startEngine(ctx, opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer stop()

	f := opts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	f.VerboseLog("deriving master seed for %s (%s KDF)", p.Organization.ID, opts.Config.KDFProfile)

	res, err := bootstrap.Run(ctx, eng, p, bootstrap.Options{
		Passphrase:     pass,
		OrgID:          opts.OrgID,
		KDF:            opts.Config.KDFParams(),
		SimulateTokens: opts.SimulateTokens,
		OutDir:         opts.OutDir,
		Metrics:        opts.Metrics,
	})
	switch {
	case err == nil:
	case seed.IsWeakPassphrase(err), errors.Is(err, bootstrap.ErrAlreadyBootstrapped):
		return WrapExitError(ExitFailure, "bootstrap rejected", err)
	case res != nil:
		// committed, but the export failed
		return WrapExitError(ExitCommandError, "bootstrap committed but export failed", err)
	default:
		return WrapExitError(ExitFailure, "bootstrap failed", err)
	}

	proj := eng.Current()
	out := BootstrapResult{
		CorrelationID: res.CorrelationID,
		Strength:      res.Strength.Band.String(),
		Bits:          res.Strength.Bits,
		Events:        len(res.Events),
		Certificates:  len(proj.Certificates()),
		Identities:    len(proj.Identities()),
		Keys:          len(proj.Keys()),
		Tokens:        len(proj.Tokens()),
		Artifacts:     len(res.Generated.Artifacts),
		RootID:        res.Generated.RootID,
		ManifestPath:  res.ManifestPath,
	}
	return f.Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "Bootstrapped %s (correlation %s)\n", p.Organization.Name, out.CorrelationID)
		fmt.Fprintf(w, "  Passphrase:   %s (%.1f bits)\n", out.Strength, out.Bits)
		fmt.Fprintf(w, "  Events:       %d\n", out.Events)
		fmt.Fprintf(w, "  Certificates: %d (root %s)\n", out.Certificates, out.RootID)
		fmt.Fprintf(w, "  Identities:   %d\n", out.Identities)
		fmt.Fprintf(w, "  Keys:         %d\n", out.Keys)
		fmt.Fprintf(w, "  Tokens:       %d\n", out.Tokens)
		if out.ManifestPath != "" {
			fmt.Fprintf(w, "  Manifest:     %s (%d artifacts)\n", out.ManifestPath, out.Artifacts)
		}
	})
}
