package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/keyledger/internal/projection"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(opts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the current projection",
		Long: `Rebuild the projection from the event log and print every entity with
its lifecycle status.

Examples:
  keyledger inspect --db ./ledger.db
  keyledger inspect --db ./ledger.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts, database)
			if err != nil {
				return err
			}
			defer st.Close()

			events, err := st.ReadAll(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read events", err)
			}
			proj, err := projection.Rebuild(events)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to rebuild projection", err)
			}
			snap := proj.Snapshot()

			f := opts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Success(snap, func(w io.Writer) { outputSnapshotText(w, snap) })
		},
	}
	cmd.Flags().StringVar(&database, "db", "", "path to SQLite database (default $KEYLEDGER_DB)")
	return cmd
}

func outputSnapshotText(w io.Writer, s projection.Snapshot) {
	fmt.Fprintf(w, "Events: %d (last %s)\n", s.EventCount, s.LastEventID)

	fmt.Fprintf(w, "\nCertificates (%d)\n", len(s.Certificates))
	for _, c := range s.Certificates {
		fmt.Fprintf(w, "  %-12s %-10s %s  %s\n", c.Tier, c.Status, c.ID, c.Subject)
	}
	fmt.Fprintf(w, "\nKeys (%d)\n", len(s.Keys))
	for _, k := range s.Keys {
		fmt.Fprintf(w, "  %-16s %s  %s\n", k.Status, k.ID, k.Purpose)
	}
	fmt.Fprintf(w, "\nIdentities (%d)\n", len(s.Identities))
	for _, i := range s.Identities {
		fmt.Fprintf(w, "  %-8s %-14s %s  %s\n", i.Role, i.Status, i.ID, i.Name)
	}
	fmt.Fprintf(w, "\nTokens (%d)\n", len(s.Tokens))
	for _, t := range s.Tokens {
		fmt.Fprintf(w, "  %-11s %s  person=%s slots=%d\n", t.Status, t.ID, t.PersonID, t.OccupiedSlots())
	}
	fmt.Fprintf(w, "\nManifests (%d)\n", len(s.Manifests))
	for _, m := range s.Manifests {
		fmt.Fprintf(w, "  %-10s %s  artifacts=%d\n", m.Status, m.ID, len(m.Artifacts))
	}
}
