package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/keyledger/internal/event"
)

// EventLine is one event in the events listing.
type EventLine struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	EntityID      string    `json:"entity_id"`
	CorrelationID string    `json:"correlation_id"`
	CausationID   string    `json:"causation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewEventsCommand creates the events command.
func NewEventsCommand(opts *RootOptions) *cobra.Command {
	var database, correlation string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List events in log order",
		Long: `List the events in the ledger in append order, optionally limited to
one correlation id.

Examples:
  keyledger events --db ./ledger.db
  keyledger events --db ./ledger.db --correlation 0190a1b2-...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts, database)
			if err != nil {
				return err
			}
			defer st.Close()

			var events []event.Event
			if correlation != "" {
				events, err = st.ReadCorrelation(cmd.Context(), correlation)
			} else {
				events, err = st.ReadAll(cmd.Context())
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read events", err)
			}

			lines := make([]EventLine, len(events))
			for i, ev := range events {
				lines[i] = EventLine{
					ID:            ev.ID,
					Kind:          string(ev.Kind()),
					EntityID:      ev.EntityID(),
					CorrelationID: ev.CorrelationID,
					CausationID:   ev.CausationID,
					Timestamp:     ev.Timestamp,
				}
			}

			f := opts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Success(lines, func(w io.Writer) {
				if len(lines) == 0 {
					fmt.Fprintln(w, "No events found.")
					return
				}
				for _, l := range lines {
					fmt.Fprintf(w, "%s  %-28s %s\n", l.ID, l.Kind, l.EntityID)
					if opts.Verbose {
						fmt.Fprintf(w, "    correlation=%s causation=%s at=%s\n", l.CorrelationID, l.CausationID, l.Timestamp.Format(time.RFC3339))
					}
				}
			})
		},
	}
	cmd.Flags().StringVar(&database, "db", "", "path to SQLite database (default $KEYLEDGER_DB)")
	cmd.Flags().StringVar(&correlation, "correlation", "", "only events with this correlation id")
	return cmd
}
