package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gadial/qiskit-ignis/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "List or inspect stored mitigators",
		Long: `List the mitigators in a store, or inspect one record.

Example:
  ignis show --db ./mitigators.db
  ignis show --db ./mitigators.db 3f1c...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite store (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(opts *ShowOptions, args []string, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if len(args) == 1 {
		m, err := st.Load(cmd.Context(), args[0])
		if err != nil {
			return WrapExitError(ExitFailure, "failed to load mitigator", err)
		}
		var text strings.Builder
		fmt.Fprintf(&text, "method:      %s\n", m.Method)
		fmt.Fprintf(&text, "units:       %d (%s)\n", m.NumUnits, strings.Join(m.UnitLabels, ", "))
		fmt.Fprintf(&text, "fingerprint: %s\n", m.MustFingerprint())
		for _, w := range m.Warnings {
			fmt.Fprintf(&text, "warning:     %s\n", w)
		}
		return out.Success(m, text.String())
	}

	records, err := st.List(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list mitigators", err)
	}
	var text strings.Builder
	for _, r := range records {
		fmt.Fprintf(&text, "%s\t%s\t%d units\t%s\n", r.ID, r.Method, r.UnitCount, r.CreatedAt)
	}
	if len(records) == 0 {
		text.WriteString("no mitigators stored\n")
	}
	return out.Success(records, text.String())
}
