package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gadial/qiskit-ignis/internal/store"
)

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	Database string
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored mitigator",
		Long: `Delete one mitigator record from a store.

Example:
  ignis delete --db ./mitigators.db 3f1c...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite store (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runDelete(opts *DeleteOptions, id string, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	if err := st.Delete(cmd.Context(), id); err != nil {
		return WrapExitError(ExitFailure, "failed to delete mitigator", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(map[string]string{"deleted": id}, fmt.Sprintf("deleted %s\n", id))
}
