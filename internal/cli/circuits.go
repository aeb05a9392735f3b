package cli

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gadial/qiskit-ignis/internal/calib"
)

// CircuitsOptions holds flags for the circuits command.
type CircuitsOptions struct {
	*RootOptions
	Plan     string
	MaxUnits int
}

// NewCircuitsCommand creates the circuits command.
func NewCircuitsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CircuitsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "circuits",
		Short: "Emit the calibration circuit set for a plan",
		Long: `Emit the ordered calibration circuit specifications a plan requires.

The complete method lists every basis state (2^n circuits); tensored and
ctmp list only the all-zeros and all-ones preparations. Execute the
circuits externally and feed the per-label counts back into 'ignis fit'.

Example:
  ignis circuits --plan plan.cue
  ignis circuits --plan plan.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCircuits(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Plan, "plan", "", "path to CUE calibration plan (required)")
	cmd.Flags().IntVar(&opts.MaxUnits, "max-units", calib.DefaultMaxCompleteUnits, "complete-method unit ceiling")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func runCircuits(opts *CircuitsOptions, cmd *cobra.Command) error {
	plan, err := LoadPlan(opts.Plan)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load plan", err)
	}
	logrus.WithFields(logrus.Fields{
		"units":  len(plan.Units),
		"method": plan.Method,
	}).Debug("plan loaded")

	circuits, err := calib.Circuits(plan.Spec(), calib.WithMaxCompleteUnits(opts.MaxUnits))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build circuits", err)
	}

	var text strings.Builder
	for _, c := range circuits {
		fmt.Fprintf(&text, "%s\t%s\n", c.Label, c.Prepared)
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(circuits, text.String())
}
