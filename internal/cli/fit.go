package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gadial/qiskit-ignis/internal/calib"
	"github.com/gadial/qiskit-ignis/internal/fitter"
	"github.com/gadial/qiskit-ignis/internal/store"
)

// FitOptions holds flags for the fit command.
type FitOptions struct {
	*RootOptions
	Plan     string
	Counts   string
	Out      string
	Database string
}

// fitSummary is the fit command's output payload.
type fitSummary struct {
	Method      string   `json:"method"`
	UnitCount   int      `json:"unit_count"`
	UnitLabels  []string `json:"unit_labels"`
	Fingerprint string   `json:"fingerprint"`
	Warnings    []string `json:"warnings,omitempty"`
	StoredID    string   `json:"stored_id,omitempty"`
	OutFile     string   `json:"out_file,omitempty"`
}

// NewFitCommand creates the fit command.
func NewFitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a mitigator from calibration counts",
		Long: `Fit a readout error model from executed calibration circuits.

The counts file maps each calibration circuit label (as emitted by
'ignis circuits') to its observed count distribution. The fitted
mitigator is written to --out as a versioned JSON record and/or saved
into a SQLite store with --db.

Example:
  ignis fit --plan plan.cue --counts cal-counts.json --out mitigator.json
  ignis fit --plan plan.cue --counts cal-counts.json --db ./mitigators.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Plan, "plan", "", "path to CUE calibration plan (required)")
	cmd.Flags().StringVar(&opts.Counts, "counts", "", "path to calibration counts JSON (required)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write the fitted mitigator record to this file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "save the fitted mitigator into this SQLite store")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("counts")

	return cmd
}

func runFit(opts *FitOptions, cmd *cobra.Command) error {
	if opts.Out == "" && opts.Database == "" {
		return WrapExitError(ExitCommandError, "nothing to do", fmt.Errorf("at least one of --out or --db is required"))
	}

	plan, err := LoadPlan(opts.Plan)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load plan", err)
	}
	countsSet, err := readCountsSet(opts.Counts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read counts", err)
	}

	spec := plan.Spec()
	circuits, err := calib.Circuits(spec)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build circuit set", err)
	}
	results := make([]fitter.CalibrationResult, 0, len(circuits))
	for _, c := range circuits {
		counts, ok := countsSet[c.Label]
		if !ok {
			return WrapExitError(ExitFailure, "incomplete calibration counts",
				fmt.Errorf("no counts for circuit %s", c.Label))
		}
		results = append(results, fitter.CalibrationResult{Circuit: c, Counts: counts})
	}

	logrus.WithFields(logrus.Fields{
		"method":   spec.Method,
		"units":    spec.NumUnits,
		"circuits": len(results),
	}).Debug("fitting mitigator")

	m, err := fitter.Fit(spec, results, fitter.WithUnitLabels(plan.Units))
	if err != nil {
		return WrapExitError(ExitFailure, "fit failed", err)
	}
	fingerprint, err := m.Fingerprint()
	if err != nil {
		return WrapExitError(ExitFailure, "fingerprint failed", err)
	}
	summary := fitSummary{
		Method:      string(m.Method),
		UnitCount:   m.NumUnits,
		UnitLabels:  m.UnitLabels,
		Fingerprint: fingerprint,
		Warnings:    m.Warnings,
	}

	if opts.Out != "" {
		payload, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return WrapExitError(ExitFailure, "failed to serialize mitigator", err)
		}
		if err := os.WriteFile(opts.Out, append(payload, '\n'), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write mitigator file", err)
		}
		summary.OutFile = opts.Out
	}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open store", err)
		}
		defer st.Close()
		id, err := st.Save(cmd.Context(), m)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to save mitigator", err)
		}
		summary.StoredID = id
	}

	var text strings.Builder
	fmt.Fprintf(&text, "fitted %s mitigator over %d units\n", summary.Method, summary.UnitCount)
	fmt.Fprintf(&text, "fingerprint: %s\n", summary.Fingerprint)
	for _, w := range summary.Warnings {
		fmt.Fprintf(&text, "warning: %s\n", w)
	}
	if summary.OutFile != "" {
		fmt.Fprintf(&text, "wrote %s\n", summary.OutFile)
	}
	if summary.StoredID != "" {
		fmt.Fprintf(&text, "stored as %s\n", summary.StoredID)
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(summary, text.String())
}
