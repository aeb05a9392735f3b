package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gadial/qiskit-ignis/internal/expectation"
	"github.com/gadial/qiskit-ignis/internal/model"
	"github.com/gadial/qiskit-ignis/internal/store"
)

// CorrectOptions holds flags for the correct command.
type CorrectOptions struct {
	*RootOptions
	Counts    string
	Mitigator string
	Database  string
	ID        string
	Mask      string
	Units     string
	Samples   int
	Seed      int64
}

// NewCorrectCommand creates the correct command.
func NewCorrectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CorrectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Estimate a corrected expectation value from counts",
		Long: `Estimate the expectation value of a diagonal operator from counts,
optionally correcting readout error through a fitted mitigator.

The mask lists the unit indices carrying a Z factor (default: all units).
Without --mitigator/--db the plain empirical estimator is reported.

Example:
  ignis correct --counts exp.json --mask 0,1,2
  ignis correct --counts exp.json --mitigator mitigator.json --mask 0,2 --units 0,1,2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorrect(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Counts, "counts", "", "path to experiment counts JSON (required)")
	cmd.Flags().StringVar(&opts.Mitigator, "mitigator", "", "path to a mitigator record file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite store holding the mitigator")
	cmd.Flags().StringVar(&opts.ID, "id", "", "record ID inside the store (with --db)")
	cmd.Flags().StringVar(&opts.Mask, "mask", "", "comma-separated masked unit indices (default: all)")
	cmd.Flags().StringVar(&opts.Units, "units", "", "comma-separated unit subset (default: all fitted units)")
	cmd.Flags().IntVar(&opts.Samples, "samples", 0, "CTMP sample count (0 = automatic)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", expectation.DefaultCTMPSeed, "CTMP sampler seed")
	_ = cmd.MarkFlagRequired("counts")

	return cmd
}

func runCorrect(opts *CorrectOptions, cmd *cobra.Command) error {
	counts, err := readCounts(opts.Counts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read counts", err)
	}
	numUnits, err := counts.NumUnits()
	if err != nil {
		return WrapExitError(ExitFailure, "invalid counts", err)
	}

	mask := model.AllUnits(numUnits)
	if opts.Mask != "" {
		idxs, err := parseIndices(opts.Mask)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid mask", err)
		}
		mask = model.Mask(idxs)
	}

	var exOpts []expectation.Option
	m, err := loadMitigator(opts, cmd)
	if err != nil {
		return err
	}
	if m != nil {
		exOpts = append(exOpts, expectation.WithMitigator(m))
		logrus.WithFields(logrus.Fields{
			"method": m.Method,
			"units":  m.NumUnits,
		}).Debug("mitigator loaded")
	}
	if opts.Units != "" {
		units, err := parseIndices(opts.Units)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid units", err)
		}
		exOpts = append(exOpts, expectation.WithUnits(units))
	}
	if opts.Samples > 0 {
		exOpts = append(exOpts, expectation.WithSamples(opts.Samples))
	}
	exOpts = append(exOpts, expectation.WithSeed(opts.Seed))

	result, err := expectation.Value(counts, mask, exOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "expectation value failed", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "value:  %.6f\n", result.Value)
	fmt.Fprintf(&text, "stderr: %.6f\n", result.Stderr)
	if result.Overhead > 1 {
		fmt.Fprintf(&text, "sampling overhead: %.4f\n", result.Overhead)
	}
	if result.Degraded {
		fmt.Fprintf(&text, "degraded: model recovered from a non-fatal fit/inversion issue\n")
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(result, text.String())
}

// loadMitigator resolves the mitigator source flags: a record file, a
// store record, or none.
func loadMitigator(opts *CorrectOptions, cmd *cobra.Command) (*model.Mitigator, error) {
	switch {
	case opts.Mitigator != "" && opts.Database != "":
		return nil, WrapExitError(ExitCommandError, "conflicting flags",
			fmt.Errorf("--mitigator and --db are mutually exclusive"))
	case opts.Mitigator != "":
		data, err := os.ReadFile(opts.Mitigator)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read mitigator", err)
		}
		var m model.Mitigator
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, WrapExitError(ExitFailure, "failed to parse mitigator", err)
		}
		return &m, nil
	case opts.Database != "":
		if opts.ID == "" {
			return nil, WrapExitError(ExitCommandError, "missing flag",
				fmt.Errorf("--id is required with --db"))
		}
		st, err := store.Open(opts.Database)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open store", err)
		}
		defer st.Close()
		m, err := st.Load(cmd.Context(), opts.ID)
		if err != nil {
			return nil, WrapExitError(ExitFailure, "failed to load mitigator", err)
		}
		return m, nil
	}
	return nil, nil
}

// parseIndices parses a comma-separated list of unit indices.
func parseIndices(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid unit index %q", part)
		}
		out = append(out, idx)
	}
	return out, nil
}
