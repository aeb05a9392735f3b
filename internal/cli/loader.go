package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/gadial/qiskit-ignis/internal/model"
)

// planSchema constrains calibration plan files. A plan names the measured
// units (ordered labels), the fitting method, and the shot budget the
// backend should use per calibration circuit.
const planSchema = `
#Plan: {
	units: [string, ...string]
	method: "complete" | "tensored" | "ctmp"
	shots:  int & >0 | *8192
}
`

// Plan is a decoded calibration plan.
type Plan struct {
	Units  []string `json:"units"`
	Method string   `json:"method"`
	Shots  int      `json:"shots"`
}

// Spec returns the calibration spec the plan describes.
func (p *Plan) Spec() model.CalibrationSpec {
	return model.CalibrationSpec{
		NumUnits: len(p.Units),
		Method:   model.Method(p.Method),
	}
}

// LoadPlan loads and validates a CUE calibration plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(planSchema)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling plan schema: %w", err)
	}
	val := ctx.CompileBytes(data, cue.Filename(path))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("compiling plan %s: %w", path, err)
	}

	unified := val.Unify(schema.LookupPath(cue.ParsePath("#Plan")))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating plan %s: %w", path, err)
	}

	var plan Plan
	if err := unified.Decode(&plan); err != nil {
		return nil, fmt.Errorf("decoding plan %s: %w", path, err)
	}
	return &plan, nil
}

// readCountsSet reads a JSON file mapping calibration circuit labels to
// count distributions.
func readCountsSet(path string) (map[string]model.Counts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading counts: %w", err)
	}
	var set map[string]model.Counts
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing counts %s: %w", path, err)
	}
	return set, nil
}

// readCounts reads a JSON file holding a single count distribution.
func readCounts(path string) (model.Counts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading counts: %w", err)
	}
	var counts model.Counts
	if err := json.Unmarshal(data, &counts); err != nil {
		return nil, fmt.Errorf("parsing counts %s: %w", path, err)
	}
	return counts, nil
}
