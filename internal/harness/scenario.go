package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/gadial/qiskit-ignis/internal/model"
)

// UnitNoise declares one unit's readout flip probabilities.
type UnitNoise struct {
	// P10 is P(observe 1 | prepared 0), P01 is P(observe 0 | prepared 1).
	P10 float64 `yaml:"p10"`
	P01 float64 `yaml:"p01"`
}

// PairNoise declares a correlated-flip generator rate on a unit pair.
type PairNoise struct {
	I     int     `yaml:"i"`
	J     int     `yaml:"j"`
	R0011 float64 `yaml:"r0011"`
	R1100 float64 `yaml:"r1100"`
}

// Scenario is one declarative end-to-end accuracy case: a noise model, an
// ideal experiment distribution, and the expectation-value tolerance the
// corrected estimate must land within.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Method selects the mitigation method under test.
	Method string `yaml:"method"`

	// Shots is the per-circuit calibration shot count.
	Shots int `yaml:"shots"`

	// Units declares the per-unit noise; its length fixes the register size.
	Units []UnitNoise `yaml:"units"`

	// Pairs adds correlated noise (ctmp scenarios only).
	Pairs []PairNoise `yaml:"pairs,omitempty"`

	// Ideal is the noiseless experiment distribution.
	Ideal map[string]int `yaml:"ideal"`

	// Mask lists the operator's unit indices; empty means all units.
	Mask []int `yaml:"mask,omitempty"`

	// Tolerance bounds |corrected - ideal|.
	Tolerance float64 `yaml:"tolerance"`
}

// Validate checks the scenario for structural errors before running it.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario: name is required")
	}
	if !model.Method(s.Method).Valid() {
		return fmt.Errorf("scenario %s: unknown method %q", s.Name, s.Method)
	}
	if s.Shots <= 0 {
		return fmt.Errorf("scenario %s: shots must be positive, got %d", s.Name, s.Shots)
	}
	n := len(s.Units)
	if n == 0 {
		return fmt.Errorf("scenario %s: at least one unit is required", s.Name)
	}
	for q, u := range s.Units {
		if u.P10 < 0 || u.P01 < 0 || u.P10+u.P01 >= 1 {
			return fmt.Errorf("scenario %s: unit %d flip probabilities out of range", s.Name, q)
		}
	}
	if len(s.Pairs) > 0 && model.Method(s.Method) != model.MethodCTMP {
		return fmt.Errorf("scenario %s: pair noise requires the ctmp method", s.Name)
	}
	for _, p := range s.Pairs {
		if p.I < 0 || p.J >= n || p.I >= p.J {
			return fmt.Errorf("scenario %s: invalid pair (%d,%d)", s.Name, p.I, p.J)
		}
		if p.R0011 < 0 || p.R1100 < 0 {
			return fmt.Errorf("scenario %s: negative pair rate on (%d,%d)", s.Name, p.I, p.J)
		}
	}
	if len(s.Ideal) == 0 {
		return fmt.Errorf("scenario %s: ideal distribution is required", s.Name)
	}
	if err := model.Counts(s.Ideal).Validate(n); err != nil {
		return fmt.Errorf("scenario %s: ideal distribution: %w", s.Name, err)
	}
	if err := model.Mask(s.Mask).Validate(n); err != nil {
		return fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	if s.Tolerance <= 0 {
		return fmt.Errorf("scenario %s: tolerance must be positive", s.Name)
	}
	return nil
}

// LoadScenario reads and validates one YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenarioDir loads every *.yaml scenario under dir, sorted by filename.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		sc, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	}
	return scenarios, nil
}
