package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/gadial/qiskit-ignis/internal/model"
)

// AssertGolden pins a fitted mitigator's canonical serialization against
// the golden file testdata/golden/{name}.golden. Noise synthesis and
// fitting are fully deterministic, so the fitted model of a scenario is a
// stable byte sequence.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, m *model.Mitigator) {
	t.Helper()

	data, err := model.MarshalCanonical(m)
	if err != nil {
		t.Fatalf("canonical serialization failed: %v", err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
