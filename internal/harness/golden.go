package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir holds the expected generated files, one per scenario.
const GoldenDir = "testdata/golden"

// RunWithGolden executes a scenario, fails t on unmet expectations and,
// when the scenario asks for it, compares the generated file against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	if scenario.Expect.Golden && result.Code != nil {
		AssertGolden(t, scenario.Name, result)
	}
	return result, nil
}

// AssertGolden compares the generated file of result against the golden
// file named name.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, result.Code)
}
