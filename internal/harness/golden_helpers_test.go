package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// runWithGolden executes a scenario, fails the test on any expectation
// error, and compares the snapshot against the scenario's golden file.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func runWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, e := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, e)
	}
	assertGolden(t, scenario, result)
	return result
}

// assertGolden compares the result's snapshot with the scenario's golden
// file. Scenarios without a golden name are skipped.
func assertGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()
	if scenario.Golden == "" {
		return
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(scenario.GoldenDir()),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Golden, result.Snapshot)
}
