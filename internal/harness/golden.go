package harness

import (
	"bytes"
	"fmt"
	"os"
)

// CompareGolden reports whether the snapshot matches the golden file.
// Scenarios without a golden name always match.
func CompareGolden(scenario *Scenario, result *Result) (bool, error) {
	path := scenario.GoldenPath()
	if path == "" {
		return true, nil
	}
	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	return bytes.Equal(want, result.Snapshot), nil
}

// UpdateGolden writes the snapshot as the scenario's golden file.
func UpdateGolden(scenario *Scenario, result *Result) error {
	path := scenario.GoldenPath()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(scenario.GoldenDir(), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, result.Snapshot, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}
