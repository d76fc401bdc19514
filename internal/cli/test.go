package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/qppconv/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult summarizes a test run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r *TestResult) add(sr ScenarioResult) {
	r.Scenarios = append(r.Scenarios, sr)
	r.Total++
	if sr.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run the YAML conformance scenarios found under a directory.

A scenario converts one document, then checks the expected outcome, the
reported messages, selected output fields and the audit record. When it
names a golden file, the conversion snapshot must also match
golden/<name>.golden beside the scenario.

Exit codes:
  0 - every scenario passed
  1 - at least one scenario failed
  2 - the command could not run

Examples:
  qppconv test ./testdata/scenarios
  qppconv test ./testdata/scenarios --filter "pi_*"
  qppconv test ./testdata/scenarios --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runTests(ctx, opts, args[0], opts.formatter(cmd))
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files from the current output")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name matches this glob")

	return cmd
}

func runTests(ctx context.Context, opts *TestOptions, dir string, f *OutputFormatter) error {
	if _, err := os.Stat(dir); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	files, err := harness.FindScenarios(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, path := range files {
		sr := runScenario(ctx, path, opts.Update)
		result.add(sr)
		if !f.isJSON() {
			printScenarioResult(f, sr, opts.Update)
		}
	}

	if f.isJSON() {
		return outputTestJSON(f, result)
	}
	if result.Total == 0 {
		fmt.Fprintln(f.Writer, "No scenarios found.")
		return nil
	}
	return outputTestText(f, result)
}

// runScenario loads and runs one scenario, then checks or rewrites its
// golden file.
func runScenario(ctx context.Context, path string, update bool) ScenarioResult {
	failed := func(name, format string, args ...any) ScenarioResult {
		return ScenarioResult{Name: name, Errors: []string{fmt.Sprintf(format, args...)}}
	}

	s, err := harness.LoadScenario(path)
	if err != nil {
		return failed(filepath.Base(path), "failed to load scenario: %v", err)
	}
	res, err := harness.Run(ctx, s)
	if err != nil {
		return failed(s.Name, "execution failed: %v", err)
	}

	if update {
		if err := harness.UpdateGolden(s, res); err != nil {
			return failed(s.Name, "failed to update golden file: %v", err)
		}
	} else if match, err := harness.CompareGolden(s, res); err != nil {
		res.AddError(fmt.Sprintf("golden comparison failed: %v", err))
	} else if !match {
		res.AddError("snapshot does not match golden file (run with --update to regenerate)")
	}

	return ScenarioResult{Name: s.Name, Pass: res.Pass, Errors: res.Errors}
}

func printScenarioResult(f *OutputFormatter, sr ScenarioResult, updated bool) {
	switch {
	case !sr.Pass:
		fmt.Fprintf(f.Writer, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", e)
		}
	case updated:
		fmt.Fprintf(f.Writer, "✓ %s (golden updated)\n", sr.Name)
	default:
		fmt.Fprintf(f.Writer, "✓ %s\n", sr.Name)
	}
}

func failedScenarios(n int) string {
	return fmt.Sprintf("%d scenario(s) failed", n)
}

func outputTestJSON(f *OutputFormatter, result TestResult) error {
	if result.Failed == 0 {
		return f.Success(result)
	}
	resp := CLIResponse{
		Status: "error",
		Data:   result,
		Error:  &CLIError{Code: ErrCodeTestFailed, Message: failedScenarios(result.Failed)},
	}
	if err := f.writeJSON(resp); err != nil {
		return err
	}
	return NewExitError(ExitFailure, failedScenarios(result.Failed))
}

func outputTestText(f *OutputFormatter, result TestResult) error {
	fmt.Fprintf(f.Writer, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, failedScenarios(result.Failed))
	}
	fmt.Fprintln(f.Writer, "✓ All scenarios passed")
	return nil
}
