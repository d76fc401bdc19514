package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qppconv/internal/converter"
	"github.com/roach88/qppconv/internal/failure"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Scopes []string
}

// ValidationResult holds validation results for one document.
type ValidationResult struct {
	Source  string             `json:"source"`
	Valid   bool               `json:"valid"`
	Kind    failure.Kind       `json:"kind,omitempty"`
	Payload *failure.AllErrors `json:"payload,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file.xml>...",
		Short: "Check documents without writing output",
		Long: `Check QRDA-III documents against the business rules.

Runs the full conversion without writing output files or audit records and
reports every detail with its document path.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Scopes, "scope", nil, "restrict validation to scope (repeatable)")

	return cmd
}

func runValidate(ctx context.Context, opts *ValidateOptions, files []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	scopes := opts.Scopes
	if !cmd.Flags().Changed("scope") {
		scopes = opts.settings().Scopes
	}
	cc := converter.NewContext()
	if err := cc.SetScopeNames(scopes...); err != nil {
		return WrapExitError(ExitCommandError, "invalid scope", err)
	}

	conv := converter.New()
	results := make([]ValidationResult, 0, len(files))
	invalid := 0
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)

		_, err := conv.Transform(ctx, cc, converter.NewLabeledPathSource(file, sourceLabel(file)))
		vr := ValidationResult{Source: file, Valid: err == nil}
		if err != nil {
			te, ok := failure.AsTransformError(err)
			if !ok {
				return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", file), err)
			}
			vr.Kind = te.Kind()
			vr.Payload = &te.Payload
			invalid++
		}
		results = append(results, vr)
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: results}
		if invalid > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeConversionFailed,
				Message: fmt.Sprintf("%d of %d document(s) invalid", invalid, len(files)),
			}
		}
		if err := formatter.writeJSON(resp); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, results)
	}

	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d document(s) invalid", invalid, len(files)))
	}
	return nil
}

func outputValidateText(f *OutputFormatter, results []ValidationResult) {
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(f.Writer, "✓ %s\n", r.Source)
			continue
		}
		fmt.Fprintf(f.Writer, "✗ %s (%s, %d error(s))\n", r.Source, r.Kind, r.Payload.DetailCount())

		var rows [][]any
		for _, e := range r.Payload.Errors {
			for _, d := range e.Details {
				rows = append(rows, []any{len(rows) + 1, d.Message, d.Path})
			}
		}
		f.Table([]string{"#", "Message", "Path"}, rows)
	}
}
