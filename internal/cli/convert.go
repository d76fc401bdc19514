package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/qppconv/internal/converter"
	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/ir"
	"github.com/roach88/qppconv/internal/store"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	Scopes         []string
	SkipValidation bool
	Database       string
	OutputDir      string
	Parallel       int
	Compact        bool
}

// FileResult is the outcome of converting one input file.
type FileResult struct {
	Source    string       `json:"source"`
	Status    string       `json:"status"` // "success", "failed" or "error"
	RequestID string       `json:"request_id,omitempty"`
	Output    string       `json:"output,omitempty"`
	Kind      failure.Kind `json:"kind,omitempty"`
	Errors    int          `json:"errors"`
	Message   string       `json:"message,omitempty"`
}

// status values for FileResult beyond store.Status.
const statusError = "error"

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert <file.xml>...",
		Short: "Convert QRDA-III documents to QPP JSON",
		Long: `Convert one or more QRDA-III documents.

A successful conversion writes <name>-qpp.json; a failed one writes
<name>-error.json with every collected detail. Files are written next to
each input unless --output-dir is set. When two inputs would share an
output name, the later one in argument order gets a -2, -3, ... suffix.
Independent files are converted concurrently with --parallel.

Exit codes:
  0 - All documents converted
  1 - One or more documents failed conversion
  2 - Command error (unreadable input, bad flags, database error)

Examples:
  qppconv convert report.xml
  qppconv convert a.xml b.xml c.xml --parallel 4 --output-dir out
  qppconv convert report.xml --scope IA_SECTION --scope PI_SECTION
  qppconv convert report.xml --db audit.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Scopes, "scope", nil, "restrict conversion to scope (repeatable)")
	cmd.Flags().BoolVar(&opts.SkipValidation, "skip-validation", false, "skip the validation phase")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite audit database")
	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "directory for output files")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 1, "number of concurrent conversions")
	cmd.Flags().BoolVar(&opts.Compact, "compact", false, "write compact JSON")

	return cmd
}

// resolve fills unset flags from the config.
func (o *ConvertOptions) resolve(cmd *cobra.Command) {
	cfg := o.settings()
	flags := cmd.Flags()
	if !flags.Changed("scope") {
		o.Scopes = cfg.Scopes
	}
	if !flags.Changed("skip-validation") {
		o.SkipValidation = !cfg.Validation
	}
	if !flags.Changed("db") {
		o.Database = cfg.DB
	}
	if !flags.Changed("output-dir") {
		o.OutputDir = cfg.OutputDir
	}
	if !flags.Changed("parallel") {
		o.Parallel = cfg.Parallel
	}
	if !flags.Changed("compact") {
		o.Compact = !cfg.Pretty
	}
}

func runConvert(ctx context.Context, opts *ConvertOptions, files []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts.resolve(cmd)
	formatter := opts.formatter(cmd)

	if opts.Parallel < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--parallel must be at least 1, got %d", opts.Parallel))
	}

	cc := converter.NewContext().SetDoValidation(!opts.SkipValidation)
	if err := cc.SetScopeNames(opts.Scopes...); err != nil {
		return WrapExitError(ExitCommandError, "invalid scope", err)
	}

	var convOpts []converter.Option
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		convOpts = append(convOpts, converter.WithRecorder(st))
	}
	conv := converter.New(convOpts...)

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return WrapExitError(ExitCommandError, "failed to create output directory", err)
		}
	}

	formatter.VerboseLog("Converting %d file(s) with parallelism %d", len(files), opts.Parallel)

	stems := planOutputs(files, opts.OutputDir)
	for i, file := range files {
		if stems[i] != outputStem(file, opts.OutputDir) {
			formatter.VerboseLog("%s: output name taken, writing %s", file, stems[i]+"-*.json")
		}
	}

	results := make([]FileResult, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallel)
	for i, file := range files {
		g.Go(func() error {
			results[i] = convertFile(gCtx, conv, cc, file, stems[i], opts.Compact)
			return nil
		})
	}
	_ = g.Wait()

	return outputConvertResults(formatter, results)
}

// convertFile converts one file and writes its output or error payload to
// stem plus the matching suffix.
func convertFile(ctx context.Context, conv *converter.Converter, cc *converter.Context, path, stem string, compact bool) FileResult {
	fr := FileResult{Source: path}

	res, err := conv.Transform(ctx, cc, converter.NewLabeledPathSource(path, sourceLabel(path)))
	te, isTransform := failure.AsTransformError(err)

	switch {
	case res != nil:
		fr.Status = string(store.StatusSuccess)
		fr.RequestID = res.RequestID
		if err != nil {
			fr.Message = err.Error()
		}
		data, werr := renderOutput(res.Output, compact)
		if werr != nil {
			return errorResult(fr, werr)
		}
		fr.Output, werr = writeOutput(stem+"-qpp.json", data)
		if werr != nil {
			return errorResult(fr, werr)
		}
	case isTransform:
		fr.Status = string(store.StatusFailed)
		fr.Kind = te.Kind()
		fr.Errors = te.Payload.DetailCount()
		fr.Message = te.Error()
		data, werr := te.Payload.JSON()
		if werr != nil {
			return errorResult(fr, werr)
		}
		fr.Output, werr = writeOutput(stem+"-error.json", append(data, '\n'))
		if werr != nil {
			return errorResult(fr, werr)
		}
	default:
		return errorResult(fr, err)
	}
	return fr
}

func errorResult(fr FileResult, err error) FileResult {
	fr.Status = statusError
	fr.Message = err.Error()
	return fr
}

// renderOutput renders the converted document.
func renderOutput(v ir.Value, compact bool) ([]byte, error) {
	if !compact {
		return ir.Indent(v)
	}
	data, err := ir.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// sourceLabel names an input in error payloads and audit records: the
// cleaned path with forward slashes, so inputs sharing a base name stay
// distinguishable.
func sourceLabel(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// outputStem is the output path for input without its suffix: the
// extension is dropped, and dir (if set) replaces the directory.
func outputStem(input, dir string) string {
	base := filepath.Base(input)
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base)))
}

// planOutputs returns one distinct output stem per input. The first input
// claiming a stem keeps it; later ones get the first free -N suffix,
// skipping stems another input would claim naturally. Stems are compared
// case-insensitively.
func planOutputs(files []string, dir string) []string {
	key := func(stem string) string { return strings.ToLower(stem) }

	natural := make(map[string]bool, len(files))
	for _, f := range files {
		natural[key(outputStem(f, dir))] = true
	}

	stems := make([]string, len(files))
	used := make(map[string]bool, len(files))
	for i, f := range files {
		stem := outputStem(f, dir)
		if used[key(stem)] {
			base := stem
			for n := 2; ; n++ {
				stem = fmt.Sprintf("%s-%d", base, n)
				if !used[key(stem)] && !natural[key(stem)] {
					break
				}
			}
		}
		used[key(stem)] = true
		stems[i] = stem
	}
	return stems
}

func writeOutput(path string, data []byte) (string, error) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// outputConvertResults reports the batch and maps it to an exit code.
func outputConvertResults(f *OutputFormatter, results []FileResult) error {
	var failed, errored int
	for _, r := range results {
		switch r.Status {
		case string(store.StatusFailed):
			failed++
		case statusError:
			errored++
		}
	}

	if f.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: results}
		if failed+errored > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeConversionFailed,
				Message: fmt.Sprintf("%d of %d conversion(s) failed", failed+errored, len(results)),
			}
		}
		if err := f.writeJSON(resp); err != nil {
			return err
		}
	} else {
		rows := make([][]any, len(results))
		for i, r := range results {
			detail := r.Output
			if r.Status == statusError {
				detail = r.Message
			}
			rows[i] = []any{r.Source, r.Status, r.Errors, detail}
		}
		f.Table([]string{"Source", "Status", "Errors", "Output"}, rows)
		for _, r := range results {
			if r.Status == string(store.StatusSuccess) && r.Message != "" {
				fmt.Fprintf(f.GetErrWriter(), "warning: %s: %s\n", r.Source, r.Message)
			}
		}
	}

	switch {
	case errored > 0:
		return NewExitError(ExitCommandError, fmt.Sprintf("%d file(s) could not be converted", errored))
	case failed > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d conversion(s) failed", failed, len(results)))
	}
	return nil
}
