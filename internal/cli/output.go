package cli

import (
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a document or scenario failed
	ExitCommandError = 2 // the command itself could not run
)

// Codes carried in CLIError.Code.
const (
	ErrCodeGeneric          = "E_GENERIC"
	ErrCodeConversionFailed = "E_CONVERSION_FAILED"
	ErrCodeTestFailed       = "E_TEST_FAILED"
	ErrCodeNotFound         = "E_NOT_FOUND"
)

// ExitError is an error that selects the process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError with no cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to an exit code. Errors that carry no code exit
// with ExitFailure.
func GetExitCode(err error) int {
	var ee *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ee):
		return ee.Code
	default:
		return ExitFailure
	}
}

// CLIResponse wraps every JSON document a command prints.
type CLIResponse struct {
	Status    string    `json:"status"`
	Data      any       `json:"data,omitempty"`
	Error     *CLIError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// CLIError describes a failed command in JSON output.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or as a JSON envelope.
// Diagnostics go to ErrWriter, or to Writer when ErrWriter is nil.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

// Success prints data, wrapped in an "ok" envelope for JSON output.
func (f *OutputFormatter) Success(data any) error {
	if !f.isJSON() {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return f.writeJSON(CLIResponse{Status: "ok", Data: data})
}

// Error prints a failure. Text output shows details only when verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return f.writeJSON(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Table prints header and rows as a box-drawn table.
func (f *OutputFormatter) Table(header []string, rows [][]any) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(toRow(header))
	for _, r := range rows {
		tw.AppendRow(r)
	}
	fmt.Fprintln(f.Writer, tw.Render())
}

// VerboseLog prints a diagnostic line when verbose is set.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter returns the diagnostics writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter == nil {
		return f.Writer
	}
	return f.ErrWriter
}

func (f *OutputFormatter) writeJSON(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
