// Package failure defines the structured error model of a conversion.
//
// A conversion fails in exactly two ways. A fatal decode error aborts tree
// construction immediately. An aggregate failure is raised once, after the
// whole tree was validated (or encoded), and carries every collected Detail.
// Both reach callers as a *TransformError whose payload serializes to the
// documented error schema.
package failure

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// Kind categorizes a top-level error group.
type Kind string

const (
	// KindValidation groups business-rule violations.
	KindValidation Kind = "ValidationError"

	// KindDecode marks a fatal problem while building the tree.
	KindDecode Kind = "DecodeError"

	// KindEncode groups failures raised by encoders.
	KindEncode Kind = "EncodeError"

	// KindParse marks input that is not a well-formed document.
	KindParse Kind = "ParseError"
)

// Detail is one located problem.
type Detail struct {
	Message string   `json:"message"`
	Path    string   `json:"path,omitempty"`
	Details []Detail `json:"details,omitempty"`
}

// NewDetail returns a Detail for message at path.
func NewDetail(message, path string) Detail {
	return Detail{Message: message, Path: path}
}

// Error is a top-level group of details.
type Error struct {
	SourceIdentifier string   `json:"sourceIdentifier,omitempty"`
	Type             Kind     `json:"type,omitempty"`
	Message          string   `json:"message,omitempty"`
	Details          []Detail `json:"details"`
}

// AllErrors is the serialized failure payload.
type AllErrors struct {
	Errors []Error `json:"errors"`
}

// Add appends a group.
func (a *AllErrors) Add(e Error) {
	a.Errors = append(a.Errors, e)
}

// Empty reports whether no group holds a detail.
func (a AllErrors) Empty() bool {
	return a.DetailCount() == 0
}

// DetailCount returns the number of top-level details across all groups.
func (a AllErrors) DetailCount() int {
	n := 0
	for _, e := range a.Errors {
		n += len(e.Details)
	}
	return n
}

// Messages returns every top-level detail message in order.
func (a AllErrors) Messages() []string {
	var out []string
	for _, e := range a.Errors {
		for _, d := range e.Details {
			out = append(out, d.Message)
		}
	}
	return out
}

// JSON renders the payload with two-space indentation.
func (a AllErrors) JSON() ([]byte, error) {
	if a.Errors == nil {
		a.Errors = []Error{}
	}
	return json.MarshalIndent(a, "", "  ")
}

// ParseAllErrors decodes a payload produced by JSON.
func ParseAllErrors(data []byte) (AllErrors, error) {
	var a AllErrors
	if err := json.Unmarshal(data, &a); err != nil {
		return AllErrors{}, fmt.Errorf("parse error payload: %w", err)
	}
	return a, nil
}

// TransformError is the single failure that crosses the conversion
// boundary.
type TransformError struct {
	// Payload holds every collected group.
	Payload AllErrors

	// cause is the underlying error for fatal failures.
	cause error
}

// Error implements the error interface.
func (e *TransformError) Error() string {
	n := e.Payload.DetailCount()
	msgs := e.Payload.Messages()
	switch {
	case n == 0:
		return "transform failed"
	case n == 1:
		return fmt.Sprintf("transform failed: %s", msgs[0])
	default:
		return fmt.Sprintf("transform failed: %d errors: %s", n, strings.Join(msgs, "; "))
	}
}

// Unwrap returns the fatal cause, if any.
func (e *TransformError) Unwrap() error {
	return e.cause
}

// Kind returns the type of the first group, or "" for an empty payload.
func (e *TransformError) Kind() Kind {
	if len(e.Payload.Errors) == 0 {
		return ""
	}
	return e.Payload.Errors[0].Type
}

// NewTransformError wraps a payload.
func NewTransformError(payload AllErrors) *TransformError {
	return &TransformError{Payload: payload}
}

// Aggregate builds the aggregate failure for collected details.
func Aggregate(source string, kind Kind, details []Detail) *TransformError {
	msg := "Validation errors"
	if kind == KindEncode {
		msg = "Encoding errors"
	}
	return NewTransformError(AllErrors{Errors: []Error{{
		SourceIdentifier: source,
		Type:             kind,
		Message:          msg,
		Details:          details,
	}}})
}

// Fatal builds the failure for an error that aborted the pipeline. A
// *DecodeError contributes its path.
func Fatal(source string, kind Kind, err error) *TransformError {
	d := Detail{Message: err.Error()}
	var de *DecodeError
	if errors.As(err, &de) {
		d = Detail{Message: de.Message, Path: de.Path}
		if de.Err != nil {
			d.Message = de.Message + ": " + de.Err.Error()
		}
	}
	te := NewTransformError(AllErrors{Errors: []Error{{
		SourceIdentifier: source,
		Type:             kind,
		Message:          "The file is not a valid QRDA-III XML document",
		Details:          []Detail{d},
	}}})
	te.cause = err
	return te
}

// AsTransformError extracts a *TransformError from err's chain.
func AsTransformError(err error) (*TransformError, bool) {
	var te *TransformError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// DecodeError is a fatal problem found while building the tree.
type DecodeError struct {
	// Path locates the offending element.
	Path string

	// Message is a human-readable description.
	Message string

	// Err is the underlying parse failure, if any.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("decode")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError creates a DecodeError.
func NewDecodeError(path, message string, err error) *DecodeError {
	return &DecodeError{Path: path, Message: message, Err: err}
}

// IsDecodeError reports whether err's chain holds a *DecodeError.
// Uses errors.As to handle wrapped errors.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
