package store

import (
	"github.com/roach88/qppconv/internal/failure"
)

// Status is the outcome of a conversion.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Conversion is one audit record.
type Conversion struct {
	// ID is the request ID assigned by the converter.
	ID string

	// Seq is assigned by RecordConversion when zero.
	Seq int64

	Source string

	// Scopes lists the selected scope names; empty means the full universe.
	Scopes []string

	Status Status

	// ErrorKind is the type of the first error group of a failed run.
	ErrorKind failure.Kind

	// OutputHash is the content hash of a successful run's output.
	OutputHash string

	// Errors is the payload of a failed run.
	Errors failure.AllErrors

	ConverterVersion string
}

// ErrorCount returns the number of top-level details in Errors.
func (c Conversion) ErrorCount() int {
	return c.Errors.DetailCount()
}

// Filter narrows ListConversions. Zero fields match everything.
type Filter struct {
	Status Status

	// Source matches a recorded source exactly or by its final
	// slash-separated element, so "report.xml" finds "in/report.xml".
	Source string

	// Limit keeps only the most recent records when positive.
	Limit int
}

// MessageCount is the number of recorded details with one message.
type MessageCount struct {
	Message string
	Count   int
}
