package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/qppconv/internal/failure"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// successRecord creates a successful conversion with minimal fields.
func successRecord(id, source string) Conversion {
	return Conversion{
		ID:               id,
		Source:           source,
		Status:           StatusSuccess,
		OutputHash:       "qppconv-output-" + id,
		ConverterVersion: "0.1.0",
	}
}

// failedRecord creates a failed validation conversion with one detail per
// message.
func failedRecord(id, source string, messages ...string) Conversion {
	details := make([]failure.Detail, len(messages))
	for i, m := range messages {
		details[i] = failure.NewDetail(m, "/ClinicalDocument")
	}
	return Conversion{
		ID:               id,
		Source:           source,
		Scopes:           []string{"CLINICAL_DOCUMENT"},
		Status:           StatusFailed,
		ErrorKind:        failure.KindValidation,
		Errors:           failure.Aggregate(source, failure.KindValidation, details).Payload,
		ConverterVersion: "0.1.0",
	}
}

// verifyPragma reports an error unless PRAGMA name reads back as want.
func (s *Store) verifyPragma(name, want string) error {
	var got string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&got); err != nil {
		return fmt.Errorf("read pragma %s: %w", name, err)
	}
	if got != want {
		return fmt.Errorf("pragma %s = %q, want %q", name, got, want)
	}
	return nil
}
