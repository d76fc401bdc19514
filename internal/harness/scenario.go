package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/scope"
	"github.com/roach88/qppconv/internal/store"
)

// Scenario defines one conformance conversion.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Input is the QRDA-III document to convert. Relative paths are
	// resolved against the scenario file's directory.
	Input string `yaml:"input"`

	// Scopes restricts the conversion. Empty converts the whole document.
	Scopes []string `yaml:"scopes,omitempty"`

	// Validation toggles the validation phase. Defaults to true.
	Validation *bool `yaml:"validation,omitempty"`

	// RequestID is the fixed request ID. If empty, defaults to
	// "test-request-default".
	RequestID string `yaml:"request_id,omitempty"`

	// Expect is the required outcome.
	Expect Expect `yaml:"expect"`

	// Assertions are checked after Expect.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Golden names the snapshot file under golden/ next to the scenario.
	Golden string `yaml:"golden,omitempty"`

	// dir is the directory of the scenario file.
	dir string
}

// Expect specifies the required conversion outcome.
type Expect struct {
	// Status is "success" or "failed".
	Status string `yaml:"status"`

	// Kind is the failure type (e.g. "ValidationError"). Only for failures.
	Kind string `yaml:"kind,omitempty"`

	// ErrorCount is the exact number of top-level details, if set.
	ErrorCount *int `yaml:"error_count,omitempty"`

	// Messages must all appear among the details, in any order.
	Messages []string `yaml:"messages,omitempty"`
}

// Assertion validates the details, output or audit record.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Message is used by message_contains and message_count.
	Message string `yaml:"message,omitempty"`

	// Path is an optional path fragment for message_contains.
	Path string `yaml:"path,omitempty"`

	// Messages is the expected relative order (message_order).
	Messages []string `yaml:"messages,omitempty"`

	// Count is the expected number of occurrences (message_count).
	Count int `yaml:"count,omitempty"`

	// Field is a dotted path into the output, e.g.
	// "measurementSets.1.category" (output_field).
	Field string `yaml:"field,omitempty"`

	// Value is the expected value at Field (output_field).
	Value any `yaml:"value,omitempty"`

	// Expect contains expected audit record fields (record).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertMessageContains = "message_contains"
	AssertMessageOrder    = "message_order"
	AssertMessageCount    = "message_count"
	AssertOutputField     = "output_field"
	AssertRecord          = "record"
)

// record fields understood by the record assertion.
var recordFields = map[string]bool{
	"status":      true,
	"error_kind":  true,
	"error_count": true,
	"source":      true,
	"scopes":      true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scenario path: %w", err)
	}
	return ParseScenario(data, filepath.Dir(abs))
}

// ParseScenario parses scenario YAML. Relative input and golden paths are
// resolved against dir.
func ParseScenario(data []byte, dir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.dir = dir

	if scenario.Input != "" && !filepath.IsAbs(scenario.Input) {
		scenario.Input = filepath.Join(dir, scenario.Input)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the YAML scenario files under dir in lexical
// order. A non-empty filter is a glob matched against the file name
// without extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// DoValidation reports whether the validation phase runs.
func (s *Scenario) DoValidation() bool {
	return s.Validation == nil || *s.Validation
}

// GoldenPath returns the snapshot file path, or "" when Golden is unset.
func (s *Scenario) GoldenPath() string {
	if s.Golden == "" {
		return ""
	}
	return filepath.Join(s.GoldenDir(), s.Golden+".golden")
}

// GoldenDir returns the directory holding the scenario's snapshots.
func (s *Scenario) GoldenDir() string {
	return filepath.Join(s.dir, "golden")
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Input == "" {
		return fmt.Errorf("input is required")
	}
	if _, err := os.Stat(s.Input); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", s.Input)
	}

	if _, err := scope.Parse(s.Scopes); err != nil {
		return fmt.Errorf("scopes: %w", err)
	}

	switch store.Status(s.Expect.Status) {
	case store.StatusSuccess:
		if s.Expect.Kind != "" || len(s.Expect.Messages) > 0 {
			return fmt.Errorf("expect: kind and messages require status %q", store.StatusFailed)
		}
		if s.Expect.ErrorCount != nil && *s.Expect.ErrorCount != 0 {
			return fmt.Errorf("expect: error_count must be 0 for status %q", store.StatusSuccess)
		}
	case store.StatusFailed:
		switch failure.Kind(s.Expect.Kind) {
		case "", failure.KindValidation, failure.KindDecode, failure.KindEncode, failure.KindParse:
		default:
			return fmt.Errorf("expect: unknown kind %q", s.Expect.Kind)
		}
	case "":
		return fmt.Errorf("expect.status is required")
	default:
		return fmt.Errorf("expect: unknown status %q", s.Expect.Status)
	}
	if s.Expect.ErrorCount != nil && *s.Expect.ErrorCount < 0 {
		return fmt.Errorf("expect: error_count must be non-negative")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertMessageContains:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for message_contains", index)
		}
	case AssertMessageOrder:
		if len(a.Messages) == 0 {
			return fmt.Errorf("assertions[%d]: messages list is required for message_order", index)
		}
	case AssertMessageCount:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for message_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for message_count", index)
		}
	case AssertOutputField:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for output_field", index)
		}
	case AssertRecord:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for record", index)
		}
		for key := range a.Expect {
			if !recordFields[key] {
				return fmt.Errorf("assertions[%d]: unknown record field %q", index, key)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
