package harness

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Details  []failure.Detail // Reported details for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Details) > 0 {
		fmt.Fprintf(&buf, "\nReported details:\n")
		for i, d := range e.Details {
			fmt.Fprintf(&buf, "  [%d] %s at %s\n", i+1, d.Message, d.Path)
		}
	}

	return buf.String()
}

// evaluateAssertion dispatches on the assertion type.
func evaluateAssertion(a Assertion, r *Result) error {
	switch a.Type {
	case AssertMessageContains:
		return assertMessageContains(r.Details, a)
	case AssertMessageOrder:
		return assertMessageOrder(r.Details, a)
	case AssertMessageCount:
		return assertMessageCount(r.Details, a)
	case AssertOutputField:
		return assertOutputField(r.Output, a)
	case AssertRecord:
		return assertRecord(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertMessageContains checks that a detail with the message exists and,
// when a path fragment is given, that its path contains it.
func assertMessageContains(details []failure.Detail, a Assertion) error {
	for _, d := range details {
		if d.Message == a.Message && strings.Contains(d.Path, a.Path) {
			return nil
		}
	}

	expected := fmt.Sprintf("detail %q", a.Message)
	if a.Path != "" {
		expected += fmt.Sprintf(" at a path containing %q", a.Path)
	}
	return &AssertionError{
		Type:     AssertMessageContains,
		Expected: expected,
		Actual:   "not reported",
		Details:  details,
	}
}

// assertMessageOrder checks that messages appear in the specified order.
// Messages don't need to be consecutive.
func assertMessageOrder(details []failure.Detail, a Assertion) error {
	next := 0
	for _, d := range details {
		if next < len(a.Messages) && d.Message == a.Messages[next] {
			next++
		}
	}
	if next == len(a.Messages) {
		return nil
	}

	actual := fmt.Sprintf("%q not found after %d matched message(s)", a.Messages[next], next)
	return &AssertionError{
		Type:     AssertMessageOrder,
		Expected: fmt.Sprintf("order %s", strings.Join(quoteAll(a.Messages), " -> ")),
		Actual:   actual,
		Details:  details,
	}
}

// assertMessageCount checks that a message is reported exactly Count times.
func assertMessageCount(details []failure.Detail, a Assertion) error {
	n := 0
	for _, d := range details {
		if d.Message == a.Message {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertMessageCount,
		Expected: fmt.Sprintf("%q reported %d time(s)", a.Message, a.Count),
		Actual:   fmt.Sprintf("reported %d time(s)", n),
		Details:  details,
	}
}

// assertOutputField compares the value at a dotted path of the output with
// the expected value using canonical JSON.
func assertOutputField(output ir.Value, a Assertion) error {
	fail := func(actual string) error {
		return &AssertionError{
			Type:     AssertOutputField,
			Expected: fmt.Sprintf("%s = %v", a.Field, a.Value),
			Actual:   actual,
		}
	}
	if output == nil {
		return fail("no output")
	}

	got, err := lookup(output, a.Field)
	if err != nil {
		return fail(err.Error())
	}
	want, err := ir.FromAny(a.Value)
	if err != nil {
		return fail(fmt.Sprintf("expected value: %v", err))
	}

	gotJSON, err := ir.Marshal(got)
	if err != nil {
		return fail(err.Error())
	}
	wantJSON, err := ir.Marshal(want)
	if err != nil {
		return fail(err.Error())
	}
	if string(gotJSON) != string(wantJSON) {
		return fail(string(gotJSON))
	}
	return nil
}

// lookup walks a dotted path. Numeric segments index arrays.
func lookup(v ir.Value, path string) (ir.Value, error) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case ir.Object:
			next, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("field %q not found", seg)
			}
			cur = next
		case ir.Array:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range (len %d)", seg, len(node))
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %q", cur, seg)
		}
	}
	return cur, nil
}

// assertRecord checks audit record fields (subset match).
func assertRecord(r *Result, a Assertion) error {
	if r.Record == nil {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("record %v", a.Expect),
			Actual:   "no audit record written",
		}
	}

	rec := r.Record
	actual := map[string]string{
		"status":      string(rec.Status),
		"error_kind":  string(rec.ErrorKind),
		"error_count": strconv.Itoa(rec.ErrorCount()),
		"source":      rec.Source,
		"scopes":      strings.Join(rec.Scopes, ","),
	}

	for _, key := range sortedKeys(a.Expect) {
		want := recordValueString(a.Expect[key])
		if actual[key] != want {
			return &AssertionError{
				Type:     AssertRecord,
				Expected: fmt.Sprintf("%s = %s", key, want),
				Actual:   fmt.Sprintf("%s = %s", key, actual[key]),
			}
		}
	}
	return nil
}

// recordValueString renders a YAML value for comparison with a record
// column. Lists join with commas.
func recordValueString(v any) string {
	if list, ok := v.([]any); ok {
		parts := make([]string, len(list))
		for i, elem := range list {
			parts[i] = fmt.Sprint(elem)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strconv.Quote(s)
	}
	return out
}
