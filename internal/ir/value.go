package ir

import (
	"fmt"
	"regexp"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the output value kinds.
// Only Null, String, Int, Bool, Decimal, Array and Object implement it.
// There is NO float kind: floats break byte-stable output.
type Value interface {
	irValue() // Sealed
}

// Null is the JSON null value.
type Null struct{}

func (Null) irValue() {}

// String is a string value.
type String string

func (String) irValue() {}

// Int is an integer value. Always int64, never float64.
type Int int64

func (Int) irValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) irValue() {}

// Decimal is a JSON number kept as its source text, so "0.50" stays
// "0.50" instead of round-tripping through float64.
type Decimal string

func (Decimal) irValue() {}

// Array is an ordered list of values.
type Array []Value

func (Array) irValue() {}

// Object maps string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

var decimalPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// ParseDecimal validates text as a plain decimal number (no exponent).
func ParseDecimal(text string) (Decimal, error) {
	if !decimalPattern.MatchString(text) {
		return "", fmt.Errorf("not a decimal number: %q", text)
	}
	return Decimal(text), nil
}

// Pair is a key-value pair for typed Object construction.
type Pair struct {
	Key   string
	Value Value
}

// O is a shorthand for Pair.
// Example: NewObject(O("measureId", String("IA_EPA_1")), O("value", Bool(true)))
func O(key string, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// NewObject creates an Object from pairs. A repeated key keeps its last
// value.
func NewObject(pairs ...Pair) Object {
	obj := make(Object, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// NewArray creates an Array from values. It never returns nil, so an empty
// array serializes as [] rather than null.
func NewArray(vals ...Value) Array {
	if vals == nil {
		return Array{}
	}
	return Array(vals)
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 order, which differs above the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// Clone returns a shallow copy of obj.
func (obj Object) Clone() Object {
	out := make(Object, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	return out
}

// Merge copies every entry of other into obj, overwriting existing keys.
func (obj Object) Merge(other Object) {
	for k, v := range other {
		obj[k] = v
	}
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// MarshalJSON implements json.Marshaler using the canonical form.
func (obj Object) MarshalJSON() ([]byte, error) {
	return Marshal(obj)
}

// MarshalJSON implements json.Marshaler using the canonical form.
func (arr Array) MarshalJSON() ([]byte, error) {
	return Marshal(arr)
}

// FromAny converts plain Go values (as produced by YAML or JSON decoding
// into any) to a Value. Floats are rejected.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in output values: %v", val)
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = conv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
