package store

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/ir"
)

// marshalScopes serializes scope names to canonical JSON.
// An empty list is stored as "[]".
func marshalScopes(scopes []string) (string, error) {
	arr := ir.NewArray()
	for _, s := range scopes {
		arr = append(arr, ir.String(s))
	}
	data, err := ir.Marshal(arr)
	if err != nil {
		return "", fmt.Errorf("marshal scopes: %w", err)
	}
	return string(data), nil
}

// unmarshalScopes decodes a scope list written by marshalScopes.
func unmarshalScopes(data string) ([]string, error) {
	if data == "" {
		return nil, nil
	}
	var scopes []string
	if err := json.Unmarshal([]byte(data), &scopes); err != nil {
		return nil, fmt.Errorf("unmarshal scopes: %w", err)
	}
	if len(scopes) == 0 {
		return nil, nil
	}
	return scopes, nil
}

// marshalErrors serializes a failure payload compactly.
// An empty payload is stored as "".
func marshalErrors(a failure.AllErrors) (string, error) {
	if len(a.Errors) == 0 {
		return "", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("marshal errors: %w", err)
	}
	return string(data), nil
}

// unmarshalErrors decodes a payload written by marshalErrors.
func unmarshalErrors(data string) (failure.AllErrors, error) {
	if data == "" {
		return failure.AllErrors{}, nil
	}
	return failure.ParseAllErrors([]byte(data))
}
