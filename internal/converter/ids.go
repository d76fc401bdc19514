package converter

import "github.com/google/uuid"

// IDGenerator generates request IDs for conversions.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 request IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// DefaultFixedID is the request ID of a FixedIDGenerator created with an
// empty id.
const DefaultFixedID = "test-request-default"

// FixedIDGenerator returns the same request ID on every call, so repeated
// conversions produce identical audit records. Scenario runs set the ID
// from the scenario file:
//
//	request_id: "00000000-0000-7000-8000-000000000001"
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator returns a generator for id, or DefaultFixedID when
// id is empty.
func NewFixedIDGenerator(id string) FixedIDGenerator {
	if id == "" {
		id = DefaultFixedID
	}
	return FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
func (g FixedIDGenerator) Generate() string {
	return g.id
}
