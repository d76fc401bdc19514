// Package harness runs conformance scenarios against the converter.
//
// A scenario names one input document, the scopes and validation setting to
// convert it with, and what the conversion must produce. Scenarios are
// YAML files:
//
//	name: pi_numerator_denominator_scope
//	description: "PI pairing rules report in document order"
//	input: ../fixtures/invalid-qrda-iii.xml
//	scopes: [PI_NUMERATOR_DENOMINATOR]
//	request_id: scenario-pi-nd
//	expect:
//	  status: failed
//	  kind: ValidationError
//	  error_count: 5
//	  messages:
//	    - "PI Numerator must not be greater than its Denominator"
//	assertions:
//	  - type: message_order
//	    messages:
//	      - "PI Numerator Denominator must have a measure id"
//	      - "Aggregate Count must be an integer"
//	  - type: record
//	    expect: { status: failed, error_count: 5 }
//	golden: pi-numerator-denominator-errors
//
// The input path is resolved relative to the scenario file.
//
// # Assertion Types
//
//   - message_contains: a detail with the message exists, optionally with a
//     path containing the given fragment
//   - message_order: messages appear in the given relative order
//   - message_count: a message appears exactly N times
//   - output_field: a dotted path into the output equals a value
//   - record: the audit record written for the conversion has the given
//     fields
//
// # Deterministic Runs
//
// Every run uses a fixed request ID (request_id, or "test-request-default")
// and a fresh audit store in a temporary directory, so identical scenarios
// produce identical records and snapshots.
//
// # Golden Snapshots
//
// When golden is set, the snapshot is compared to golden/<golden>.golden
// next to the scenario file. A successful conversion snapshots the indented
// output document; a failed one snapshots the indented error payload.
//
//	go test ./internal/harness -update
//
// regenerates them.
package harness
