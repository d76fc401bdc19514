package harness

import (
	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/ir"
	"github.com/roach88/qppconv/internal/store"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	RequestID string       `json:"request_id"`
	Status    store.Status `json:"status"`

	// Kind is set only for failed conversions.
	Kind failure.Kind `json:"kind,omitempty"`

	// Details lists every top-level detail of a failed conversion in order.
	Details []failure.Detail `json:"details,omitempty"`

	// Output is the encoded document of a successful conversion.
	Output ir.Value `json:"-"`

	// Snapshot is the golden-comparable rendering of the outcome.
	Snapshot []byte `json:"-"`

	// Record is the audit record written for the conversion.
	Record *store.Conversion `json:"-"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Messages returns the detail messages in order.
func (r *Result) Messages() []string {
	out := make([]string, len(r.Details))
	for i, d := range r.Details {
		out[i] = d.Message
	}
	return out
}
