package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/qppconv/internal/converter"
	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/logging"
	"github.com/roach88/qppconv/internal/store"
)

// Harness runs scenarios with a fixed request ID and an isolated audit
// store.
type Harness struct {
	conv   *converter.Converter
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh audit store in a temporary directory.
// Mismatches against the scenario's expectations are reported in
// Result.Errors; the returned error is reserved for problems running the
// scenario at all (unreadable input, store failures).
//
// Execution flow:
// 1. Open a temporary audit store
// 2. Convert the input with the scenario's scopes and validation setting
// 3. Read back the audit record
// 4. Check expect and assertions
// 5. Render the golden snapshot
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "qppconv-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "audit.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to create audit store: %w", err)
	}
	defer st.Close()

	logger := logging.New("harness").With(slog.String("scenario", scenario.Name))
	h := &Harness{
		conv: converter.New(
			converter.WithIDGenerator(converter.NewFixedIDGenerator(scenario.RequestID)),
			converter.WithRecorder(st),
			converter.WithLogger(logger),
		),
		store:  st,
		logger: logger,
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	cc := converter.NewContext().SetDoValidation(scenario.DoValidation())
	if err := cc.SetScopeNames(scenario.Scopes...); err != nil {
		return nil, err
	}

	result := NewResult()
	res, err := h.conv.Transform(ctx, cc, converter.NewPathSource(scenario.Input))
	switch te, isTransform := failure.AsTransformError(err); {
	case err == nil:
		result.RequestID = res.RequestID
		result.Status = store.StatusSuccess
		result.Output = res.Output
		if result.Snapshot, err = res.JSON(); err != nil {
			return nil, fmt.Errorf("failed to render output: %w", err)
		}
	case isTransform:
		result.Status = store.StatusFailed
		result.Kind = te.Kind()
		for _, e := range te.Payload.Errors {
			result.Details = append(result.Details, e.Details...)
		}
		payload, err := te.Payload.JSON()
		if err != nil {
			return nil, fmt.Errorf("failed to render error payload: %w", err)
		}
		result.Snapshot = append(payload, '\n')
	default:
		return nil, err
	}

	records, err := h.store.ListConversions(ctx, store.Filter{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to read audit record: %w", err)
	}
	if len(records) == 1 {
		result.Record = &records[0]
		result.RequestID = records[0].ID
	}

	h.checkExpect(scenario.Expect, result)
	for _, assertion := range scenario.Assertions {
		if err := evaluateAssertion(assertion, result); err != nil {
			result.AddError(err.Error())
		}
	}

	h.logger.Debug("scenario finished", "pass", result.Pass, "status", result.Status, "errors", len(result.Errors))
	return result, nil
}

func (h *Harness) checkExpect(expect Expect, result *Result) {
	if string(result.Status) != expect.Status {
		result.AddError(fmt.Sprintf("status: expected %s, got %s (%v)", expect.Status, result.Status, result.Messages()))
		return
	}
	if expect.Kind != "" && string(result.Kind) != expect.Kind {
		result.AddError(fmt.Sprintf("kind: expected %s, got %s", expect.Kind, result.Kind))
	}
	if expect.ErrorCount != nil && len(result.Details) != *expect.ErrorCount {
		result.AddError(fmt.Sprintf("error_count: expected %d, got %d (%v)", *expect.ErrorCount, len(result.Details), result.Messages()))
	}
	messages := result.Messages()
	for _, want := range expect.Messages {
		if !slices.Contains(messages, want) {
			result.AddError(fmt.Sprintf("messages: %q not reported", want))
		}
	}
}
