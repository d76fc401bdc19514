package converter

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/ir"
	"github.com/roach88/qppconv/internal/logging"
	"github.com/roach88/qppconv/internal/scope"
	"github.com/roach88/qppconv/internal/store"
	"github.com/roach88/qppconv/internal/testutil"
	"github.com/roach88/qppconv/internal/validate"
)

func newTestConverter(opts ...Option) *Converter {
	base := []Option{
		WithLogger(logging.Discard()),
		WithIDGenerator(NewFixedIDGenerator("")),
	}
	return New(append(base, opts...)...)
}

func fixtureSource(t *testing.T, name string) Source {
	t.Helper()
	return NewPathSource(testutil.FixturePath(t, name))
}

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func transformError(t *testing.T, err error) *failure.TransformError {
	t.Helper()
	require.Error(t, err)
	te, ok := failure.AsTransformError(err)
	require.True(t, ok, "expected *failure.TransformError, got %T: %v", err, err)
	return te
}

func TestTransform_ValidDocumentGolden(t *testing.T) {
	res, err := newTestConverter().Transform(context.Background(), nil, fixtureSource(t, "valid-qrda-iii.xml"))
	require.NoError(t, err)

	assert.Equal(t, "test-request-default", res.RequestID)
	assert.Equal(t, "valid-qrda-iii.xml", res.Source)
	assert.Empty(t, res.Scopes)

	out, err := res.JSON()
	require.NoError(t, err)
	golden(t).Assert(t, "valid-full", out)
}

func TestTransform_ByteIdentical(t *testing.T) {
	c := newTestConverter()
	data := testutil.Fixture(t, "valid-qrda-iii.xml")

	first, err := c.Transform(context.Background(), nil, NewBytesSource("a.xml", data))
	require.NoError(t, err)
	second, err := c.Transform(context.Background(), nil, NewBytesSource("a.xml", data))
	require.NoError(t, err)

	assert.Equal(t, ir.MustMarshal(first.Output), ir.MustMarshal(second.Output))
	assert.Equal(t, first.Hash, second.Hash)
	assert.NotEmpty(t, first.Hash)
}

func TestTransform_MissingProgramName(t *testing.T) {
	_, err := newTestConverter().Transform(context.Background(), nil, fixtureSource(t, "missing-program-name.xml"))
	te := transformError(t, err)

	assert.Equal(t, failure.KindValidation, te.Kind())
	assert.Contains(t, te.Payload.Messages(), validate.ContainsProgramName)

	payload, err := te.Payload.JSON()
	require.NoError(t, err)
	golden(t).Assert(t, "missing-program-name-errors", append(payload, '\n'))
}

func TestTransform_PINumeratorDenominatorScope(t *testing.T) {
	cc := NewContext().SetScope(scope.PINumeratorDenominator)

	_, err := newTestConverter().Transform(context.Background(), cc, fixtureSource(t, "invalid-qrda-iii.xml"))
	te := transformError(t, err)

	assert.Equal(t, []string{
		validate.PIMissingMeasureID,
		validate.PIMissingNumerator,
		validate.AggregateCountNotInteger,
		validate.PINumeratorExceedsDenominator,
		validate.NumeratorMissingCount,
	}, te.Payload.Messages())
	assert.Equal(t, 5, te.Payload.DetailCount())
}

func TestTransform_ScopedDetailCounts(t *testing.T) {
	tests := []struct {
		scopes []string
		want   int
	}{
		{nil, 8},
		{[]string{"CLINICAL_DOCUMENT"}, 8},
		{[]string{"PI_NUMERATOR_DENOMINATOR"}, 5},
		{[]string{"IA Section"}, 2},
		{[]string{"pi_aggregate_count"}, 1},
		{[]string{"IA_SECTION", "PI_AGGREGATE_COUNT"}, 3},
	}
	c := newTestConverter()
	for _, tt := range tests {
		cc := NewContext()
		require.NoError(t, cc.SetScopeNames(tt.scopes...))

		_, err := c.Transform(context.Background(), cc, fixtureSource(t, "invalid-qrda-iii.xml"))
		te := transformError(t, err)
		assert.Equal(t, tt.want, te.Payload.DetailCount(), "scopes %v", tt.scopes)
	}
}

func TestTransform_DetailsCarryPaths(t *testing.T) {
	_, err := newTestConverter().Transform(context.Background(), nil, fixtureSource(t, "invalid-qrda-iii.xml"))
	te := transformError(t, err)

	for _, d := range te.Payload.Errors[0].Details {
		assert.NotEmpty(t, d.Path, d.Message)
	}
	assert.Equal(t, "invalid-qrda-iii.xml", te.Payload.Errors[0].SourceIdentifier)
}

func TestTransform_SkipValidationSurfacesEncodeErrors(t *testing.T) {
	cc := NewContext().SetDoValidation(false)

	_, err := newTestConverter().Transform(context.Background(), cc, fixtureSource(t, "invalid-qrda-iii.xml"))
	te := transformError(t, err)

	assert.Equal(t, failure.KindEncode, te.Kind())
	assert.Equal(t, "Encoding errors", te.Payload.Errors[0].Message)
	assert.Equal(t, 2, te.Payload.DetailCount(), "measure performed X and aggregate count abc")
}

func TestTransform_SkipValidationOnValidDocument(t *testing.T) {
	cc := NewContext().SetDoValidation(false)
	c := newTestConverter()

	skipped, err := c.Transform(context.Background(), cc, fixtureSource(t, "valid-qrda-iii.xml"))
	require.NoError(t, err)
	checked, err := c.Transform(context.Background(), nil, fixtureSource(t, "valid-qrda-iii.xml"))
	require.NoError(t, err)
	assert.Equal(t, checked.Hash, skipped.Hash)
}

func TestTransform_FatalDecodeError(t *testing.T) {
	_, err := newTestConverter().Transform(context.Background(), nil, fixtureSource(t, "bad-reporting-period.xml"))
	te := transformError(t, err)

	assert.Equal(t, failure.KindDecode, te.Kind())
	require.Equal(t, 1, te.Payload.DetailCount())
	assert.Contains(t, te.Payload.Errors[0].Details[0].Path, "low[1]")
	assert.True(t, failure.IsDecodeError(err), "cause stays reachable")
}

func TestTransform_ParseError(t *testing.T) {
	_, err := newTestConverter().Transform(context.Background(), nil, NewBytesSource("junk.xml", []byte("<ClinicalDocument>")))
	te := transformError(t, err)

	assert.Equal(t, failure.KindParse, te.Kind())
	assert.Equal(t, "The file is not a valid QRDA-III XML document", te.Payload.Errors[0].Message)
}

func TestTransform_MissingFile(t *testing.T) {
	_, err := newTestConverter().Transform(context.Background(), nil, NewPathSource(filepath.Join(t.TempDir(), "nope.xml")))
	require.Error(t, err)
	_, ok := failure.AsTransformError(err)
	assert.False(t, ok, "I/O errors are not conversion failures")
}

func TestTransform_ScopedOutput(t *testing.T) {
	cc := NewContext().SetScope(scope.IASection)

	res, err := newTestConverter().Transform(context.Background(), cc, fixtureSource(t, "valid-qrda-iii.xml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"IA_SECTION"}, res.Scopes)
	obj, ok := res.Output.(ir.Object)
	require.True(t, ok)
	assert.Contains(t, obj, "scoped")
}

func TestTransform_RecordsOutcomes(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ids := NewFixedIDGenerator("ok-1")
	c := newTestConverter(WithRecorder(s), WithIDGenerator(ids))
	res, err := c.Transform(context.Background(), nil, fixtureSource(t, "valid-qrda-iii.xml"))
	require.NoError(t, err)

	c = newTestConverter(WithRecorder(s), WithIDGenerator(NewFixedIDGenerator("bad-1")))
	cc := NewContext().SetScope(scope.PINumeratorDenominator)
	_, err = c.Transform(context.Background(), cc, fixtureSource(t, "invalid-qrda-iii.xml"))
	require.Error(t, err)

	ctx := context.Background()
	ok, err := s.GetConversion(ctx, "ok-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusSuccess, ok.Status)
	assert.Equal(t, res.Hash, ok.OutputHash)
	assert.Equal(t, ir.ConverterVersion, ok.ConverterVersion)

	bad, err := s.GetConversion(ctx, "bad-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, bad.Status)
	assert.Equal(t, failure.KindValidation, bad.ErrorKind)
	assert.Equal(t, []string{"PI_NUMERATOR_DENOMINATOR"}, bad.Scopes)
	assert.Equal(t, 5, bad.ErrorCount())
}

type failingRecorder struct{}

func (failingRecorder) RecordConversion(context.Context, store.Conversion) (store.Conversion, bool, error) {
	return store.Conversion{}, false, errors.New("disk full")
}

func TestTransform_RecordFailureKeepsResult(t *testing.T) {
	c := newTestConverter(WithRecorder(failingRecorder{}))

	res, err := c.Transform(context.Background(), nil, fixtureSource(t, "valid-qrda-iii.xml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NotNil(t, res)
	assert.NotNil(t, res.Output)

	_, err = c.Transform(context.Background(), nil, fixtureSource(t, "invalid-qrda-iii.xml"))
	_, ok := failure.AsTransformError(err)
	assert.True(t, ok, "a conversion failure wins over a recording failure")
}

func TestTransform_Concurrent(t *testing.T) {
	c := newTestConverter()
	data := testutil.Fixture(t, "valid-qrda-iii.xml")

	want, err := c.Transform(context.Background(), nil, NewBytesSource("a.xml", data))
	require.NoError(t, err)

	var wg sync.WaitGroup
	hashes := make([]string, 16)
	for i := range hashes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cc := NewContext()
			if i%2 == 1 {
				cc.SetScope(scope.ClinicalDocument)
			}
			res, err := c.Transform(context.Background(), cc, NewBytesSource("a.xml", data))
			if assert.NoError(t, err) {
				hashes[i] = res.Hash
			}
		}(i)
	}
	wg.Wait()

	for i, h := range hashes {
		assert.Equal(t, want.Hash, h, "goroutine %d", i)
	}
}
