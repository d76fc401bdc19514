package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qppconv/internal/failure"
)

func TestRecordConversion_AssignsSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, inserted, err := s.RecordConversion(ctx, successRecord("c1", "a.xml"))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(1), first.Seq)

	second, _, err := s.RecordConversion(ctx, successRecord("c2", "b.xml"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Seq)
}

func TestRecordConversion_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := failedRecord("c1", "bad.xml", "first", "second")
	_, _, err := s.RecordConversion(ctx, want)
	require.NoError(t, err)

	got, err := s.GetConversion(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, failure.KindValidation, got.ErrorKind)
	assert.Equal(t, []string{"CLINICAL_DOCUMENT"}, got.Scopes)
	assert.Equal(t, 2, got.ErrorCount())
	assert.Equal(t, want.Errors, got.Errors)
	assert.Empty(t, got.OutputHash)
}

func TestRecordConversion_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, _, err := s.RecordConversion(ctx, successRecord("c1", "a.xml"))
	require.NoError(t, err)

	again := successRecord("c1", "other.xml")
	rec, inserted, err := s.RecordConversion(ctx, again)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.Seq, rec.Seq)
	assert.Equal(t, "a.xml", rec.Source, "the first record wins")
}

func TestRecordConversion_Invalid(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tests := []Conversion{
		{Source: "a.xml", Status: StatusSuccess},
		{ID: "c1", Status: StatusSuccess},
		{ID: "c1", Source: "a.xml", Status: "pending"},
	}
	for i, c := range tests {
		_, _, err := s.RecordConversion(ctx, c)
		assert.ErrorIs(t, err, ErrInvalidRecord, "case %d", i)
	}
}

func TestRecordConversion_Details(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.RecordConversion(ctx, failedRecord("c1", "bad.xml", "first", "second"))
	require.NoError(t, err)

	details, err := s.Details(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "first", details[0].Message)
	assert.Equal(t, "/ClinicalDocument", details[0].Path)
	assert.Equal(t, "second", details[1].Message)

	none, err := s.Details(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetConversion_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetConversion(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListConversions_Filters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, c := range []Conversion{
		successRecord("c1", "a.xml"),
		failedRecord("c2", "b.xml", "boom"),
		successRecord("c3", "a.xml"),
		failedRecord("c4", "a.xml", "boom"),
	} {
		_, _, err := s.RecordConversion(ctx, c)
		require.NoError(t, err)
	}

	ids := func(cs []Conversion) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.ID
		}
		return out
	}

	all, err := s.ListConversions(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3", "c4"}, ids(all))

	failed, err := s.ListConversions(ctx, Filter{Status: StatusFailed})
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c4"}, ids(failed))

	fromA, err := s.ListConversions(ctx, Filter{Source: "a.xml", Status: StatusSuccess})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c3"}, ids(fromA))

	recent, err := s.ListConversions(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"c3", "c4"}, ids(recent), "most recent, ascending")
}

func TestListConversions_SourceMatchesFinalElement(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, c := range []Conversion{
		successRecord("c1", "a/report.xml"),
		successRecord("c2", "b/report.xml"),
		successRecord("c3", "b/old-report.xml"),
		successRecord("c4", "report.xml"),
		successRecord("c5", "b/REPORT.xml"),
	} {
		_, _, err := s.RecordConversion(ctx, c)
		require.NoError(t, err)
	}

	sources := func(f Filter) []string {
		t.Helper()
		cs, err := s.ListConversions(ctx, f)
		require.NoError(t, err)
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.Source
		}
		return out
	}

	assert.Equal(t, []string{"a/report.xml", "b/report.xml", "report.xml"}, sources(Filter{Source: "report.xml"}))
	assert.Equal(t, []string{"b/report.xml"}, sources(Filter{Source: "b/report.xml"}))
	assert.Empty(t, sources(Filter{Source: "port.xml"}))
}

func TestDeleteConversion_CascadesDetails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.RecordConversion(ctx, failedRecord("c1", "bad.xml", "boom"))
	require.NoError(t, err)
	require.NoError(t, s.DeleteConversion(ctx, "c1"))
	require.NoError(t, s.DeleteConversion(ctx, "c1"))

	details, err := s.Details(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, details)
}

func TestMessageCounts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.RecordConversion(ctx, failedRecord("c1", "a.xml", "missing id", "bad count"))
	require.NoError(t, err)
	_, _, err = s.RecordConversion(ctx, failedRecord("c2", "b.xml", "missing id"))
	require.NoError(t, err)

	counts, err := s.MessageCounts(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []MessageCount{
		{Message: "missing id", Count: 2},
		{Message: "bad count", Count: 1},
	}, counts)

	top, err := s.MessageCounts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestClock_ResumesAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, _, err = s.RecordConversion(ctx, successRecord("c1", "a.xml"))
	require.NoError(t, err)
	_, _, err = s.RecordConversion(ctx, successRecord("c2", "a.xml"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	rec, _, err := s.RecordConversion(ctx, successRecord("c3", "a.xml"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.Seq)
}

func TestRecordConversion_Concurrent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := s.RecordConversion(ctx, successRecord(fmt.Sprintf("c%02d", i), "a.xml"))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := s.ListConversions(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 20)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Seq, all[i].Seq)
	}
}

func TestClock(t *testing.T) {
	c := NewClockAt(41)
	assert.Equal(t, int64(41), c.Current())
	assert.Equal(t, int64(42), c.Next())
	assert.Equal(t, int64(42), c.Current())
}
