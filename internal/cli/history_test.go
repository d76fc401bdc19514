package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qppconv/internal/testutil"
	"github.com/roach88/qppconv/internal/validate"
)

// seedHistory converts three documents into a fresh audit database.
func seedHistory(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "audit.db")
	_, err := executeConvert(t, "text",
		testutil.FixturePath(t, "valid-qrda-iii.xml"),
		testutil.FixturePath(t, "missing-program-name.xml"),
		testutil.FixturePath(t, "invalid-qrda-iii.xml"),
		"-o", t.TempDir(), "--db", db)
	require.Error(t, err, "two of three documents fail")
	return db
}

func executeHistory(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestHistory_List(t *testing.T) {
	db := seedHistory(t)

	buf, err := executeHistory(t, "json", "--db", db)
	require.NoError(t, err)
	var resp struct {
		Data []HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	for i, e := range resp.Data {
		assert.Equal(t, int64(i+1), e.Seq)
		assert.NotEmpty(t, e.ID)
	}

	buf, err = executeHistory(t, "json", "--db", db, "--status", "failed")
	require.NoError(t, err)
	resp.Data = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	for _, e := range resp.Data {
		assert.Equal(t, "failed", e.Status)
		assert.Equal(t, "ValidationError", string(e.ErrorKind))
	}

	buf, err = executeHistory(t, "text", "--db", db, "--source", "valid-qrda-iii.xml")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "valid-qrda-iii.xml")
	assert.NotContains(t, buf.String(), "invalid-qrda-iii.xml")
}

func TestHistory_Show(t *testing.T) {
	db := seedHistory(t)

	buf, err := executeHistory(t, "json", "--db", db, "--source", "missing-program-name.xml")
	require.NoError(t, err)
	var list struct {
		Data []HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &list))
	require.Len(t, list.Data, 1)
	id := list.Data[0].ID

	buf, err = executeHistory(t, "json", "show", id, "--db", db)
	require.NoError(t, err)
	var show struct {
		Data HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &show))
	assert.Equal(t, id, show.Data.ID)
	require.Len(t, show.Data.Details, 2)
	assert.Equal(t, validate.ContainsProgramName, show.Data.Details[0].Message)
	assert.Equal(t, "/ClinicalDocument", show.Data.Details[0].Path)

	buf, err = executeHistory(t, "text", "show", id, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Request ID: "+id)
	assert.Contains(t, buf.String(), "ValidationError, 2 detail(s)")
}

func TestHistory_ShowNotFound(t *testing.T) {
	db := seedHistory(t)

	buf, err := executeHistory(t, "json", "show", "missing", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestHistory_Delete(t *testing.T) {
	db := seedHistory(t)

	buf, err := executeHistory(t, "json", "--db", db, "--source", "missing-program-name.xml")
	require.NoError(t, err)
	var list struct {
		Data []HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &list))
	require.Len(t, list.Data, 1)
	id := list.Data[0].ID

	buf, err = executeHistory(t, "json", "delete", id, "--db", db)
	require.NoError(t, err)
	var resp struct {
		Data DeletedEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, id, resp.Data.ID)
	assert.Contains(t, resp.Data.Source, "missing-program-name.xml")

	buf, err = executeHistory(t, "json", "--db", db)
	require.NoError(t, err)
	list.Data = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &list))
	assert.Len(t, list.Data, 2)

	buf, err = executeHistory(t, "json", "messages", "--db", db)
	require.NoError(t, err)
	var msgs struct {
		Data []MessageEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &msgs))
	total := 0
	for _, m := range msgs.Data {
		total += m.Count
	}
	assert.Equal(t, 8, total, "details of the deleted record are gone")

	_, err = executeHistory(t, "text", "delete", id, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "not found")
}

func TestHistory_Messages(t *testing.T) {
	db := seedHistory(t)

	buf, err := executeHistory(t, "json", "messages", "--db", db)
	require.NoError(t, err)
	var resp struct {
		Data []MessageEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotEmpty(t, resp.Data)

	total := 0
	for i, m := range resp.Data {
		total += m.Count
		if i > 0 {
			assert.GreaterOrEqual(t, resp.Data[i-1].Count, m.Count, "most frequent first")
		}
	}
	assert.Equal(t, 10, total, "2 + 8 recorded details")

	buf, err = executeHistory(t, "json", "messages", "--db", db, "--limit", "1")
	require.NoError(t, err)
	resp.Data = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
}

func TestHistory_Rejects(t *testing.T) {
	_, err := executeHistory(t, "text")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no audit database")

	_, err = executeHistory(t, "text", "--db", filepath.Join(t.TempDir(), "a.db"), "--status", "pending")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid status "pending"`)
}

func TestHistory_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	buf, err := executeHistory(t, "text", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No conversions recorded.")

	buf, err = executeHistory(t, "text", "messages", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No failures recorded.")
}
