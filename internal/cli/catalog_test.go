package cli

import (
	"bytes"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopesCommand_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewScopesCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data []ScopeInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 13)
	assert.Equal(t, "PI_AGGREGATE_COUNT", resp.Data[0].Name)
	assert.Equal(t, []string{"PI_AGGREGATE_COUNT"}, resp.Data[0].Templates)

	last := resp.Data[len(resp.Data)-1]
	assert.Equal(t, "CLINICAL_DOCUMENT", last.Name)
	assert.Contains(t, last.Members, "IA_SECTION")
	assert.Contains(t, last.Templates, "MEASURE_PERFORMED")
}

func TestScopesCommand_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewScopesCommand(&RootOptions{})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "PI_NUMERATOR_DENOMINATOR")
	assert.Contains(t, buf.String(), "MEASURE_SECTION_V2")
}

func TestScopesCommand_RejectsArgs(t *testing.T) {
	cmd := NewScopesCommand(&RootOptions{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}

func TestTemplatesCommand(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewTemplatesCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data []TemplateInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotEmpty(t, resp.Data)

	byName := map[string]TemplateInfo{}
	for _, info := range resp.Data {
		assert.NotEmpty(t, info.Root, info.Name)
		byName[info.Name] = info
	}
	assert.Contains(t, byName, "CLINICAL_DOCUMENT")
	assert.Contains(t, byName, "PI_SECTION")
	assert.NotContains(t, byName, "UNKNOWN")
}
