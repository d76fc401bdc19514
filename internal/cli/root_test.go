package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "qppconv", cmd.Use)
	assert.Contains(t, cmd.Long, "QRDA Category III")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"convert", "validate", "scopes", "templates", "test", "history"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	for _, name := range []string{"format", "config", "log-level"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue, name)
	}
}

func TestConvertCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	convertCmd, _, err := cmd.Find([]string{"convert"})
	require.NoError(t, err)

	for _, name := range []string{"scope", "skip-validation", "db", "output-dir", "parallel", "compact"} {
		assert.NotNil(t, convertCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "o", convertCmd.Flags().Lookup("output-dir").Shorthand)
	assert.Equal(t, "1", convertCmd.Flags().Lookup("parallel").DefValue)
}

func TestRoot_ConfigSetsFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qppconv.cue")
	require.NoError(t, os.WriteFile(path, []byte(`format: "json"`+"\n"), 0644))

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"scopes", "--config", path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), `"status": "ok"`)
}

func TestRoot_FormatFlagOverridesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qppconv.cue")
	require.NoError(t, os.WriteFile(path, []byte(`format: "json"`+"\n"), 0644))

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"templates", "--config", path, "--format", "text"})

	require.NoError(t, cmd.Execute())
	assert.NotContains(t, buf.String(), `"status"`)
	assert.Contains(t, buf.String(), "CLINICAL_DOCUMENT")
}

func TestRoot_Rejects(t *testing.T) {
	badConfig := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(badConfig, []byte(`parallel: 0`+"\n"), 0644))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"invalid format", []string{"scopes", "--format", "yaml"}, `invalid format "yaml"`},
		{"invalid log level", []string{"scopes", "--log-level", "loud"}, "invalid log level"},
		{"invalid config", []string{"scopes", "--config", badConfig}, "invalid config"},
		{"missing config", []string{"scopes", "--config", filepath.Join(t.TempDir(), "nope.cue")}, "invalid config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCommand()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}
