package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with the given args and returns
// its standard output. Stderr (logs) is captured separately so JSON
// output stays parseable.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	out, err := executeCommand(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "causeway")
	assert.Contains(t, out, "ingest")
	assert.Contains(t, out, "replay")
	assert.Contains(t, out, "status")
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, err := executeCommand(t, "--format", "xml", "replay", "--scenario", "x.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "boom")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
}
