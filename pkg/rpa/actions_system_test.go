package rpa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemRunCapturesOutput(t *testing.T) {
	got, err := systemRun(nil, map[string]any{"command": "echo hello"})
	require.NoError(t, err)

	result, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0, result["returncode"])
	assert.Equal(t, "hello\n", result["stdout"])
	assert.Equal(t, "", result["stderr"])
}

func TestSystemRunNonZeroExit(t *testing.T) {
	// A failing command is still a structured result, not an error.
	got, err := systemRun(nil, map[string]any{"command": "echo oops >&2; exit 3"})
	require.NoError(t, err)

	result := got.(map[string]any)
	assert.Equal(t, 3, result["returncode"])
	assert.Equal(t, "oops\n", result["stderr"])
}

func TestSystemRunWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	got, err := systemRun(nil, map[string]any{"command": "pwd", "cwd": dir})
	require.NoError(t, err)

	result := got.(map[string]any)
	assert.Contains(t, result["stdout"], dir)
}

func TestSystemRunTimeout(t *testing.T) {
	_, err := systemRun(nil, map[string]any{"command": "sleep 5", "timeout": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command timed out")
}

func TestSystemEnvRoundTrip(t *testing.T) {
	t.Setenv("KESTREL_TEST_VAR", "initial")

	got, err := systemEnvGet(nil, map[string]any{"name": "KESTREL_TEST_VAR"})
	require.NoError(t, err)
	assert.Equal(t, "initial", got)

	_, err = systemEnvSet(nil, map[string]any{"name": "KESTREL_TEST_VAR", "value": "updated"})
	require.NoError(t, err)

	got, err = systemEnvGet(nil, map[string]any{"name": "KESTREL_TEST_VAR"})
	require.NoError(t, err)
	assert.Equal(t, "updated", got)
}

func TestSystemEnvGetDefault(t *testing.T) {
	got, err := systemEnvGet(nil, map[string]any{
		"name":    "KESTREL_DEFINITELY_UNSET_VAR",
		"default": "fallback",
	})
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)
}
