package scriptrunner

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python"); err != nil {
		t.Skip("python not available")
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.py")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunDecodesJSONOutput(t *testing.T) {
	requirePython(t)
	r := NewRunner(30*time.Second, zaptest.NewLogger(t))

	path := writeScript(t, `print('{"status": "ok", "count": 2}')`)
	got, err := r.Run(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "ok", "count": float64(2)}, got)
}

func TestRunWrapsPlainOutput(t *testing.T) {
	requirePython(t)
	r := NewRunner(30*time.Second, zaptest.NewLogger(t))

	path := writeScript(t, `print("finished three records")`)
	got, err := r.Run(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"message": "finished three records"}, got)
}

func TestRunPassesInputsAsEnv(t *testing.T) {
	requirePython(t)
	r := NewRunner(30*time.Second, zaptest.NewLogger(t))

	path := writeScript(t, `
import os, json
print(json.dumps({
    "city": os.environ.get("HYBRID_INPUT_CITY"),
    "limit": os.environ.get("HYBRID_INPUT_LIMIT"),
}))
`)
	got, err := r.Run(context.Background(), path, map[string]any{
		"city":  "Lisbon",
		"limit": 5,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Lisbon", "limit": "5"}, got)
}

func TestRunEmptyOutputFails(t *testing.T) {
	requirePython(t)
	r := NewRunner(30*time.Second, zaptest.NewLogger(t))

	path := writeScript(t, `pass`)
	_, err := r.Run(context.Background(), path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script produced no output")
}

func TestRunSurfacesStderr(t *testing.T) {
	requirePython(t)
	r := NewRunner(30*time.Second, zaptest.NewLogger(t))

	path := writeScript(t, `
import sys
print("boom happened", file=sys.stderr)
sys.exit(1)
`)
	_, err := r.Run(context.Background(), path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom happened")
}

func TestRunTimeout(t *testing.T) {
	requirePython(t)
	r := NewRunner(time.Second, zaptest.NewLogger(t))

	path := writeScript(t, `
import time
time.sleep(30)
`)
	_, err := r.Run(context.Background(), path, nil)
	require.EqualError(t, err, "script execution timed out")
}

func TestRunWorkingDirectoryIsScriptDir(t *testing.T) {
	requirePython(t)
	r := NewRunner(30*time.Second, zaptest.NewLogger(t))

	path := writeScript(t, `
import os, json
print(json.dumps({"cwd": os.getcwd()}))
`)
	got, err := r.Run(context.Background(), path, nil)
	require.NoError(t, err)
	result := got.(map[string]any)
	assert.Contains(t, result["cwd"], filepath.Base(filepath.Dir(path)))
}

func TestInputEnvEncoding(t *testing.T) {
	env := inputEnv(map[string]any{
		"name":  "plain",
		"count": 7,
		"tags":  []any{"a", "b"},
	})
	sort.Strings(env)
	assert.Equal(t, []string{
		"HYBRID_INPUT_COUNT=7",
		"HYBRID_INPUT_NAME=plain",
		`HYBRID_INPUT_TAGS=["a","b"]`,
	}, env)
}
