package rpa

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")

	_, err := fileWrite(nil, map[string]any{"path": path, "content": "hello"})
	require.NoError(t, err, "parent directories are created")

	got, err := fileRead(nil, map[string]any{"path": path})
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestFileWriteAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")

	_, err := fileWrite(nil, map[string]any{"path": path, "content": "one\n"})
	require.NoError(t, err)
	_, err = fileWrite(nil, map[string]any{"path": path, "content": "two\n", "append": true})
	require.NoError(t, err)

	got, err := fileRead(nil, map[string]any{"path": path})
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", got)
}

func TestFileReadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.txt")
	_, err := fileRead(nil, map[string]any{"path": path})
	require.EqualError(t, err, "file not found: "+path)
}

func TestFileReadRequiresPath(t *testing.T) {
	_, err := fileRead(nil, map[string]any{})
	require.EqualError(t, err, `missing required parameter "path"`)
}

func TestFileDeleteMissingIsNoop(t *testing.T) {
	_, err := fileDelete(nil, map[string]any{"path": filepath.Join(t.TempDir(), "gone")})
	require.NoError(t, err)
}

func TestFileDeleteDirectoryRecursive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tree")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "inner"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inner", "f"), []byte("x"), 0o644))

	_, err := fileDelete(nil, map[string]any{"path": dir, "recursive": true})
	require.NoError(t, err)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileCopyAndMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	copied := filepath.Join(dir, "sub", "copy.txt")
	_, err := fileCopy(nil, map[string]any{"source": src, "destination": copied})
	require.NoError(t, err)
	data, err := os.ReadFile(copied)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	moved := filepath.Join(dir, "moved.txt")
	_, err = fileMove(nil, map[string]any{"source": copied, "destination": moved})
	require.NoError(t, err)
	_, statErr := os.Stat(copied)
	assert.True(t, os.IsNotExist(statErr), "source removed after move")
	data, err = os.ReadFile(moved)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestFileCopyMissingSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "nope.txt")
	_, err := fileCopy(nil, map[string]any{"source": src, "destination": filepath.Join(dir, "d.txt")})
	require.EqualError(t, err, "source file not found: "+src)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probe.txt")

	got, err := fileExists(nil, map[string]any{"path": path})
	require.NoError(t, err)
	assert.Equal(t, false, got)

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	got, err = fileExists(nil, map[string]any{"path": path})
	require.NoError(t, err)
	assert.Equal(t, true, got)
}
