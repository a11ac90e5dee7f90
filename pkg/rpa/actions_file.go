// pkg/rpa/actions_file.go
package rpa

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
)

func registerFileActions(r *Registry) {
	r.Register("file_read", schemas.ActionMetadata{
		Name:        "Read File",
		Description: "Read a file's contents as text",
		Category:    "file",
		Params: []schemas.ActionParam{
			{Key: "path", Type: "string"},
		},
		OutputType: "string",
	}, fileRead)

	r.Register("file_write", schemas.ActionMetadata{
		Name:        "Write File",
		Description: "Write text to a file, creating parent directories",
		Category:    "file",
		Params: []schemas.ActionParam{
			{Key: "path", Type: "string"},
			{Key: "content", Type: "string", Value: ""},
			{Key: "append", Type: "bool", Value: false},
		},
	}, fileWrite)

	r.Register("file_delete", schemas.ActionMetadata{
		Name:        "Delete File",
		Description: "Delete a file or directory",
		Category:    "file",
		Params: []schemas.ActionParam{
			{Key: "path", Type: "string"},
			{Key: "recursive", Type: "bool", Value: false},
		},
	}, fileDelete)

	r.Register("file_copy", schemas.ActionMetadata{
		Name:        "Copy File",
		Description: "Copy a file to a new location",
		Category:    "file",
		Params: []schemas.ActionParam{
			{Key: "source", Type: "string"},
			{Key: "destination", Type: "string"},
		},
	}, fileCopy)

	r.Register("file_move", schemas.ActionMetadata{
		Name:        "Move File",
		Description: "Move a file to a new location",
		Category:    "file",
		Params: []schemas.ActionParam{
			{Key: "source", Type: "string"},
			{Key: "destination", Type: "string"},
		},
	}, fileMove)

	r.Register("file_exists", schemas.ActionMetadata{
		Name:        "File Exists",
		Description: "Check whether a file or directory exists",
		Category:    "file",
		Params: []schemas.ActionParam{
			{Key: "path", Type: "string"},
		},
		OutputType: "bool",
	}, fileExists)
}

func fileRead(_ *Context, params map[string]any) (any, error) {
	path, err := requiredStringParam(params, "path")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, err
	}
	return string(data), nil
}

func fileWrite(_ *Context, params map[string]any) (any, error) {
	path, err := requiredStringParam(params, "path")
	if err != nil {
		return nil, err
	}
	content := stringParam(params, "content", "")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	if boolParam(params, "append", false) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return nil, os.WriteFile(path, []byte(content), 0o644)
}

// fileDelete is a no-op when the target does not exist.
func fileDelete(_ *Context, params map[string]any) (any, error) {
	path, err := requiredStringParam(params, "path")
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if info.IsDir() && boolParam(params, "recursive", false) {
		return nil, os.RemoveAll(path)
	}
	return nil, os.Remove(path)
}

func fileCopy(_ *Context, params map[string]any) (any, error) {
	src, err := requiredStringParam(params, "source")
	if err != nil {
		return nil, err
	}
	dst, err := requiredStringParam(params, "destination")
	if err != nil {
		return nil, err
	}

	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source file not found: %s", src)
		}
		return nil, err
	}
	defer in.Close()

	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	out, err := os.Create(dst)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return nil, err
	}
	return nil, out.Sync()
}

func fileMove(_ *Context, params map[string]any) (any, error) {
	src, err := requiredStringParam(params, "source")
	if err != nil {
		return nil, err
	}
	dst, err := requiredStringParam(params, "destination")
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source file not found: %s", src)
		}
		return nil, err
	}
	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return nil, os.Rename(src, dst)
}

func fileExists(_ *Context, params map[string]any) (any, error) {
	path, err := requiredStringParam(params, "path")
	if err != nil {
		return nil, err
	}
	_, statErr := os.Stat(path)
	return statErr == nil, nil
}
