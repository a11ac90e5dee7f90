// pkg/rpa/actions_system.go
package rpa

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
)

func registerSystemActions(r *Registry) {
	r.Register("system_run", schemas.ActionMetadata{
		Name:        "Run Command",
		Description: "Run a shell command and capture its output",
		Category:    "system",
		Params: []schemas.ActionParam{
			{Key: "command", Type: "string"},
			{Key: "cwd", Type: "string", Value: ""},
			{Key: "timeout", Type: "int", Value: 60},
		},
		OutputType: "object",
	}, systemRun)

	r.Register("system_wait", schemas.ActionMetadata{
		Name:        "Wait",
		Description: "Pause execution for a number of seconds",
		Category:    "system",
		Params: []schemas.ActionParam{
			{Key: "seconds", Type: "float", Value: 1.0},
		},
	}, systemWait)

	r.Register("system_env_get", schemas.ActionMetadata{
		Name:        "Get Environment Variable",
		Description: "Read an environment variable",
		Category:    "system",
		Params: []schemas.ActionParam{
			{Key: "name", Type: "string"},
			{Key: "default", Type: "string", Value: ""},
		},
		OutputType: "string",
	}, systemEnvGet)

	r.Register("system_env_set", schemas.ActionMetadata{
		Name:        "Set Environment Variable",
		Description: "Set an environment variable for this process",
		Category:    "system",
		Params: []schemas.ActionParam{
			{Key: "name", Type: "string"},
			{Key: "value", Type: "string", Value: ""},
		},
	}, systemEnvSet)
}

// systemRun executes through the platform shell and reports a structured
// result even on non-zero exit. Only launch failures and timeouts are errors.
func systemRun(_ *Context, params map[string]any) (any, error) {
	command, err := requiredStringParam(params, "command")
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(intParam(params, "timeout", 60)) * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if cwd := stringParam(params, "cwd", ""); cwd != "" {
		cmd.Dir = cwd
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, errors.New("command timed out: " + command)
	}

	returncode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			returncode = exitErr.ExitCode()
		} else {
			return nil, runErr
		}
	}

	return map[string]any{
		"returncode": returncode,
		"stdout":     stdout.String(),
		"stderr":     stderr.String(),
	}, nil
}

func systemWait(_ *Context, params map[string]any) (any, error) {
	sleepSeconds(floatParam(params, "seconds", 1.0))
	return nil, nil
}

func systemEnvGet(_ *Context, params map[string]any) (any, error) {
	name, err := requiredStringParam(params, "name")
	if err != nil {
		return nil, err
	}
	if v, ok := os.LookupEnv(name); ok {
		return v, nil
	}
	return stringParam(params, "default", ""), nil
}

func systemEnvSet(_ *Context, params map[string]any) (any, error) {
	name, err := requiredStringParam(params, "name")
	if err != nil {
		return nil, err
	}
	return nil, os.Setenv(name, stringParam(params, "value", ""))
}
