// pkg/scriptrunner/runner.go
package scriptrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxRawOutput = 2000

// Runner executes external step scripts and parses their stdout as the step
// result.
type Runner struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewRunner creates a runner with the given per-script timeout.
func NewRunner(timeout time.Duration, logger *zap.Logger) *Runner {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Runner{timeout: timeout, logger: logger.Named("scriptrunner")}
}

// Run executes the script with step inputs passed as HYBRID_INPUT_<KEY>
// environment variables and returns the parsed stdout. Stdout that is valid
// JSON is returned decoded; anything else is wrapped as {"message": <text>}
// truncated to a bounded length. Empty stdout and timeouts are failures.
func (r *Runner) Run(ctx context.Context, scriptPath string, inputs map[string]any) (any, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "python", "-u", scriptPath)
	cmd.Dir = filepath.Dir(scriptPath)
	cmd.Env = append(os.Environ(), inputEnv(inputs)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("Running step script", zap.String("script", scriptPath))

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, errors.New("script execution timed out")
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.New(msg)
		}
		return nil, fmt.Errorf("script execution failed: %w", err)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return nil, fmt.Errorf("script produced no output. stderr: %s", strings.TrimSpace(stderr.String()))
	}

	var decoded any
	if err := json.Unmarshal([]byte(out), &decoded); err == nil {
		return decoded, nil
	}
	if len(out) > maxRawOutput {
		out = out[:maxRawOutput]
	}
	return map[string]any{"message": out}, nil
}

// inputEnv renders step inputs as HYBRID_INPUT_<KEY> variables. String
// values pass through verbatim; everything else is JSON-encoded.
func inputEnv(inputs map[string]any) []string {
	env := make([]string, 0, len(inputs))
	for key, value := range inputs {
		name := "HYBRID_INPUT_" + strings.ToUpper(key)
		if s, ok := value.(string); ok {
			env = append(env, name+"="+s)
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			encoded = []byte(fmt.Sprintf("%v", value))
		}
		env = append(env, name+"="+string(encoded))
	}
	return env
}
