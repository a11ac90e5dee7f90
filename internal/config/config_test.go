package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "kestrel-cli", cfg.Logger.ServiceName)

	assert.Equal(t, 4, cfg.Engine.WorkerConcurrency)
	assert.Equal(t, 10*time.Minute, cfg.Engine.DefaultTaskTimeout)
	assert.Equal(t, 8, cfg.Engine.MaxSkillRefDepth)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 90*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 30*time.Second, cfg.Browser.ActionTimeout)

	assert.Equal(t, 2*time.Second, cfg.Replay.DelayCap)
	assert.Equal(t, 200*time.Millisecond, cfg.Replay.DelayMin)
	assert.Equal(t, 800*time.Millisecond, cfg.Replay.PostClickSettle)
	assert.Equal(t, 200*time.Millisecond, cfg.Replay.PostNavSettle)

	assert.Equal(t, "~/.kestrel/skills", cfg.Skills.Dir)
	assert.Equal(t, 120*time.Second, cfg.Skills.ScriptTimeout)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, 60*time.Second, cfg.LLM.APITimeout)
	assert.Equal(t, float32(0.2), cfg.LLM.Temperature)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kestrel.yaml")
	content := `
engine:
  worker_concurrency: 2
browser:
  headless: false
  navigation_timeout: 45s
llm:
  provider: gemini
  api_key: from-file
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Engine.WorkerConcurrency)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, "from-file", cfg.LLM.APIKey)
	// Unset keys keep their defaults.
	assert.Equal(t, 8, cfg.Engine.MaxSkillRefDepth)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("KESTREL_LLM_API_KEY", "from-env")
	t.Setenv("KESTREL_ENGINE_WORKER_CONCURRENCY", "9")

	path := filepath.Join(t.TempDir(), "kestrel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logger:\n  level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, 9, cfg.Engine.WorkerConcurrency)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kestrel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [not a map\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
