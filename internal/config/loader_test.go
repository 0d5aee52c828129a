package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func loadFrom(t *testing.T, content string) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	cfg, err := NewLoader().WithConfigFile(path).Load()
	require.NoError(t, err)
	return cfg
}

func TestLoader_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "openai", cfg.Oracle.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Oracle.Model)
	assert.Equal(t, 30*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, 2, cfg.Oracle.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Workflow.AdvanceDebounce)
	assert.True(t, cfg.Workflow.Narrate)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.IdleTTL)
	assert.Equal(t, 256, cfg.Sessions.Max)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoader_FileOverridesDefaults(t *testing.T) {
	cfg := loadFrom(t, `
oracle:
  provider: gemini
  timeout: 10s
workflow:
  advance_debounce: 250ms
sessions:
  max: 3
`)
	assert.Equal(t, "gemini", cfg.Oracle.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Oracle.Model)
	assert.Equal(t, 10*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Workflow.AdvanceDebounce)
	assert.Equal(t, 3, cfg.Sessions.Max)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	t.Setenv("ADPLANNER_ORACLE_PROVIDER", "offline")
	t.Setenv("ADPLANNER_SERVER_PORT", "9191")
	cfg := loadFrom(t, "oracle:\n  provider: gemini\n")
	assert.Equal(t, "offline", cfg.Oracle.Provider)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestLoader_ProviderKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	cfg := loadFrom(t, "oracle:\n  provider: gemini\n")
	assert.Equal(t, "from-env", cfg.Oracle.APIKey)
}

func TestLoader_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unterminated"), 0o600))
	_, err := NewLoader().WithConfigFile(path).Load()
	assert.Error(t, err)
}

func TestDefaultConfigYAML_MatchesBuiltinDefaults(t *testing.T) {
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigYAML), &raw))
	for _, section := range []string{"log", "oracle", "workflow", "sessions", "catalog", "store", "export", "server"} {
		assert.Contains(t, raw, section)
	}

	t.Setenv("OPENAI_API_KEY", "")
	t.Chdir(t.TempDir())
	fromFile := loadFrom(t, DefaultConfigYAML)
	builtin, err := NewLoader().Load()
	require.NoError(t, err)
	if diff := cmp.Diff(builtin, fromFile); diff != "" {
		t.Errorf("default YAML drifted from built-in defaults (-builtin +file):\n%s", diff)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".adplanner.yaml")
	require.NoError(t, WriteDefault(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigYAML, string(data))

	err = WriteDefault(path, false)
	assert.True(t, errors.Is(err, os.ErrExist))
	assert.NoError(t, WriteDefault(path, true))
}
