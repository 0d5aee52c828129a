package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gangwaa/NerualAdsV2/internal/adapters/oracle"
	"github.com/gangwaa/NerualAdsV2/internal/config"
	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/logging"
	"github.com/gangwaa/NerualAdsV2/internal/service"
)

// useTestConfig writes an offline configuration rooted in a temp dir and
// points the commands at it.
func useTestConfig(t *testing.T) string {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	cfg := strings.Join([]string{
		"log:",
		"  level: error",
		"oracle:",
		"  provider: offline",
		"  max_attempts: 1",
		"workflow:",
		"  narrate: false",
		"catalog:",
		"  advertisers: " + filepath.Join(dir, "missing_vectors.json"),
		"  segments: " + filepath.Join(dir, "missing_segments.csv"),
		"  preferences: " + filepath.Join(dir, "missing_preferences.json"),
		"store:",
		"  path: " + filepath.Join(dir, "plans.db"),
		"export:",
		"  dir: " + filepath.Join(dir, "exports"),
		"",
	}, "\n")
	path := filepath.Join(dir, "adplanner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = prev })
	return dir
}

func capture(c *cobra.Command) (*bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&errOut)
	return &out, &errOut
}

func resetPlanFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		planFile, planExport, planJSON = "", false, false
	})
}

func TestRootCmd_Commands(t *testing.T) {
	assert.Equal(t, "adplanner", rootCmd.Use)

	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"config", "init", "mcp", "plan", "segments", "serve", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCmd(t *testing.T) {
	SetVersion("v1.2.3", "abc123", "2026-01-15")
	t.Cleanup(func() { SetVersion("", "", "") })

	out, _ := capture(versionCmd)
	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, out.String(), "adplanner v1.2.3")
	assert.Contains(t, out.String(), "commit: abc123")
	assert.Contains(t, out.String(), "built:  2026-01-15")
	assert.Equal(t, "v1.2.3", GetVersion())
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".adplanner.yaml")
	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = prev; initForce = false })

	out, _ := capture(initCmd)
	require.NoError(t, runInit(initCmd, nil))
	assert.Contains(t, out.String(), "wrote "+path)
	assert.FileExists(t, path)

	err := runInit(initCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	initForce = true
	require.NoError(t, runInit(initCmd, nil))
}

func TestConfigShow_MasksAPIKey(t *testing.T) {
	useTestConfig(t)
	t.Setenv("ADPLANNER_ORACLE_API_KEY", "sk-secret")

	out, _ := capture(configShowCmd)
	require.NoError(t, configShowCmd.RunE(configShowCmd, nil))

	assert.Contains(t, out.String(), "provider: offline")
	assert.Contains(t, out.String(), "********")
	assert.NotContains(t, out.String(), "sk-secret")
}

func TestConfigValidate(t *testing.T) {
	useTestConfig(t)

	out, _ := capture(configValidateCmd)
	require.NoError(t, configValidateCmd.RunE(configValidateCmd, nil))
	assert.Contains(t, out.String(), "configuration is valid")
}

func TestPlanCmd_RunsEveryStageAndExports(t *testing.T) {
	dir := useTestConfig(t)
	resetPlanFlags(t)
	planExport = true
	noColor = true
	t.Cleanup(func() { noColor = false })

	out, errOut := capture(planCmd)
	require.NoError(t, runPlan(planCmd, []string{"Launch a $50,000 campaign next month"}))

	text := out.String()
	for _, want := range []string{"[1/4]", "[2/4]", "[3/4]", "[4/4]", "fallback"} {
		assert.Contains(t, text, want)
	}
	assert.Contains(t, text, "Sample Advertiser: 5 line items, $50,000 total")
	assert.Contains(t, errOut.String(), "exported ")

	matches, err := filepath.Glob(filepath.Join(dir, "exports", "campaign_plan_sample_advertiser_*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(string(data), "\n"), "header plus five line items")

	assert.FileExists(t, filepath.Join(dir, "plans.db"))
}

func TestPlanCmd_JSONFromStdin(t *testing.T) {
	useTestConfig(t)
	resetPlanFlags(t)
	planFile = "-"
	planJSON = true

	out, _ := capture(planCmd)
	planCmd.SetIn(strings.NewReader("Launch a $20,000 campaign"))
	t.Cleanup(func() { planCmd.SetIn(nil) })

	require.NoError(t, runPlan(planCmd, nil))

	var snap core.Snapshot
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	assert.Equal(t, core.StageComplete, snap.Stage)
	require.NotNil(t, snap.Structure)
	assert.InDelta(t, 20000, snap.Structure.TotalBudget, 0.01)
	assert.NotContains(t, out.String(), "[1/4]")
}

func TestPlanCmd_EmptyBrief(t *testing.T) {
	useTestConfig(t)
	resetPlanFlags(t)

	capture(planCmd)
	err := runPlan(planCmd, nil)
	require.Error(t, err)
	assert.Equal(t, core.CodeEmptyBrief, core.GetCode(err))
}

func TestReadBrief_FileNotFound(t *testing.T) {
	resetPlanFlags(t)
	planFile = filepath.Join(t.TempDir(), "missing.txt")

	_, err := readBrief(planCmd, nil)
	assert.Error(t, err)
}

func TestSegmentsCmd_BuiltinCatalog(t *testing.T) {
	useTestConfig(t)
	noColor = true
	t.Cleanup(func() { noColor = false })

	out, _ := capture(segmentsCmd)
	require.NoError(t, runSegments(segmentsCmd, nil))
	assert.Contains(t, out.String(), "Households")
}

func TestBuildOracle_OfflineIsNotDecorated(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	base := config.OracleConfig{
		Model:         "gpt-4o-mini",
		Timeout:       time.Second,
		MaxAttempts:   3,
		RatePerSecond: 2,
		Burst:         1,
	}

	for _, provider := range []string{"offline", "openai"} {
		t.Run(provider, func(t *testing.T) {
			cfg := &config.Config{Oracle: base}
			cfg.Oracle.Provider = provider

			o, err := buildOracle(context.Background(), cfg, logging.NewNop())
			require.NoError(t, err)
			assert.IsType(t, oracle.Offline{}, o)
		})
	}
}

func TestBuildOracle_DecoratesRealProvider(t *testing.T) {
	cfg := &config.Config{Oracle: config.OracleConfig{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		APIKey:      "sk-test",
		Timeout:     time.Second,
		MaxAttempts: 2,
	}}

	o, err := buildOracle(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &service.RetryingOracle{}, o)
	assert.Equal(t, "openai", o.Name())
}

func TestUseColor_NonTerminal(t *testing.T) {
	assert.False(t, useColor(&bytes.Buffer{}))
}
