package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := Load()

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1920, cfg.Browser.WindowWidth)
	assert.Equal(t, 1080, cfg.Browser.WindowHeight)
	assert.Equal(t, []string{"Font", "Media"}, cfg.Browser.BlockedResourceTypes)
	assert.Equal(t, 10*time.Second, cfg.Timing.ReadyTimeout)
	assert.Equal(t, 3*time.Second, cfg.Timing.SubmitSettle)
	assert.Equal(t, 10*time.Second, cfg.Timing.ResultTimeout)
	assert.Equal(t, time.Second, cfg.Timing.DependentSettle)
	assert.Equal(t, time.Second, cfg.Timing.CaptureSettle)
	assert.False(t, cfg.Auth.Enabled)
	assert.Zero(t, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "cleaned_uddan_dataset.json", cfg.Dataset.Path)
	assert.Equal(t, 30*time.Second, cfg.Probe.CacheTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PROPSEARCH_PORT", "8081")
	t.Setenv("PROPSEARCH_READY_TIMEOUT", "2s")
	t.Setenv("PROPSEARCH_API_KEYS", " a, ,b ")
	t.Setenv("PROPSEARCH_HEADLESS", "false")
	t.Setenv("PROPSEARCH_RATE_RPS", "2.5")

	cfg := Load()

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Timing.ReadyTimeout)
	assert.Equal(t, []string{"a", "b"}, cfg.Auth.APIKeys)
	assert.False(t, cfg.Browser.Headless)
	assert.InDelta(t, 2.5, cfg.RateLimit.RequestsPerSecond, 1e-9)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PROPSEARCH_PORT", "not-a-port")
	t.Setenv("PROPSEARCH_RESULT_TIMEOUT", "ten seconds")

	cfg := Load()

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Timing.ResultTimeout)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("PROPSEARCH_DATASET=/data/records.json\nPROPSEARCH_LOG_FORMAT=text\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("PROPSEARCH_LOG_FORMAT", "json")

	cfg := Load()
	t.Cleanup(func() { os.Unsetenv("PROPSEARCH_DATASET") })

	assert.Equal(t, "/data/records.json", cfg.Dataset.Path)
	// Real environment wins over .env.
	assert.Equal(t, "json", cfg.Log.Format)
}
