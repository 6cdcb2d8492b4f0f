package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Load Tests
// =============================================================================

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "@every 1m", cfg.Report.Schedule)
	assert.Equal(t, 200, cfg.Audit.Max)
	assert.Equal(t, time.Second, cfg.Streams.WatchInterval)
	assert.Equal(t, "neostream.events", cfg.Events.RedisChannel)
	assert.Zero(t, cfg.RateLimit.RPS)
	assert.Empty(t, cfg.Auth.APIKeys)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("AUTH_API_KEYS", "key-one;key-two")
	t.Setenv("CORS_ORIGINS", "https://app.example.com")
	t.Setenv("RATE_LIMIT_RPS", "25.5")
	t.Setenv("STREAM_VALIDATE_ADDRESSES", "true")
	t.Setenv("EVENTS_REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"key-one", "key-two"}, cfg.Auth.APIKeys)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.Origins)
	assert.Equal(t, 25.5, cfg.RateLimit.RPS)
	assert.True(t, cfg.Streams.ValidateAddresses)
	assert.Equal(t, "localhost:6379", cfg.Events.RedisAddr)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadConfigFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neostream.yaml")
	doc := `server:
  port: 7777
streams:
  validate_addresses: true
  allowed_assets: [GAS, NEO]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	t.Setenv("SERVER_PORT", "9090")
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port, "file overlay should win over env")
	assert.True(t, cfg.Streams.ValidateAddresses)
	assert.Equal(t, []string{"GAS", "NEO"}, cfg.Streams.AllowedAssets)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "untouched keys keep defaults")
}

func TestLoadConfigFileMissing(t *testing.T) {
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
}

// =============================================================================
// Assets Config Tests
// =============================================================================

func TestLoadAssetsConfigFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.yaml")
	doc := `assets:
  - code: gas
    name: GAS
    decimals: 8
    enabled: true
  - code: NEO
    name: Neo
    enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := LoadAssetsConfigFromPath(path)
	require.NoError(t, err)
	require.Len(t, cfg.Assets, 2)
	assert.Equal(t, []string{"GAS"}, cfg.Codes(), "disabled assets stay out of the allowlist")
}

func TestLoadAssetsConfigRejectsMissingCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.yaml")
	doc := `assets:
  - name: Mystery
    enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	_, err := LoadAssetsConfigFromPath(path)
	require.Error(t, err)
}

func TestLoadAssetsConfigMissingFile(t *testing.T) {
	_, err := LoadAssetsConfigFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestDefaultAssetsConfig(t *testing.T) {
	assert.Len(t, DefaultAssetsConfig().Codes(), 3)
}
