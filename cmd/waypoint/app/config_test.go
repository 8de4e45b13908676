package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/waypoint/pkg/constants"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, config.AutoStart)
	assert.Equal(t, constants.DefaultPort, config.Server.Port)
	assert.Equal(t, constants.DefaultPathPrefix, config.Server.PathPrefix)
	assert.Equal(t, 5*time.Minute, config.Server.TombstoneTTL)
	assert.NotEmpty(t, config.LogFormat)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WAYPOINT_VERBOSE", "true")
	t.Setenv("WAYPOINT_FORMAT", "json")
	t.Setenv("WAYPOINT_AUTO_START", "false")
	t.Setenv("WAYPOINT_SERVER_PORT", "9191")
	t.Setenv("WAYPOINT_SERVER_TOMBSTONE_TTL", "1h")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, config.Verbose)
	assert.Equal(t, "json", config.Format)
	assert.False(t, config.AutoStart)
	assert.Equal(t, 9191, config.Server.Port)
	assert.Equal(t, time.Hour, config.Server.TombstoneTTL)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := "auto_start: false\nserver:\n  host: 0.0.0.0\n  port: 7070\n  api_key: secret\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".waypoint.yaml"), []byte(content), 0o600))

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.False(t, config.AutoStart)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "secret", config.Server.APIKey)
	assert.Contains(t, config.ConfigFile, ".waypoint.yaml")
}

func TestLoadConfigFrom_Missing(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WAYPOINT_SERVER_RATE_LIMIT=42\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("WAYPOINT_SERVER_RATE_LIMIT") })

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 42, config.Server.RateLimit)
}

func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{Format: "yaml", LogLevel: "warn"}

	config.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, config.Verbose)
	assert.True(t, config.NoColor)
	assert.Equal(t, "yaml", config.Format)
	assert.Equal(t, "warn", config.LogLevel)

	config.UpdateFromFlags(false, true, false, "json", "trace")
	assert.Equal(t, "json", config.Format)
	assert.Equal(t, "trace", config.LogLevel)
}

func TestServerDefaults(t *testing.T) {
	a := &App{config: &Config{Server: ServerConfig{
		Port:      9000,
		APIKey:    "k",
		RateLimit: 0,
	}}}

	cfg := a.serverDefaults()
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.AuthEnabled)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Zero(t, cfg.RateLimit)
	assert.Equal(t, constants.DefaultPathPrefix, cfg.PathPrefix)
}
