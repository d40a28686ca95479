package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NANOBOT_STATE_DIR", t.TempDir())
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8192, cfg.Providers.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Providers.Temperature, 0.001)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, "0 */6 * * *", cfg.Backup.Schedule)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadTOMLThenEnvOverride(t *testing.T) {
	stateDir := t.TempDir()
	t.Setenv("NANOBOT_STATE_DIR", stateDir)

	configPath := filepath.Join(stateDir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
environment = "production"

[server]
port = 9000

[providers]
max_tokens = 4096

[providers.groq]
api_key = "toml-key"
`), 0644))

	t.Setenv("GROQ_API_KEY", "env-key")

	cfg, err := Load()
	require.NoError(t, err)

	// Env wins over TOML; TOML wins over defaults.
	assert.Equal(t, "env-key", cfg.Providers.Groq.APIKey)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 4096, cfg.Providers.MaxTokens)

	// Untouched defaults survive.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	assert.Error(t, cfg.Validate(), "missing slack tokens")

	cfg.Slack.BotToken = "xoxb-test"
	cfg.Slack.AppToken = "xapp-test"
	assert.Error(t, cfg.Validate(), "missing provider keys")

	cfg.Providers.Anthropic.APIKey = "sk-test"
	assert.NoError(t, cfg.Validate())
}

func TestValidateProviders(t *testing.T) {
	cfg := defaultConfig()
	assert.Error(t, cfg.ValidateProviders())

	cfg.Providers.Groq.APIKey = "gsk-test"
	assert.NoError(t, cfg.ValidateProviders())
}

func TestBackupEnabled(t *testing.T) {
	cfg := defaultConfig()
	assert.False(t, cfg.BackupEnabled())

	cfg.Backup.Bucket = "nanobot-backups"
	assert.False(t, cfg.BackupEnabled(), "credentials still missing")

	cfg.Backup.AccessKeyID = "AKIA..."
	cfg.Backup.SecretAccessKey = "secret"
	assert.True(t, cfg.BackupEnabled())
}

func TestAllowedBasesIncludesWorkspace(t *testing.T) {
	cfg := defaultConfig()
	cfg.Workspace.Path = "/srv/nanobot"
	cfg.Workspace.AllowedPaths = []string{"/tmp/shared", ""}

	bases := cfg.AllowedBases()
	assert.Equal(t, []string{"/srv/nanobot", "/tmp/shared"}, bases)
}

func TestExpandPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := defaultConfig()
	cfg.Workspace.Path = "~/nanobot-ws"
	cfg.expandPaths()

	assert.Equal(t, filepath.Join(home, "nanobot-ws"), cfg.Workspace.Path)
}
