// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config represents the nanobot configuration. Values come from the TOML
// config file first, then environment variables on top.
type Config struct {
	Environment string `toml:"environment" env:"ENVIRONMENT"`

	Workspace WorkspaceConfig `toml:"workspace"`
	Providers ProvidersConfig `toml:"providers"`
	Slack     SlackConfig     `toml:"slack"`
	Server    ServerConfig    `toml:"server"`
	Backup    BackupConfig    `toml:"backup"`
	Logging   LoggingConfig   `toml:"logging"`
}

// WorkspaceConfig holds workspace settings.
type WorkspaceConfig struct {
	Path string `toml:"path" env:"NANOBOT_WORKSPACE"`

	// AllowedPaths are the only base directories the file tools may touch.
	// The workspace path is always included.
	AllowedPaths []string `toml:"allowed_paths" env:"NANOBOT_ALLOWED_PATHS" envSeparator:":"`
}

// ProvidersConfig holds LLM backend settings.
type ProvidersConfig struct {
	Groq      ProviderConfig `toml:"groq" envPrefix:"GROQ_"`
	Anthropic ProviderConfig `toml:"anthropic" envPrefix:"ANTHROPIC_"`

	MaxTokens   int     `toml:"max_tokens" env:"NANOBOT_MAX_TOKENS"`
	Temperature float64 `toml:"temperature" env:"NANOBOT_TEMPERATURE"`
}

// ProviderConfig holds a single backend's settings.
type ProviderConfig struct {
	APIKey  string `toml:"api_key" env:"API_KEY"`
	BaseURL string `toml:"base_url" env:"BASE_URL"`
	Model   string `toml:"model" env:"MODEL"`
}

// SlackConfig holds Slack transport settings.
type SlackConfig struct {
	BotToken string `toml:"bot_token" env:"SLACK_BOT_TOKEN"`
	AppToken string `toml:"app_token" env:"SLACK_APP_TOKEN"`
}

// ServerConfig holds dashboard HTTP server settings.
type ServerConfig struct {
	Host            string        `toml:"host" env:"HOST"`
	Port            int           `toml:"port" env:"PORT"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// BackupConfig holds S3 backup settings. All fields are optional; backups
// are disabled when the bucket or credentials are missing.
type BackupConfig struct {
	Bucket          string `toml:"bucket" env:"S3_BUCKET"`
	Region          string `toml:"region" env:"AWS_REGION"`
	Endpoint        string `toml:"endpoint" env:"S3_ENDPOINT"`
	AccessKeyID     string `toml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `toml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	Schedule        string `toml:"schedule" env:"BACKUP_SCHEDULE"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `toml:"level" env:"LOG_LEVEL"`
	File  string `toml:"file" env:"LOG_FILE"`
}

// Load reads configuration from .env, the TOML config file, and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	// Best effort: a .env next to the binary mirrors local development.
	_ = godotenv.Load()

	cfg := defaultConfig()

	configPath := ConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.expandPaths()
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Environment: "development",
		Providers: ProvidersConfig{
			MaxTokens:   8192,
			Temperature: 0.7,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ShutdownTimeout: 10 * time.Second,
		},
		Backup: BackupConfig{
			Region:   "us-east-1",
			Schedule: "0 */6 * * *",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the settings required to serve traffic. Missing Slack
// tokens or a missing provider key are fatal; a missing second provider or
// S3 bucket only degrades features.
func (c *Config) Validate() error {
	if c.Slack.BotToken == "" || c.Slack.AppToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN and SLACK_APP_TOKEN are required")
	}
	return c.ValidateProviders()
}

// ValidateProviders requires at least one configured LLM backend.
func (c *Config) ValidateProviders() error {
	if c.Providers.Groq.APIKey == "" && c.Providers.Anthropic.APIKey == "" {
		return fmt.Errorf("at least one of GROQ_API_KEY or ANTHROPIC_API_KEY is required")
	}
	return nil
}

// BackupEnabled reports whether S3 backups are configured.
func (c *Config) BackupEnabled() bool {
	return c.Backup.Bucket != "" && c.Backup.AccessKeyID != "" && c.Backup.SecretAccessKey != ""
}

// Addr returns the dashboard listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	if p := os.Getenv("NANOBOT_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(StateDir(), "config.toml")
}

// StateDir returns the nanobot state directory.
func StateDir() string {
	if p := os.Getenv("NANOBOT_STATE_DIR"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nanobot")
}

// SessionsDir returns the conversation log directory.
func SessionsDir() string {
	return filepath.Join(StateDir(), "sessions")
}

// WorkspaceDir returns the agent workspace directory.
func (c *Config) WorkspaceDir() string {
	if c.Workspace.Path != "" {
		return c.Workspace.Path
	}
	return filepath.Join(StateDir(), "workspace")
}

// AllowedBases returns the base directories the file tools may touch.
func (c *Config) AllowedBases() []string {
	bases := []string{c.WorkspaceDir()}
	for _, p := range c.Workspace.AllowedPaths {
		if p != "" {
			bases = append(bases, p)
		}
	}
	return bases
}

func (c *Config) expandPaths() {
	home, _ := os.UserHomeDir()

	expand := func(p string) string {
		if strings.HasPrefix(p, "~/") {
			return filepath.Join(home, p[2:])
		}
		if strings.HasPrefix(p, "$HOME/") {
			return filepath.Join(home, p[6:])
		}
		return p
	}

	c.Workspace.Path = expand(c.Workspace.Path)
	c.Logging.File = expand(c.Logging.File)
	for i, p := range c.Workspace.AllowedPaths {
		c.Workspace.AllowedPaths[i] = expand(p)
	}
}

// Save writes the config to file.
func (c *Config) Save() error {
	configPath := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}

// EnsureDirs creates the state directories.
func EnsureDirs() error {
	dirs := []string{
		StateDir(),
		SessionsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	return nil
}
