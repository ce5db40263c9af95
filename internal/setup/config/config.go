package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrTokenMissing          = errors.New("bot token is not configured")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.1.0"

// TokenEnv is read when bot.toml leaves the token empty.
const TokenEnv = "SLASHCORE_TOKEN"

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	Bot    BotConfig
}

// CommonConfig contains configuration shared between the bot and the command tool.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Telemetry  Telemetry  `koanf:"telemetry"`
}

// BotConfig contains Discord bot specific configuration.
type BotConfig struct {
	// Version of the bot config.
	Version int `koanf:"version"`
	// Request timeout in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
	// Shutdown grace period for in-flight handlers in milliseconds.
	ShutdownTimeout int     `koanf:"shutdown_timeout"`
	Discord         Discord `koanf:"discord"`
	Sync            Sync    `koanf:"sync"`
	// Persist every handled interaction to PostgreSQL.
	InvocationLog bool `koanf:"invocation_log"`
	// Days invocations are kept. Zero keeps them forever.
	InvocationRetentionDays int `koanf:"invocation_retention_days"`
}

// Discord contains the application credentials.
type Discord struct {
	// Bot token. Falls back to the SLASHCORE_TOKEN environment variable.
	Token string `koanf:"token"`
	// Application ID. Zero derives it from the token.
	ApplicationID uint64 `koanf:"application_id"`
	// Guild that receives guild scoped development commands.
	DevGuildID uint64 `koanf:"dev_guild_id"`
}

// Sync contains command registration settings.
type Sync struct {
	// Register commands on startup.
	OnStartup bool `koanf:"on_startup"`
	// Delete remote commands that are no longer declared.
	Prune bool `koanf:"prune"`
	// Number of declarations synced in parallel.
	Concurrency int `koanf:"concurrency"`
	// Store definition hashes in Redis so restarts skip unchanged commands.
	PersistHashes bool `koanf:"persist_hashes"`
	// Redis key prefix for definition hashes.
	HashPrefix string `koanf:"hash_prefix"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log files to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
	// Disable client side caching for servers without CLIENT TRACKING.
	DisableCache bool `koanf:"disable_cache"`
}

// Telemetry contains OpenTelemetry export configuration.
type Telemetry struct {
	// Uptrace DSN. Tracing stays disabled when empty.
	UptraceDSN string `koanf:"uptrace_dsn"`
	// Service name reported with every span.
	ServiceName string `koanf:"service_name"`
	// Deployment environment (production, staging, development).
	Environment string `koanf:"environment"`
}

// SearchPaths returns the directories searched for config files, in order.
func SearchPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return []string{
		".slashcore",
		homeDir + "/.slashcore/config",
		"/etc/slashcore/config",
		"/app/config",
		"config",
		".",
	}, nil
}

// LoadConfig loads the configuration from the first search path holding each file.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	paths, err := SearchPaths()
	if err != nil {
		return nil, "", err
	}
	return LoadConfigFrom(paths...)
}

// LoadConfigFrom loads common.toml and bot.toml from the given directories.
func LoadConfigFrom(paths ...string) (*Config, string, error) {
	var (
		config         Config
		usedConfigPath string
	)

	files := []struct {
		name   string
		target any
	}{
		{"common", &config.Common},
		{"bot", &config.Bot},
	}

	for _, f := range files {
		k := koanf.New(".")
		configLoaded := false

		for _, path := range paths {
			configPath := filepath.Join(path, f.name+".toml")
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				configLoaded = true

				if usedConfigPath == "" {
					usedConfigPath = path
				}

				break
			}
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, f.name)
		}

		if err := k.Unmarshal("", f.target); err != nil {
			return nil, "", fmt.Errorf("error unmarshaling %s.toml: %w", f.name, err)
		}
	}

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("bot", config.Bot.Version, CurrentBotVersion); err != nil {
		return nil, "", err
	}

	config.applyDefaults()

	return &config, usedConfigPath, nil
}

// Token returns the configured bot token, falling back to the environment.
func (c *BotConfig) Token() (string, error) {
	if c.Discord.Token != "" {
		return c.Discord.Token, nil
	}
	if token := os.Getenv(TokenEnv); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("%w: set discord.token in bot.toml or %s", ErrTokenMissing, TokenEnv)
}

func (c *Config) applyDefaults() {
	if c.Common.Debug.LogLevel == "" {
		c.Common.Debug.LogLevel = "info"
	}
	if c.Common.Debug.MaxLogsToKeep <= 0 {
		c.Common.Debug.MaxLogsToKeep = 10
	}
	if c.Common.Debug.MaxLogLines <= 0 {
		c.Common.Debug.MaxLogLines = 10000
	}
	if c.Common.Telemetry.ServiceName == "" {
		c.Common.Telemetry.ServiceName = "slashcore"
	}
	if c.Bot.RequestTimeout <= 0 {
		c.Bot.RequestTimeout = 10000
	}
	if c.Bot.ShutdownTimeout <= 0 {
		c.Bot.ShutdownTimeout = 15000
	}
	if c.Bot.Sync.HashPrefix == "" {
		c.Bot.Sync.HashPrefix = "slashcore:hashes"
	}
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/slashcore/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
