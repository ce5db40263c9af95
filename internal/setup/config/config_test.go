package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robalyx/slashcore/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

const commonFile = `
version = 1

[debug]
log_level = "debug"

[redis]
host = "cache"
port = 6380
`

const botFile = `
version = 1

[discord]
token = "abc"
dev_guild_id = 77

[sync]
prune = true
concurrency = 8
`

func TestLoadConfigFrom(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "common.toml", commonFile)
	writeFile(t, dir, "bot.toml", botFile)

	cfg, used, err := config.LoadConfigFrom(filepath.Join(dir, "missing"), dir)
	require.NoError(t, err)
	assert.Equal(t, dir, used)

	assert.Equal(t, "debug", cfg.Common.Debug.LogLevel)
	assert.Equal(t, "cache", cfg.Common.Redis.Host)
	assert.Equal(t, 6380, cfg.Common.Redis.Port)
	assert.Equal(t, uint64(77), cfg.Bot.Discord.DevGuildID)
	assert.True(t, cfg.Bot.Sync.Prune)
	assert.Equal(t, 8, cfg.Bot.Sync.Concurrency)

	// Defaults fill what the files leave out.
	assert.Equal(t, 10, cfg.Common.Debug.MaxLogsToKeep)
	assert.Equal(t, "slashcore", cfg.Common.Telemetry.ServiceName)
	assert.Equal(t, "slashcore:hashes", cfg.Bot.Sync.HashPrefix)

	token, err := cfg.Bot.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestLoadConfigFromErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		common  string
		bot     string
		wantErr error
	}{
		{
			name:    "missing bot file",
			common:  commonFile,
			wantErr: config.ErrConfigFileNotFound,
		},
		{
			name:    "missing version",
			common:  "[debug]\nlog_level = \"info\"\n",
			bot:     botFile,
			wantErr: config.ErrConfigVersionMissing,
		},
		{
			name:    "version mismatch",
			common:  commonFile,
			bot:     "version = 9\n",
			wantErr: config.ErrConfigVersionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if tt.common != "" {
				writeFile(t, dir, "common.toml", tt.common)
			}
			if tt.bot != "" {
				writeFile(t, dir, "bot.toml", tt.bot)
			}

			_, _, err := config.LoadConfigFrom(dir)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenFromEnvironment(t *testing.T) {
	cfg := &config.BotConfig{}

	t.Setenv(config.TokenEnv, "")
	_, err := cfg.Token()
	require.ErrorIs(t, err, config.ErrTokenMissing)

	t.Setenv(config.TokenEnv, "from-env")
	token, err := cfg.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)
}
