package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"DISCORD_TOKEN", "DEBUG", "COMMAND_GUILD_IDS", "HOUSEKEEPING_INTERVAL",
	"DATABASE_HOST", "DATABASE_PORT", "DATABASE_USER", "DATABASE_PASSWORD", "DATABASE_NAME",
}

// Make sure none of the variables leak from the environment running the tests
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func noFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")

	config, err := Load(noFile(t))
	require.NoError(t, err)
	assert.Equal(t, "token", config.DiscordToken)
	assert.False(t, config.Debug)
	assert.Empty(t, config.CommandGuildIds)
	assert.Equal(t, 10*time.Minute, config.HousekeepingInterval)
	assert.Equal(t, 5432, config.Database.Port)
	assert.False(t, config.Database.Enabled())
}

func TestLoad_MissingToken(t *testing.T) {
	clearEnv(t)

	_, err := Load(noFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_TOKEN")
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"DEBUG":                 "maybe",
		"HOUSEKEEPING_INTERVAL": "often",
		"DATABASE_PORT":         "pg",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DISCORD_TOKEN", "token")
			t.Setenv(key, value)

			_, err := Load(noFile(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_NonPositiveInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("HOUSEKEEPING_INTERVAL", "-1m")

	_, err := Load(noFile(t))
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "DISCORD_TOKEN=from-file\n" +
		"DEBUG=true\n" +
		"COMMAND_GUILD_IDS= 111, 222 ,,333\n" +
		"HOUSEKEEPING_INTERVAL=30s\n" +
		"DATABASE_HOST=db\n" +
		"DATABASE_PORT=6543\n" +
		"DATABASE_USER=valor\n" +
		"DATABASE_PASSWORD=secret\n" +
		"DATABASE_NAME=stats\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, key := range keys {
			os.Unsetenv(key)
		}
	})

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", config.DiscordToken)
	assert.True(t, config.Debug)
	assert.Equal(t, []string{"111", "222", "333"}, config.CommandGuildIds)
	assert.Equal(t, 30*time.Second, config.HousekeepingInterval)
	assert.True(t, config.Database.Enabled())
	assert.Equal(t, "postgres://valor:secret@db:6543/stats?sslmode=disable", config.Database.ConnString())
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DISCORD_TOKEN=from-file\n"), 0o600))
	t.Setenv("DISCORD_TOKEN", "from-env")

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", config.DiscordToken)
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DEBUG='true\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env")
}

func TestConnString_EscapesCredentials(t *testing.T) {
	for _, password := range []string{"p w'q", "p@ss:w/rd?#"} {
		db := DatabaseConfig{Host: "db", Port: 6543, User: "valor bot", Password: password, Name: "stats"}

		parsed, err := pgxpool.ParseConfig(db.ConnString())
		require.NoError(t, err, password)
		assert.Equal(t, password, parsed.ConnConfig.Password)
		assert.Equal(t, "valor bot", parsed.ConnConfig.User)
		assert.Equal(t, "db", parsed.ConnConfig.Host)
		assert.Equal(t, uint16(6543), parsed.ConnConfig.Port)
		assert.Equal(t, "stats", parsed.ConnConfig.Database)
	}
}
