package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_CLIENT_ID", "client_id")
	t.Setenv("DISCORD_CLIENT_SECRET", "client_secret")
	t.Setenv("DISCORD_REDIRECT_URI", "http://localhost:8080/auth/callback")
	t.Setenv("DB_PASSWORD", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.HTTPPort)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, []string{"identify", "guilds"}, cfg.Discord.Scopes)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, 1, cfg.Database.MaxIdleConns)
	assert.Equal(t, 7, cfg.Session.ExpiryDays)
	assert.Equal(t, 5, cfg.Session.TokenTTLMinutes)
	assert.Equal(t, "http://localhost:8000/api/config", cfg.RemoteConfig.APIURL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_MAX_OPEN_CONNS", "10")
	t.Setenv("DB_MAX_IDLE_CONNS", "4")
	t.Setenv("CONFIG_TOKEN_TTL_MINUTES", "15")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.HTTPPort)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 4, cfg.Database.MaxIdleConns)
	assert.Equal(t, 15, cfg.Session.TokenTTLMinutes)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_MissingClientID(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DISCORD_CLIENT_ID", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_CLIENT_ID")
}

func TestLoad_MissingDBPassword(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestLoad_IdleConnsAboveOpenConns(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_MAX_OPEN_CONNS", "5")
	t.Setenv("DB_MAX_IDLE_CONNS", "6")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_MAX_IDLE_CONNS")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     "5433",
		User:     "vermion",
		Password: "secret",
		Name:     "vermion_db",
		SSLMode:  "require",
	}

	dsn := cfg.GetDSN()

	assert.Equal(t, "host=db.internal port=5433 user=vermion password=secret dbname=vermion_db sslmode=require", dsn)
}
