// Package config provides application configuration management using environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the dashboard core
type Config struct {
	Server       ServerConfig
	Discord      DiscordConfig
	Database     DatabaseConfig
	Session      SessionConfig
	RemoteConfig RemoteConfigConfig
	Logging      LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPPort string
	Host     string
	Env      string
}

// DiscordConfig holds Discord OAuth configuration
type DiscordConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

// DatabaseConfig holds database connection and pool configuration.
// The pool is bounded: MaxIdleConns connections are kept warm and at most
// MaxOpenConns exist at any time.
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// SessionConfig holds session and config-token lifetime configuration
type SessionConfig struct {
	ExpiryDays      int
	TokenTTLMinutes int
}

// RemoteConfigConfig holds the per-guild remote config API location
type RemoteConfigConfig struct {
	APIURL string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables.
// It optionally loads from a .env file if it exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Server = ServerConfig{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Host:     getEnv("SERVER_HOST", "localhost"),
		Env:      getEnv("ENVIRONMENT", "development"),
	}

	cfg.Discord = DiscordConfig{
		ClientID:     getEnv("DISCORD_CLIENT_ID", ""),
		ClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
		RedirectURI:  getEnv("DISCORD_REDIRECT_URI", ""),
		Scopes:       strings.Split(getEnv("DISCORD_OAUTH_SCOPES", "identify guilds"), " "),
	}

	maxOpenConns, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "20"))
	maxIdleConns, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "1"))

	cfg.Database = DatabaseConfig{
		Host:         getEnv("DB_HOST", "localhost"),
		Port:         getEnv("DB_PORT", "5432"),
		User:         getEnv("DB_USER", "vermion"),
		Password:     getEnv("DB_PASSWORD", ""),
		Name:         getEnv("DB_NAME", "vermion_db"),
		SSLMode:      getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns: maxOpenConns,
		MaxIdleConns: maxIdleConns,
	}

	sessionExpiryDays, _ := strconv.Atoi(getEnv("SESSION_EXPIRY_DAYS", "7"))
	tokenTTLMinutes, _ := strconv.Atoi(getEnv("CONFIG_TOKEN_TTL_MINUTES", "5"))

	cfg.Session = SessionConfig{
		ExpiryDays:      sessionExpiryDays,
		TokenTTLMinutes: tokenTTLMinutes,
	}

	cfg.RemoteConfig = RemoteConfigConfig{
		APIURL: getEnv("CONFIG_API_URL", "http://localhost:8000/api/config"),
	}

	cfg.Logging = LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Discord.ClientID == "" {
		return fmt.Errorf("DISCORD_CLIENT_ID is required")
	}
	if c.Discord.ClientSecret == "" {
		return fmt.Errorf("DISCORD_CLIENT_SECRET is required")
	}
	if c.Discord.RedirectURI == "" {
		return fmt.Errorf("DISCORD_REDIRECT_URI is required")
	}

	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive")
	}
	if c.Database.MaxIdleConns <= 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS must be between 1 and DB_MAX_OPEN_CONNS")
	}

	if c.Session.ExpiryDays <= 0 {
		return fmt.Errorf("SESSION_EXPIRY_DAYS must be positive")
	}
	if c.Session.TokenTTLMinutes <= 0 {
		return fmt.Errorf("CONFIG_TOKEN_TTL_MINUTES must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "console": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}

	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// getEnv retrieves an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
