package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Admin    AdminConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address     string   // listen address, e.g. ":8000"
	GinMode     string   // debug | release | test
	CORSOrigins []string // allowed browser origins
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Driver       string // sqlite | postgres
	DSN          string // file path for sqlite, connection string for postgres
	LogLevel     string // silent | error | warn | info
	MaxOpenConns int
	MaxIdleConns int
}

// AuthConfig contains authentication and authorization settings.
type AuthConfig struct {
	JWTSecret       string
	Issuer          string
	Audience        string
	TokenTTL        time.Duration
	SessionCacheTTL time.Duration
	PolicyMode      string // strict | permissive
}

// AdminConfig describes the optional bootstrap administrator.
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// Enabled reports whether a bootstrap admin should be seeded.
func (a AdminConfig) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

// Load loads configuration from environment variables with sensible defaults.
// JWT_SECRET has no default here.
func Load() (*Config, error) {
	cfg, err := load("")
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	return load("dev-secret-change-me")
}

func load(defaultSecret string) (*Config, error) {
	tokenTTL, err := getEnvDuration("JWT_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getEnvDuration("SESSION_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	maxOpen, err := getEnvInt("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, err
	}
	maxIdle, err := getEnvInt("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Address:     getEnv("SERVER_ADDRESS", ":8000"),
			GinMode:     getEnv("GIN_MODE", "release"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:          getEnv("DB_DSN", "defects.db"),
			LogLevel:     strings.ToLower(getEnv("DB_LOG_LEVEL", "warn")),
			MaxOpenConns: maxOpen,
			MaxIdleConns: maxIdle,
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", defaultSecret),
			Issuer:          getEnv("JWT_ISSUER", "system-control-defects"),
			Audience:        getEnv("JWT_AUDIENCE", "system-control-defects-clients"),
			TokenTTL:        tokenTTL,
			SessionCacheTTL: cacheTTL,
			PolicyMode:      strings.ToLower(getEnv("AUTHZ_MODE", "strict")),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Name:     getEnv("ADMIN_NAME", "Administrator"),
		},
	}

	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	switch cfg.Auth.PolicyMode {
	case "strict", "permissive":
	default:
		return nil, fmt.Errorf("unsupported AUTHZ_MODE %q", cfg.Auth.PolicyMode)
	}
	if cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		return d, nil
	}
	return defaultVal, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: %s, DB: %s, Auth: *** (masked) ***, Policy: %s}",
		c.Server.Address, c.Database.Driver, c.Auth.PolicyMode)
}
