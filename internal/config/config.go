// Package config loads runtime settings from the environment. A .env file in
// the working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port        string
	Env         string
	LogLevel    slog.Level
	LogFormat   string
	JWTSecret   []byte
	TokenTTL    time.Duration
	CORSOrigins []string
	DB          DBConfig
}

type DBConfig struct {
	Driver   string // "postgres" or "sqlite"
	URL      string // full DSN; overrides the individual postgres fields
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Path     string // sqlite file
	LogLevel string // gorm logger level: silent, error, warn, info
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

// Load reads the configuration from environment variables.
func Load() (Config, error) {
	cfg := Config{
		Port:        getenv("PORT", "8080"),
		Env:         getenv("APP_ENV", "development"),
		LogFormat:   getenv("LOG_FORMAT", "text"),
		JWTSecret:   []byte(os.Getenv("JWT_SECRET")),
		CORSOrigins: splitList(getenv("CORS_ORIGINS", "*")),
		DB: DBConfig{
			Driver:   getenv("DB_DRIVER", "postgres"),
			URL:      os.Getenv("DB_URL"),
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
			Path:     getenv("DB_PATH", "qna.db"),
			LogLevel: getenv("DB_LOG_LEVEL", "warn"),
		},
	}

	level, err := ParseLogLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	ttl, err := time.ParseDuration(getenv("TOKEN_TTL", "72h"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.JWTSecret) == 0 {
		return ErrMissingJWTSecret
	}
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// DSN returns the postgres connection string.
func (d DBConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
