package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const minJWTSecretLength = 32

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	SettingsCacheTTL time.Duration `env:"SETTINGS_CACHE_TTL" default:"10s"`
	TokenTTL         time.Duration `env:"TOKEN_TTL" default:"24h"`

	SubmitRatePerSecond float64 `env:"SUBMIT_RATE_PER_SECOND" default:"5"`
	SubmitRateBurst     int     `env:"SUBMIT_RATE_BURST" default:"20"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := []struct{ name, value string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"JWT_SECRET", cfg.JWTSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	if len(cfg.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if cfg.SettingsCacheTTL <= 0 {
		return errors.New("SETTINGS_CACHE_TTL must be positive")
	}
	if cfg.SubmitRatePerSecond <= 0 || cfg.SubmitRateBurst <= 0 {
		return errors.New("SUBMIT_RATE_PER_SECOND and SUBMIT_RATE_BURST must be positive")
	}

	if cfg.IsProduction() {
		if err := validateSSLMode(cfg.DatabaseURL); err != nil {
			return err
		}
	}
	return nil
}

func validateSSLMode(databaseURL string) error {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}
	mode := strings.ToLower(u.Query().Get("sslmode"))
	if mode == "disable" || mode == "allow" {
		return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
	}
	return nil
}
