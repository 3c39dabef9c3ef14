package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                    int    `env:"PORT" envDefault:"8080"`
	DatabaseURL             string `env:"DATABASE_URL,required"`
	RedisURL                string `env:"REDIS_URL,required"`
	PlaybackSigningKey      string `env:"PLAYBACK_SIGNING_KEY,required"`
	SessionJWTSecret        string `env:"SESSION_JWT_SECRET,required"`
	MediaOriginURL          string `env:"MEDIA_ORIGIN_URL,required"`
	PlaybackTokenTTLSeconds int    `env:"PLAYBACK_TOKEN_TTL_SECONDS" envDefault:"3600"`
	SessionTTLDays          int    `env:"SESSION_TTL_DAYS" envDefault:"30"`
	LogLevel                string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) PlaybackTokenTTL() time.Duration {
	return time.Duration(c.PlaybackTokenTTLSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLDays) * 24 * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if isProduction {
		if err := validateSecret("PLAYBACK_SIGNING_KEY", c.PlaybackSigningKey); err != nil {
			return err
		}
		if err := validateSecret("SESSION_JWT_SECRET", c.SessionJWTSecret); err != nil {
			return err
		}

		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if strings.HasPrefix(c.MediaOriginURL, "http://") {
			log.Warn().Msg("MEDIA_ORIGIN_URL uses http:// in production: signed playback URLs will redirect over plaintext")
		}
	}

	if c.PlaybackTokenTTLSeconds <= 0 {
		return fmt.Errorf("PLAYBACK_TOKEN_TTL_SECONDS must be positive")
	}
	if c.SessionTTLDays <= 0 {
		return fmt.Errorf("SESSION_TTL_DAYS must be positive")
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: go run scripts/gen-signing-key.go)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
