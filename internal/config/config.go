package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                   int    `env:"PORT" envDefault:"8080"`
	DatabaseURL            string `env:"DATABASE_URL"`
	RedisURL               string `env:"REDIS_URL"`
	RunMigrations          bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	InviteCode             string `env:"INVITE_CODE"`
	DemoMode               bool   `env:"DEMO_MODE" envDefault:"false"`
	CodeTTLMinutes         int    `env:"CODE_TTL_MINUTES" envDefault:"10"`
	SessionTTLMinutes      int    `env:"SESSION_TTL_MINUTES" envDefault:"1440"`
	AuthStoreFallback      bool   `env:"AUTH_STORE_FALLBACK" envDefault:"false"`
	CodeRequestLimit       int    `env:"CODE_REQUEST_LIMIT" envDefault:"5"`
	CodeVerifyLimit        int    `env:"CODE_VERIFY_LIMIT" envDefault:"10"`
	MessageRateLimitPerMin int    `env:"MESSAGE_RATE_LIMIT_PER_MIN" envDefault:"60"`
	PostmarkServerToken    string `env:"POSTMARK_SERVER_TOKEN"`
	MailFrom               string `env:"MAIL_FROM" envDefault:"no-reply@localhost"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) CodeTTL() time.Duration {
	return time.Duration(c.CodeTTLMinutes) * time.Minute
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.CodeTTLMinutes <= 0 {
		return fmt.Errorf("CODE_TTL_MINUTES must be positive")
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive")
	}

	if isProduction {
		if c.DemoMode {
			return fmt.Errorf("DEMO_MODE must be disabled in production: it returns login codes in API responses")
		}
		if c.AuthStoreFallback {
			return fmt.Errorf("AUTH_STORE_FALLBACK must be disabled in production: it accepts raw tokens as identities")
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}

		if c.PostmarkServerToken == "" {
			log.Warn().Msg("POSTMARK_SERVER_TOKEN is empty in production: login codes will only be logged")
		}
		if c.RedisURL == "" {
			log.Warn().Msg("REDIS_URL is empty in production: code request limits fall back to none")
		} else if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
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
