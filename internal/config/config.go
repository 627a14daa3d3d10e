// Package config loads process configuration once at startup. The resulting
// value is passed by reference into each collaborator; nothing reads the
// environment after boot.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"shopnest"`
	Env         string `env:"ENV" envDefault:"dev"`
	Addr        string `env:"ADDR" envDefault:":8000"`

	// ClientURL is the storefront origin the provider redirects buyers back to.
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`
	Currency  string `env:"CURRENCY" envDefault:"usd"`

	MySQLDSN  string `env:"MYSQL_DSN"`
	RedisAddr string `env:"REDIS_ADDR"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	JWTSecret        string `env:"JWT_SECRET"`
	JWTRefreshSecret string `env:"JWT_REFRESH_SECRET"`

	CheckoutTimeout time.Duration `env:"CHECKOUT_TIMEOUT" envDefault:"10s"`
}

// Load parses configuration from environment variables and validates the
// secrets the payment and auth flows cannot run without.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTRefreshSecret == "" {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET is required")
	}
	return &cfg, nil
}
