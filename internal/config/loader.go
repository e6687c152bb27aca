// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Load a .env file via godotenv (non-fatal if absent).
//  2. Use envconfig to process struct tags and populate the Config struct.
//  3. Validate the struct using go-playground/validator.
//  4. Apply cross-field checks that struct tags cannot express (backend
//     connection URLs, timezone parseability).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigErrorType categorizes configuration failures for diagnostics.
type ConfigErrorType string

const (
	ErrParsing    ConfigErrorType = "parsing"
	ErrValidation ConfigErrorType = "validation"
)

// ConfigError is a diagnostic error type returned by LoadConfig.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LoadConfig loads and validates the service configuration from the
// environment. A .env file in the working directory is merged first without
// overriding variables already set in the OS environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	if err := cfg.checkCrossFields(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// checkCrossFields enforces constraints between fields that struct tags
// cannot express.
func (c *Config) checkCrossFields() error {
	switch c.Usage.Backend {
	case "postgres":
		if c.Database.URL == "" {
			return &ConfigError{
				Type:    ErrValidation,
				Message: "DATABASE_URL is required when USAGE_BACKEND=postgres",
			}
		}
	case "redis":
		if c.Redis.URL == "" {
			return &ConfigError{
				Type:    ErrValidation,
				Message: "REDIS_URL is required when USAGE_BACKEND=redis",
			}
		}
	}

	if _, err := time.LoadLocation(c.Usage.Timezone); err != nil {
		return &ConfigError{
			Type:    ErrValidation,
			Message: fmt.Sprintf("USAGE_TIMEZONE %q is not a valid IANA zone", c.Usage.Timezone),
			Err:     err,
		}
	}

	// Webhook handling needs both halves of the Stripe credentials.
	if (c.Billing.StripeSecretKey == "") != (c.Billing.StripeWebhookSecret == "") {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET must be set together",
		}
	}

	return nil
}

// BillingEnabled reports whether Stripe credentials are configured. When
// false the webhook endpoint is not mounted.
func (c *Config) BillingEnabled() bool {
	return c.Billing.StripeSecretKey != "" && c.Billing.StripeWebhookSecret != ""
}
