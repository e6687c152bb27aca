// Package config defines the configuration for the DesignKit entitlements
// service. Configuration is loaded once at process initialization and is
// immutable thereafter, following 12-Factor principles. Any missing required
// value or invalid format fails startup immediately.
package config

import "time"

// Config is the top-level configuration struct. It is populated once during
// process initialization and never modified. Sub-components receive only the
// specific config subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"designkit-entitlements"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Usage    UsageConfig
	Billing  BillingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
// URL is required only when the postgres usage backend is selected.
type DatabaseConfig struct {
	URL             string        `envconfig:"DATABASE_URL"`
	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
}

// RedisConfig holds the Redis connection string for the redis usage backend.
type RedisConfig struct {
	URL string `envconfig:"REDIS_URL"`
}

// UsageConfig holds the counter store selection and entitlement tuning.
type UsageConfig struct {
	// Backend selects the counter store implementation.
	Backend string `envconfig:"USAGE_BACKEND" default:"memory" validate:"oneof=memory postgres redis"`

	// Timezone is the IANA zone used to render day keys. Day partitioning
	// follows this zone's midnight.
	Timezone string `envconfig:"USAGE_TIMEZONE" default:"UTC"`

	// DeveloperEmail is the reserved address that always resolves to the
	// developer plan.
	DeveloperEmail string `envconfig:"DEVELOPER_EMAIL" default:"dev@designkit.io"`

	// RetentionDays controls how long stale daily counters are kept before
	// the compactor removes them.
	RetentionDays int `envconfig:"USAGE_RETENTION_DAYS" default:"30" validate:"min=1"`

	// CompactionInterval is how often the compactor runs. Zero disables it.
	CompactionInterval time.Duration `envconfig:"USAGE_COMPACTION_INTERVAL" default:"6h"`
}

// BillingConfig holds payment provider credentials and the price-to-plan
// mapping used when applying subscription webhooks.
type BillingConfig struct {
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	// Provider price IDs mapped to plans.
	PriceStarter string `envconfig:"STRIPE_PRICE_STARTER"`
	PricePro     string `envconfig:"STRIPE_PRICE_PRO"`
}
