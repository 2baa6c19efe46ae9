// Package config defines the process configuration. It is loaded once at
// startup and is immutable thereafter.
//
// Values are resolved in priority order:
//
//	OS environment -> .env file -> secret references (*_SECRET_REF)
//
// Missing required values or invalid formats fail startup.
package config

import (
	"time"

	"meteo/internal/types"
)

// SecretString is an alias for types.SecretString.
type SecretString = types.SecretString

// Presenter kinds for the daily notification.
const (
	PresenterLog     = "log"
	PresenterSQS     = "sqs"
	PresenterWebhook = "webhook"
)

// Config is the top-level configuration. Components receive only the
// section they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"meteo"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Database      DatabaseConfig
	Weather       WeatherConfig
	Advisor       AdvisorConfig
	Notification  NotificationConfig
	Cache         CacheConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Injected via ldflags, not env.
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"90s" validate:"gt=0"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds the connection string and pool tuning.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns          int32         `envconfig:"DB_MAX_CONNS" default:"10" validate:"gte=1"`
	MinConns          int32         `envconfig:"DB_MIN_CONNS" default:"1" validate:"gte=0"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
	// ApplySchema runs the embedded idempotent DDL at startup.
	ApplySchema bool `envconfig:"DB_APPLY_SCHEMA" default:"true"`
}

// WeatherConfig configures the OpenWeatherMap client.
type WeatherConfig struct {
	APIKey  SecretString  `envconfig:"OPENWEATHER_API_KEY" validate:"required"`
	BaseURL string        `envconfig:"OPENWEATHER_BASE_URL" validate:"omitempty,url"`
	Units   string        `envconfig:"OPENWEATHER_UNITS" default:"metric" validate:"oneof=metric imperial standard"`
	Lang    string        `envconfig:"OPENWEATHER_LANG" default:"fr"`
	Timeout time.Duration `envconfig:"OPENWEATHER_TIMEOUT" default:"10s" validate:"gt=0"`
}

// AdvisorConfig configures the remote clothing advisor. With Enabled false
// every request is served by the local rules.
type AdvisorConfig struct {
	Enabled     bool          `envconfig:"ADVISOR_ENABLED" default:"true"`
	APIKey      SecretString  `envconfig:"MISTRAL_API_KEY" validate:"required_if=Enabled true"`
	BaseURL     string        `envconfig:"MISTRAL_BASE_URL" validate:"omitempty,url"`
	Model       string        `envconfig:"MISTRAL_MODEL" default:"mistral-small"`
	MaxTokens   int           `envconfig:"MISTRAL_MAX_TOKENS" default:"500" validate:"gt=0"`
	Temperature float32       `envconfig:"MISTRAL_TEMPERATURE" default:"0.7" validate:"gte=0,lte=2"`
	Timeout     time.Duration `envconfig:"MISTRAL_TIMEOUT" default:"60s" validate:"gt=0"`
}

// NotificationConfig configures the daily notification.
type NotificationConfig struct {
	DeliveryTime string `envconfig:"NOTIFY_DELIVERY_TIME" default:"15:30" validate:"timeofday"`
	Timezone     string `envconfig:"NOTIFY_TIMEZONE" default:"Europe/Paris" validate:"timezone"`
	BatchLimit   int    `envconfig:"NOTIFY_BATCH_LIMIT" default:"50" validate:"gt=0"`
	// RetryDelay defers a city whose delivery failed.
	RetryDelay time.Duration `envconfig:"NOTIFY_RETRY_DELAY" default:"15m" validate:"gt=0"`
	// Schedule is the cron expression of the local runner; the Lambda runner
	// is triggered by its own schedule rule.
	Schedule string `envconfig:"NOTIFY_SCHEDULE" default:"*/5 * * * *"`

	Presenter           string        `envconfig:"NOTIFY_PRESENTER" default:"log" validate:"oneof=log sqs webhook"`
	QueueURL            string        `envconfig:"SQS_NOTIFICATIONS" validate:"required_if=Presenter sqs"`
	WebhookURL          string        `envconfig:"NOTIFY_WEBHOOK_URL" validate:"required_if=Presenter webhook"`
	WebhookPlatform     string        `envconfig:"NOTIFY_WEBHOOK_PLATFORM" validate:"omitempty,oneof=generic slack discord google_chat"`
	WebhookSecret       SecretString  `envconfig:"NOTIFY_WEBHOOK_SECRET"`
	WebhookTimeout      time.Duration `envconfig:"NOTIFY_WEBHOOK_TIMEOUT" default:"10s"`
	WebhookAllowPrivate bool          `envconfig:"NOTIFY_WEBHOOK_ALLOW_PRIVATE" default:"false"`
}

// CacheConfig configures the weather cache. An empty RedisAddr keeps the
// cache in process memory.
type CacheConfig struct {
	TTL           time.Duration `envconfig:"CACHE_TTL" default:"10m" validate:"gte=0"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword SecretString  `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
}

// AWSConfig holds the region and an optional endpoint override (LocalStack).
type AWSConfig struct {
	Region      string `envconfig:"AWS_REGION" default:"eu-west-3"`
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"Meteo"`
	// CloudWatch enables pushed notification metrics.
	CloudWatch bool `envconfig:"CLOUDWATCH_METRICS" default:"false"`
}

// BuildInfo holds build-time metadata.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	ErrSecretResolution ConfigErrorType = "SECRET_FAILURE"
	ErrValidation       ConfigErrorType = "VALIDATION_FAILED"
	ErrParsing          ConfigErrorType = "PARSING_FAILED"
)
