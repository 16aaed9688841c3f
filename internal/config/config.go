package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Notify    NotifyConfig    `mapstructure:"notify"    validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// PublicBaseURL is the externally reachable base URL of this instance.
	// It is embedded in notification action buttons, so it must be resolvable
	// from outside any session context.
	PublicBaseURL string `mapstructure:"public_base_url" validate:"required,url"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains session authentication settings.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"     validate:"required,min=32"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"required"`
}

// NotifyConfig contains notification delivery settings.
type NotifyConfig struct {
	// CallbackSecret keys the HMAC capability tokens that authenticate
	// snooze/dismiss callback URLs.
	CallbackSecret string `mapstructure:"callback_secret" validate:"required,min=32"`

	// FireSecret is the shared bearer credential required by the
	// fire-trigger endpoint.
	FireSecret string `mapstructure:"fire_secret" validate:"required,min=32"`

	// VAPID key pair and contact for Web Push.
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"  validate:"required"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key" validate:"required"`
	VAPIDSubject    string `mapstructure:"vapid_subject"     validate:"required"`

	// RelayBaseURL is the base URL of the ntfy-compatible topic relay.
	RelayBaseURL string `mapstructure:"relay_base_url" validate:"required,url"`
}

// SchedulerConfig contains durable job scheduler settings.
type SchedulerConfig struct {
	// RunWorker controls whether this instance runs the consumer loop.
	// In multi-instance deployments exactly one instance should set it;
	// every instance may still enqueue and cancel jobs.
	RunWorker bool `mapstructure:"run_worker"`

	WorkerCount  int           `mapstructure:"worker_count"  validate:"required,gt=0"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required"`
	BatchSize    int           `mapstructure:"batch_size"    validate:"required,gt=0"`
	MaxAttempts  int           `mapstructure:"max_attempts"  validate:"required,gt=0"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" validate:"required"`
}
