package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// CLEANING_DATABASE_HOST or CLEANING_PRICING_QUOTE_TTL.
const EnvPrefix = "CLEANING"

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" split_words:"true"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" split_words:"true"`
	// ConnectWait bounds how long startup keeps retrying the first connection.
	ConnectWait time.Duration `mapstructure:"connect_wait" split_words:"true"`
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" split_words:"true"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes" split_words:"true"`
	Mode           string        `mapstructure:"mode"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" split_words:"true"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" split_words:"true"`
	CORSOrigins    []string      `mapstructure:"cors_origins" envconfig:"CORS_ORIGINS"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	Channel      string        `mapstructure:"channel"`
	MaxRetries   int           `mapstructure:"max_retries" split_words:"true"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" split_words:"true"`
	PoolSize     int           `mapstructure:"pool_size" split_words:"true"`
	MinIdleConns int           `mapstructure:"min_idle_conns" split_words:"true"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size" split_words:"true"`
	PollInterval  time.Duration `mapstructure:"poll_interval" split_words:"true"`
	RetryAttempts int           `mapstructure:"retry_attempts" split_words:"true"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" split_words:"true"`
	Retention     time.Duration `mapstructure:"retention"`
}

type PricingConfig struct {
	Currency string `mapstructure:"currency"`
	// QuoteTTL is how long an open quote can still be accepted.
	QuoteTTL          time.Duration `mapstructure:"quote_ttl" split_words:"true"`
	MinAdvanceBooking time.Duration `mapstructure:"min_advance_booking" split_words:"true"`
	MaxAdvanceBooking time.Duration `mapstructure:"max_advance_booking" split_words:"true"`
}

type LoyaltyConfig struct {
	// MinorUnitsPerPoint is how much of a final price earns one point.
	MinorUnitsPerPoint int64 `mapstructure:"minor_units_per_point" split_words:"true"`
}

type CacheConfig struct {
	CatalogTTL      time.Duration `mapstructure:"catalog_ttl" split_words:"true"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" split_words:"true"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" split_words:"true"`
	Burst             int     `mapstructure:"burst"`
}

type CronConfig struct {
	QuoteExpiry   string `mapstructure:"quote_expiry" split_words:"true"`
	OutboxCleanup string `mapstructure:"outbox_cleanup" split_words:"true"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool   `mapstructure:"prometheus_enabled" split_words:"true"`
	Namespace         string `mapstructure:"namespace"`
	// WorkerPort serves the worker's health and metrics endpoints.
	WorkerPort int `mapstructure:"worker_port" split_words:"true"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Outbox     OutboxConfig     `mapstructure:"outbox"`
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Loyalty    LoyaltyConfig    `mapstructure:"loyalty"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit" split_words:"true"`
	Cron       CronConfig       `mapstructure:"cron"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "cleaning")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.connect_wait", 30*time.Second)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.channel", "cleaning.events")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", 5*time.Second)
	v.SetDefault("outbox.retention", 7*24*time.Hour)

	v.SetDefault("pricing.currency", "EGP")
	v.SetDefault("pricing.quote_ttl", 48*time.Hour)
	v.SetDefault("pricing.min_advance_booking", 2*time.Hour)
	v.SetDefault("pricing.max_advance_booking", 90*24*time.Hour)

	v.SetDefault("loyalty.minor_units_per_point", 1000)

	v.SetDefault("cache.catalog_ttl", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("cron.quote_expiry", "*/15 * * * *")
	v.SetDefault("cron.outbox_cleanup", "0 3 * * *")

	v.SetDefault("log.level", "info")
	v.SetDefault("monitoring.prometheus_enabled", true)
	v.SetDefault("monitoring.namespace", "cleaning")
	v.SetDefault("monitoring.worker_port", 8081)
}

// LoadConfig reads config.yml from the usual locations, falls back to
// defaults when no file exists, then applies CLEANING_* environment
// overrides.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/app", "/app/config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Pricing.Currency == "":
		return errors.New("pricing.currency must be set")
	case c.Pricing.QuoteTTL <= 0:
		return errors.New("pricing.quote_ttl must be positive")
	case c.Pricing.MaxAdvanceBooking <= c.Pricing.MinAdvanceBooking:
		return errors.New("pricing.max_advance_booking must exceed pricing.min_advance_booking")
	case c.Loyalty.MinorUnitsPerPoint <= 0:
		return errors.New("loyalty.minor_units_per_point must be positive")
	case c.Outbox.BatchSize <= 0:
		return errors.New("outbox.batch_size must be positive")
	}
	return nil
}
