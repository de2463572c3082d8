package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/staybook/reviews/pkg/config"
	"github.com/staybook/reviews/pkg/database"
)

// Config holds all configuration for the review service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"REVIEW_HTTP_PORT" envDefault:"8007"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"staybook"`
	PostgresPass     string `env:"POSTGRES_PASSWORD" envDefault:"staybook_secret"`
	PostgresDB       string `env:"REVIEW_DB_NAME" envDefault:"review_db"`
	PostgresSSL      string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	PostgresMinConns int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Collaborating services
	BookingServiceURL string `env:"BOOKING_SERVICE_URL" envDefault:"http://localhost:8004"`
	CatalogServiceURL string `env:"CATALOG_SERVICE_URL" envDefault:"http://localhost:8002"`
	MediaServiceURL   string `env:"MEDIA_SERVICE_URL" envDefault:"http://localhost:8006"`

	// Auth
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`

	// Rate limiting for review submission
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load review config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("at least one kafka broker is required")
	}
	if c.RateLimitRPS < 1 || c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}
	return nil
}

// Postgres returns the connection settings for the database layer.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        c.PostgresMinConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}
