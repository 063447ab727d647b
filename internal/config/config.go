package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BusRedis  = "redis"
	BusKafka  = "kafka"
	BusMemory = "memory"

	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type DB struct {
	Host     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"eventmanager"`
	Password string `env:"DB_PASSWORD" envDefault:"eventmanager"`
	Name     string `env:"DB_NAME" envDefault:"eventmanager"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// URL builds the pgx connection string.
func (d DB) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"127.0.0.1:9092"`
	GroupID string   `env:"KAFKA_GROUP_ID" envDefault:"eventmanager"`
}

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"dev"`
	Port int    `env:"PORT" envDefault:"8080"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DB          DB
	DBURL       string `env:"DATABASE_URL"`

	BusDriver         string `env:"BUS_DRIVER" envDefault:"redis"`
	Redis             Redis
	Kafka             Kafka
	CancelChannel     string `env:"CANCEL_CHANNEL" envDefault:"event.cancel"`
	DeadLetterChannel string `env:"DEAD_LETTER_CHANNEL" envDefault:"event.cancel.dlq"`

	AdminEmail string `env:"ADMIN_EMAIL"`
	AdminName  string `env:"ADMIN_NAME" envDefault:"Administrator"`

	JWTSecret    string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTAccessTTL time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`

	OTELEndpoint string `env:"OTEL_ENDPOINT"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	// write requests per minute per caller; 0 disables the limiter
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`

	SweepInterval     time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`
	WorkerConcurrency int           `env:"WORKER_CONCURRENCY" envDefault:"4"`
	WorkerHealthPort  int           `env:"WORKER_HEALTH_PORT" envDefault:"8081"`

	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"30s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBURL == "" {
		cfg.DBURL = cfg.DB.URL()
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.BusDriver {
	case BusRedis, BusKafka, BusMemory:
	default:
		return fmt.Errorf("config: unknown BUS_DRIVER %q", c.BusDriver)
	}
	switch c.StoreDriver {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Env == "prod" && c.JWTSecret == "dev-secret-change-me" {
		return errors.New("config: JWT_SECRET must be set in prod")
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("config: WORKER_CONCURRENCY must be positive, got %d", c.WorkerConcurrency)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("config: SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	return nil
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
