package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"8082"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// Storage collaborator. Both are required.
	StoreURL string `env:"STORE_URL,required"`
	StoreKey string `env:"STORE_KEY,required"`

	RabbitURL string `env:"RABBITMQ_URL"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	FallbackFormURL string        `env:"FALLBACK_FORM_URL"`
	FallbackTimeout time.Duration `env:"FALLBACK_TIMEOUT" envDefault:"10s"`

	AdminAPIKey    string   `env:"ADMIN_API_KEY"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	SendGridAPIKey  string `env:"SENDGRID_API_KEY"`
	NotifyFromEmail string `env:"NOTIFY_FROM_EMAIL"`
	NotifyFromName  string `env:"NOTIFY_FROM_NAME" envDefault:"Consultation Bookings"`
	NotifyToEmail   string `env:"NOTIFY_TO_EMAIL"`

	Schedule  Schedule
	RateLimit RateLimit
}

// Schedule describes the consultant's calendar in the origin timezone.
type Schedule struct {
	OriginTimezone string        `env:"ORIGIN_TIMEZONE" envDefault:"Europe/London"`
	OpensAt        string        `env:"BUSINESS_OPENS_AT" envDefault:"09:00"`
	ClosesAt       string        `env:"BUSINESS_CLOSES_AT" envDefault:"21:00"`
	SlotInterval   time.Duration `env:"SLOT_INTERVAL" envDefault:"20m"`
	DaysAhead      int           `env:"BOOKING_DAYS_AHEAD" envDefault:"30"`
	HorizonDays    int           `env:"BOOKING_HORIZON_DAYS" envDefault:"90"`
	DismissAfter   time.Duration `env:"CONFIRMATION_DISMISS_AFTER" envDefault:"60s"`
}

type RateLimit struct {
	MaxAttempts int           `env:"RATE_LIMIT_MAX_ATTEMPTS" envDefault:"2"`
	Window      time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"10m"`
	MinFillTime time.Duration `env:"MIN_FORM_FILL_TIME" envDefault:"60s"`
	SessionTTL  time.Duration `env:"FORM_SESSION_TTL" envDefault:"1h"`
	SessionSize int           `env:"FORM_SESSION_CACHE_SIZE" envDefault:"10000"`
}

// Load reads .env (when present) and the process environment. It fails when a
// required storage parameter is missing.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.StoreURL = strings.TrimSpace(cfg.StoreURL)
	cfg.StoreKey = strings.TrimSpace(cfg.StoreKey)
	if cfg.StoreURL == "" || cfg.StoreKey == "" {
		return nil, fmt.Errorf("parse config: STORE_URL and STORE_KEY must not be blank")
	}
	if _, err := time.LoadLocation(cfg.Schedule.OriginTimezone); err != nil {
		return nil, fmt.Errorf("parse config: ORIGIN_TIMEZONE: %w", err)
	}

	return cfg, nil
}

// DSN injects the access key into the store URL as the connection password.
func (c *Config) DSN() (string, error) {
	u, err := url.Parse(c.StoreURL)
	if err != nil {
		return "", fmt.Errorf("parse STORE_URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("parse STORE_URL: %q is not an absolute url", c.StoreURL)
	}

	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, c.StoreKey)

	return u.String(), nil
}

// Origin returns the timezone business hours are defined in.
func (c *Config) Origin() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.OriginTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
