package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Environment  string             `json:"environment"`
	LogLevel     string             `json:"log_level"`
	Server       ServerConfig       `json:"server"`
	Database     DatabaseConfig     `json:"database"`
	Security     SecurityConfig     `json:"security"`
	RateLimit    RateLimitConfig    `json:"rate_limit"`
	Offers       OffersConfig       `json:"offers"`
	Timeouts     TimeoutsConfig     `json:"timeouts"`
	Notification NotificationConfig `json:"notification"`
	Redis        RedisConfig        `json:"redis"`
	Broker       BrokerConfig       `json:"broker"`
	Tracing      TracingConfig      `json:"tracing"`
	Sweep        SweepConfig        `json:"sweep"`
	Features     FeaturesConfig     `json:"features"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port           string   `json:"port"`
	Host           string   `json:"host"`
	RequestTimeout Duration `json:"request_timeout"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	// Max request body size in bytes (default: 1MB)
	MaxRequestBodySize int64 `json:"max_request_body_size"`
	// Allowed CORS origins (comma-separated)
	AllowedOrigins string `json:"allowed_origins"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool `json:"enabled"`
	Rate    int  `json:"rate"`
	Window  int  `json:"window"` // in seconds
}

// OffersConfig tunes offer creation.
type OffersConfig struct {
	DefaultValidityDays int    `json:"default_validity_days"`
	Currency            string `json:"currency"`
	NumberAttempts      int    `json:"number_attempts"`
	VersionAttempts     int    `json:"version_attempts"`
}

// TimeoutsConfig bounds every collaborator call.
type TimeoutsConfig struct {
	Store        Duration `json:"store"`
	Notification Duration `json:"notification"`
	Activity     Duration `json:"activity"`
}

// NotificationConfig configures the outbound offer email relay.
// An empty WebhookURL means offers are only logged.
type NotificationConfig struct {
	WebhookURL    string `json:"webhook_url"`
	From          string `json:"from"`
	SubjectPrefix string `json:"subject_prefix"`
}

// RedisConfig configures the document cache.
type RedisConfig struct {
	Enabled     bool     `json:"enabled"`
	Addr        string   `json:"addr"`
	Password    string   `json:"password"`
	DB          int      `json:"db"`
	DocumentTTL Duration `json:"document_ttl"`
}

// BrokerConfig configures the RabbitMQ event publisher. An empty URL disables it.
type BrokerConfig struct {
	URL      string `json:"url"`
	Exchange string `json:"exchange"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	JaegerEndpoint string  `json:"jaeger_endpoint"`
	ServiceName    string  `json:"service_name"`
	SampleRatio    float64 `json:"sample_ratio"`
}

// SweepConfig configures the background expiry sweep.
type SweepConfig struct {
	Enabled   bool     `json:"enabled"`
	Interval  Duration `json:"interval"`
	BatchSize int      `json:"batch_size"`
}

// FeaturesConfig holds the initial state of each feature flag.
type FeaturesConfig struct {
	DocumentCache bool `json:"document_cache"`
	PDFAttachment bool `json:"pdf_attachment"`
	EventBroker   bool `json:"event_broker"`
}

// Duration is a time.Duration that reads "30s"-style strings from JSON.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid duration %s", data)
		}
		d.Duration = time.Duration(n)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// LoadConfig loads configuration from environment variables and/or config file.
// Environment variables take precedence over config file values. A .env file in
// the working directory is loaded first when present.
func LoadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := defaults()

	// Load from config file if provided
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables (they take precedence)
	overrideFromEnv(cfg)

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:           "8080",
			RequestTimeout: Duration{30 * time.Second},
		},
		Database: DatabaseConfig{
			Path: "./booking_offers.db",
		},
		Security: SecurityConfig{
			MaxRequestBodySize: 1 << 20,
			AllowedOrigins:     "*",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Rate:    100,
			Window:  60,
		},
		Offers: OffersConfig{
			DefaultValidityDays: 7,
			Currency:            "CHF",
			NumberAttempts:      5,
			VersionAttempts:     5,
		},
		Timeouts: TimeoutsConfig{
			Store:        Duration{5 * time.Second},
			Notification: Duration{10 * time.Second},
			Activity:     Duration{2 * time.Second},
		},
		Notification: NotificationConfig{
			From:          "offers@example.ch",
			SubjectPrefix: "Your Davos accommodation offer",
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			DocumentTTL: Duration{7 * 24 * time.Hour},
		},
		Broker: BrokerConfig{
			Exchange: "booking.offers",
		},
		Tracing: TracingConfig{
			JaegerEndpoint: "http://localhost:14268/api/traces",
			ServiceName:    "booking-offer-api",
			SampleRatio:    1,
		},
		Sweep: SweepConfig{
			Enabled:   true,
			Interval:  Duration{5 * time.Minute},
			BatchSize: 100,
		},
		Features: FeaturesConfig{
			DocumentCache: true,
			PDFAttachment: true,
			EventBroker:   true,
		},
	}
}

// loadFromFile loads configuration from a JSON file.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, cfg)
}

// overrideFromEnv overrides configuration with environment variables.
func overrideFromEnv(cfg *Config) {
	setString(&cfg.Environment, "ENVIRONMENT")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	setString(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Server.Host, "SERVER_HOST")
	setDuration(&cfg.Server.RequestTimeout, "SERVER_REQUEST_TIMEOUT")

	setString(&cfg.Database.Path, "DATABASE_PATH")

	setInt64(&cfg.Security.MaxRequestBodySize, "MAX_REQUEST_BODY_SIZE")
	setString(&cfg.Security.AllowedOrigins, "ALLOWED_ORIGINS")

	setBool(&cfg.RateLimit.Enabled, "RATE_LIMIT_ENABLED")
	setInt(&cfg.RateLimit.Rate, "RATE_LIMIT_RATE")
	setInt(&cfg.RateLimit.Window, "RATE_LIMIT_WINDOW")

	setInt(&cfg.Offers.DefaultValidityDays, "OFFER_DEFAULT_VALIDITY_DAYS")
	setString(&cfg.Offers.Currency, "OFFER_CURRENCY")
	setInt(&cfg.Offers.NumberAttempts, "OFFER_NUMBER_ATTEMPTS")
	setInt(&cfg.Offers.VersionAttempts, "OFFER_VERSION_ATTEMPTS")

	setDuration(&cfg.Timeouts.Store, "TIMEOUT_STORE")
	setDuration(&cfg.Timeouts.Notification, "TIMEOUT_NOTIFICATION")
	setDuration(&cfg.Timeouts.Activity, "TIMEOUT_ACTIVITY")

	setString(&cfg.Notification.WebhookURL, "NOTIFICATION_WEBHOOK_URL")
	setString(&cfg.Notification.From, "NOTIFICATION_FROM")
	setString(&cfg.Notification.SubjectPrefix, "NOTIFICATION_SUBJECT_PREFIX")

	setBool(&cfg.Redis.Enabled, "REDIS_ENABLED")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setDuration(&cfg.Redis.DocumentTTL, "REDIS_DOCUMENT_TTL")

	setString(&cfg.Broker.URL, "RABBITMQ_URL")
	setString(&cfg.Broker.Exchange, "RABBITMQ_EXCHANGE")

	setBool(&cfg.Tracing.Enabled, "TRACING_ENABLED")
	setString(&cfg.Tracing.JaegerEndpoint, "JAEGER_ENDPOINT")
	setString(&cfg.Tracing.ServiceName, "TRACING_SERVICE_NAME")
	setFloat(&cfg.Tracing.SampleRatio, "TRACING_SAMPLE_RATIO")

	setBool(&cfg.Sweep.Enabled, "SWEEP_ENABLED")
	setDuration(&cfg.Sweep.Interval, "SWEEP_INTERVAL")
	setInt(&cfg.Sweep.BatchSize, "SWEEP_BATCH_SIZE")

	setBool(&cfg.Features.DocumentCache, "FEATURE_DOCUMENT_CACHE")
	setBool(&cfg.Features.PDFAttachment, "FEATURE_PDF_ATTACHMENT")
	setBool(&cfg.Features.EventBroker, "FEATURE_EVENT_BROKER")
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setBool(dst *bool, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = strings.ToLower(value) == "true" || value == "1"
	}
}

func setInt(dst *int, key string) {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			*dst = i
		}
	}
}

func setInt64(dst *int64, key string) {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			*dst = i
		}
	}
}

func setFloat(dst *float64, key string) {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *Duration, key string) {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			dst.Duration = d
		}
	}
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Rate <= 0 {
			return fmt.Errorf("rate limit rate must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit window must be positive")
		}
	}
	if c.Offers.DefaultValidityDays < 1 {
		return fmt.Errorf("default offer validity must be at least 1 day")
	}
	if c.Offers.NumberAttempts < 1 || c.Offers.VersionAttempts < 1 {
		return fmt.Errorf("offer retry attempts must be positive")
	}
	if c.Offers.Currency == "" {
		return fmt.Errorf("offer currency is required")
	}
	if c.Sweep.Enabled {
		if c.Sweep.Interval.Duration <= 0 {
			return fmt.Errorf("sweep interval must be positive")
		}
		if c.Sweep.BatchSize <= 0 {
			return fmt.Errorf("sweep batch size must be positive")
		}
	}
	return nil
}
