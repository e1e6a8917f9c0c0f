package storefront

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vishxl-0001/vipn/internal/port"
	"github.com/vishxl-0001/vipn/pkg/payment"
)

// Config is the complete storefront configuration. Values are layered:
// defaults, then environment variables, then functional options, and the
// result is validated by NewConfig.
type Config struct {
	Name        string           `json:"name" yaml:"name" env:"STOREFRONT_NAME" default:"storefront"`
	Port        int              `json:"port" yaml:"port" env:"PORT" default:"0"`
	Address     string           `json:"address" yaml:"address" env:"STOREFRONT_ADDRESS"`
	PortRange   string           `json:"port_range" yaml:"port_range" env:"PORT_RANGE" default:"8080-8090"`
	Environment port.Environment `json:"-" yaml:"-"`

	HTTP        HTTPConfig        `json:"http" yaml:"http"`
	Session     SessionConfig     `json:"session" yaml:"session"`
	Payment     PaymentConfig     `json:"payment" yaml:"payment"`
	Catalog     CatalogConfig     `json:"catalog" yaml:"catalog"`
	Telemetry   TelemetryConfig   `json:"telemetry" yaml:"telemetry"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging"`
	Development DevelopmentConfig `json:"development" yaml:"development"`
}

// HTTPConfig contains HTTP server settings
type HTTPConfig struct {
	ReadTimeout       time.Duration `json:"read_timeout" yaml:"read_timeout" env:"STOREFRONT_HTTP_READ_TIMEOUT" default:"15s"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout" default:"5s"`
	WriteTimeout      time.Duration `json:"write_timeout" yaml:"write_timeout" env:"STOREFRONT_HTTP_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout       time.Duration `json:"idle_timeout" yaml:"idle_timeout" default:"60s"`
	MaxHeaderBytes    int           `json:"max_header_bytes" yaml:"max_header_bytes" default:"1048576"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" env:"STOREFRONT_SHUTDOWN_TIMEOUT" default:"10s"`
}

// SessionConfig selects where visitor state lives between requests
type SessionConfig struct {
	Store           string        `json:"store" yaml:"store" env:"STOREFRONT_SESSION_STORE" default:"memory"`
	RedisURL        string        `json:"redis_url" yaml:"redis_url" env:"REDIS_URL"`
	Namespace       string        `json:"namespace" yaml:"namespace" env:"STOREFRONT_SESSION_NAMESPACE" default:"storefront"`
	TTL             time.Duration `json:"ttl" yaml:"ttl" env:"STOREFRONT_SESSION_TTL" default:"30m"`
	CookieName      string        `json:"cookie_name" yaml:"cookie_name" default:"storefront_session"`
	SecureCookie    bool          `json:"secure_cookie" yaml:"secure_cookie" env:"STOREFRONT_SECURE_COOKIE"`
	JanitorInterval time.Duration `json:"janitor_interval" yaml:"janitor_interval" default:"1m"`
}

// PaymentConfig selects the payment provider and its branding
type PaymentConfig struct {
	Provider string           `json:"provider" yaml:"provider" env:"STOREFRONT_PAYMENT_PROVIDER" default:"simulated"`
	Settings payment.Settings `json:"settings" yaml:"settings"`
}

// CatalogConfig points at an optional catalog file
type CatalogConfig struct {
	Path string `json:"path" yaml:"path" env:"STOREFRONT_CATALOG_PATH"`
}

// TelemetryConfig contains tracing and metrics settings
type TelemetryConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled" env:"STOREFRONT_TELEMETRY_ENABLED" default:"true"`
	Endpoint     string  `json:"endpoint" yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure     bool    `json:"insecure" yaml:"insecure" env:"STOREFRONT_OTLP_INSECURE" default:"true"`
	StdoutTraces bool    `json:"stdout_traces" yaml:"stdout_traces" env:"STOREFRONT_TRACE_STDOUT"`
	SampleRatio  float64 `json:"sample_ratio" yaml:"sample_ratio" env:"STOREFRONT_TRACE_SAMPLE_RATIO" default:"1"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" env:"STOREFRONT_LOG_LEVEL" default:"info"`
	Format string `json:"format" yaml:"format" env:"STOREFRONT_LOG_FORMAT" default:"text"`
}

// DevelopmentConfig contains development-only switches
type DevelopmentConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" env:"STOREFRONT_DEV_MODE"`
}

// Option is a functional option for configuring the storefront
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults, adjusted
// for the detected environment:
//   - Kubernetes: 0.0.0.0 binding, JSON logging, port 8080
//   - Local: localhost binding, text logging, development mode
func DefaultConfig() *Config {
	cfg := &Config{
		Name:      "storefront",
		PortRange: port.DefaultRange,
		HTTP: HTTPConfig{
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
			ShutdownTimeout:   10 * time.Second,
		},
		Session: SessionConfig{
			Store:           "memory",
			Namespace:       "storefront",
			TTL:             30 * time.Minute,
			CookieName:      "storefront_session",
			JanitorInterval: time.Minute,
		},
		Payment: PaymentConfig{
			Provider: "simulated",
			Settings: payment.DefaultSettings(),
		},
		Telemetry: TelemetryConfig{
			Enabled:     true,
			Insecure:    true,
			SampleRatio: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
	cfg.DetectEnvironment()
	return cfg
}

// DetectEnvironment adjusts defaults to where the process runs
func (c *Config) DetectEnvironment() {
	c.Environment = port.DetectEnvironment()

	switch c.Environment {
	case port.EnvKubernetes, port.EnvDocker, port.EnvProduction:
		c.Address = "0.0.0.0"
		c.Logging.Format = "json"
		c.Session.SecureCookie = c.Environment == port.EnvProduction
	default:
		c.Address = "localhost"
		c.Development.Enabled = true
	}
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables take precedence over defaults but are overridden by
// functional options.
//
// Variable naming convention:
//   - Service-specific: STOREFRONT_<SETTING>
//   - Standard variables: PORT, REDIS_URL, RAZORPAY_KEY_ID, OTEL_EXPORTER_OTLP_ENDPOINT
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("STOREFRONT_NAME"); v != "" {
		c.Name = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if v == "auto" {
			c.Port = 0
		} else {
			p, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("PORT=%q: %w", v, ErrInvalidConfiguration)
			}
			c.Port = p
		}
	}
	if v := os.Getenv("STOREFRONT_ADDRESS"); v != "" {
		c.Address = v
	}
	if v := os.Getenv("PORT_RANGE"); v != "" {
		c.PortRange = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"STOREFRONT_HTTP_READ_TIMEOUT", &c.HTTP.ReadTimeout},
		{"STOREFRONT_HTTP_WRITE_TIMEOUT", &c.HTTP.WriteTimeout},
		{"STOREFRONT_SHUTDOWN_TIMEOUT", &c.HTTP.ShutdownTimeout},
		{"STOREFRONT_SESSION_TTL", &c.Session.TTL},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s=%q: %w", d.key, v, ErrInvalidConfiguration)
			}
			*d.dst = parsed
		}
	}

	// Session settings
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Session.RedisURL = v
		if os.Getenv("STOREFRONT_SESSION_STORE") == "" {
			c.Session.Store = "redis"
		}
	}
	if v := os.Getenv("STOREFRONT_SESSION_STORE"); v != "" {
		c.Session.Store = strings.ToLower(v)
	}
	if v := os.Getenv("STOREFRONT_SESSION_NAMESPACE"); v != "" {
		c.Session.Namespace = v
	}
	if v := os.Getenv("STOREFRONT_SECURE_COOKIE"); v != "" {
		c.Session.SecureCookie = parseBool(v)
	}

	// Payment settings
	if v := os.Getenv("RAZORPAY_KEY_ID"); v != "" {
		c.Payment.Settings.KeyID = v
		if os.Getenv("STOREFRONT_PAYMENT_PROVIDER") == "" {
			c.Payment.Provider = "razorpay"
		}
	}
	if v := os.Getenv("STOREFRONT_PAYMENT_PROVIDER"); v != "" {
		c.Payment.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("STOREFRONT_CATALOG_PATH"); v != "" {
		c.Catalog.Path = v
	}

	// Telemetry settings
	if v := os.Getenv("STOREFRONT_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if os.Getenv("OTEL_SDK_DISABLED") == "true" {
		c.Telemetry.Enabled = false
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := os.Getenv("STOREFRONT_OTLP_INSECURE"); v != "" {
		c.Telemetry.Insecure = parseBool(v)
	}
	if v := os.Getenv("STOREFRONT_TRACE_STDOUT"); v != "" {
		c.Telemetry.StdoutTraces = parseBool(v)
	}
	if v := os.Getenv("STOREFRONT_TRACE_SAMPLE_RATIO"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("STOREFRONT_TRACE_SAMPLE_RATIO=%q: %w", v, ErrInvalidConfiguration)
		}
		c.Telemetry.SampleRatio = ratio
	}

	// Logging settings
	if v := os.Getenv("STOREFRONT_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("STOREFRONT_LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}

	if v := os.Getenv("STOREFRONT_DEV_MODE"); v != "" {
		c.Development.Enabled = parseBool(v)
	}

	return nil
}

// LoadFromFile merges a JSON or YAML file into c. Both formats are decoded
// with the YAML decoder, so durations may be written as "30s" in either.
func (c *Config) LoadFromFile(path string) error {
	cleanPath := filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config file extension %s: %w", ext, ErrInvalidConfiguration)
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 -- operator-supplied path
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return &StoreError{
			Op:      "Config.LoadFromFile",
			Kind:    "config",
			ID:      cleanPath,
			Message: fmt.Sprintf("failed to parse config file %s: %v", cleanPath, err),
			Err:     ErrInvalidConfiguration,
		}
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Name == "" {
		return configError("service name is required", ErrMissingConfiguration)
	}
	if c.Port < 0 || c.Port > 65535 {
		return configError(fmt.Sprintf("invalid port: %d", c.Port), ErrInvalidConfiguration)
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return configError("shutdown timeout must be positive", ErrInvalidConfiguration)
	}

	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Session.RedisURL == "" {
			return configError("redis URL is required for the redis session store", ErrMissingConfiguration)
		}
	default:
		return configError(fmt.Sprintf("unknown session store: %q", c.Session.Store), ErrInvalidConfiguration)
	}
	if c.Session.TTL <= 0 {
		return configError("session TTL must be positive", ErrInvalidConfiguration)
	}

	switch c.Payment.Provider {
	case "simulated":
	case "razorpay":
		if c.Payment.Settings.KeyID == "" {
			return configError("razorpay key id is required for the razorpay provider", ErrMissingConfiguration)
		}
	default:
		return configError(fmt.Sprintf("unknown payment provider: %q", c.Payment.Provider), ErrInvalidConfiguration)
	}
	if c.Payment.Settings.Currency == "" {
		return configError("payment currency is required", ErrMissingConfiguration)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return configError(fmt.Sprintf("trace sample ratio %v outside [0, 1]", c.Telemetry.SampleRatio), ErrInvalidConfiguration)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return configError(fmt.Sprintf("unknown log format: %q", c.Logging.Format), ErrInvalidConfiguration)
	}

	return nil
}

// parseBool accepts "true", "1", "yes", "on" (case-insensitive) as true
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WithName sets the service name used in logs and traces
func WithName(name string) Option {
	return func(c *Config) error {
		c.Name = name
		return nil
	}
}

// WithPort sets the HTTP server port. Zero picks one automatically.
func WithPort(p int) Option {
	return func(c *Config) error {
		if p < 0 || p > 65535 {
			return configError(fmt.Sprintf("invalid port: %d", p), ErrInvalidConfiguration)
		}
		c.Port = p
		return nil
	}
}

// WithAddress sets the bind address
func WithAddress(address string) Option {
	return func(c *Config) error {
		c.Address = address
		return nil
	}
}

// WithRedisURL stores sessions in Redis at url
func WithRedisURL(url string) Option {
	return func(c *Config) error {
		c.Session.Store = "redis"
		c.Session.RedisURL = url
		return nil
	}
}

// WithMemorySessions keeps sessions in process memory
func WithMemorySessions() Option {
	return func(c *Config) error {
		c.Session.Store = "memory"
		return nil
	}
}

// WithSessionTTL sets the idle lifetime of a session
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *Config) error {
		c.Session.TTL = ttl
		return nil
	}
}

// WithRazorpay selects the Razorpay widget with the given key id
func WithRazorpay(keyID string) Option {
	return func(c *Config) error {
		c.Payment.Provider = "razorpay"
		c.Payment.Settings.KeyID = keyID
		return nil
	}
}

// WithSimulatedPayments selects the local stand-in widget
func WithSimulatedPayments() Option {
	return func(c *Config) error {
		c.Payment.Provider = "simulated"
		return nil
	}
}

// WithCatalogFile loads products from path instead of the built-in seed
func WithCatalogFile(path string) Option {
	return func(c *Config) error {
		c.Catalog.Path = path
		return nil
	}
}

// WithTelemetry toggles tracing and metrics and sets the OTLP endpoint
func WithTelemetry(enabled bool, endpoint string) Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = enabled
		c.Telemetry.Endpoint = endpoint
		return nil
	}
}

// WithStdoutTraces prints spans to stdout
func WithStdoutTraces(enabled bool) Option {
	return func(c *Config) error {
		c.Telemetry.StdoutTraces = enabled
		return nil
	}
}

// WithLogLevel sets the minimum log level
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.Logging.Level = strings.ToLower(level)
		return nil
	}
}

// WithLogFormat sets the log format (text or json)
func WithLogFormat(format string) Option {
	return func(c *Config) error {
		c.Logging.Format = strings.ToLower(format)
		return nil
	}
}

// WithConfigFile merges settings from a JSON or YAML file
func WithConfigFile(path string) Option {
	return func(c *Config) error {
		return c.LoadFromFile(path)
	}
}

// WithDevelopmentMode toggles development mode
func WithDevelopmentMode(enabled bool) Option {
	return func(c *Config) error {
		c.Development.Enabled = enabled
		return nil
	}
}

// NewConfig builds a validated configuration: defaults, then environment,
// then opts.
//
//	cfg, err := NewConfig(
//	    WithPort(8080),
//	    WithRedisURL("redis://localhost:6379"),
//	)
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
