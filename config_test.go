package storefront

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishxl-0001/vipn/internal/port"
)

// TestDefaultConfig verifies that DefaultConfig returns valid defaults
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "storefront", cfg.Name)
	assert.Equal(t, 0, cfg.Port)
	assert.Equal(t, port.DefaultRange, cfg.PortRange)

	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 1<<20, cfg.HTTP.MaxHeaderBytes)

	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "storefront_session", cfg.Session.CookieName)

	assert.Equal(t, "simulated", cfg.Payment.Provider)
	assert.Equal(t, "INR", cfg.Payment.Settings.Currency)
	assert.Equal(t, "#030213", cfg.Payment.Settings.ThemeColor)

	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)

	assert.NoError(t, cfg.Validate())
}

func TestDetectEnvironment(t *testing.T) {
	t.Setenv("KUBERNETES_SERVICE_HOST", "10.0.0.1")

	cfg := DefaultConfig()
	assert.Equal(t, port.EnvKubernetes, cfg.Environment)
	assert.Equal(t, "0.0.0.0", cfg.Address)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Development.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STOREFRONT_NAME", "shop")
	t.Setenv("PORT", "9000")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_live_abc")
	t.Setenv("STOREFRONT_SESSION_TTL", "5m")
	t.Setenv("STOREFRONT_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("STOREFRONT_LOG_FORMAT", "JSON")
	t.Setenv("STOREFRONT_LOG_LEVEL", "DEBUG")
	t.Setenv("STOREFRONT_TRACE_STDOUT", "yes")
	t.Setenv("STOREFRONT_TRACE_SAMPLE_RATIO", "0.25")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("STOREFRONT_CATALOG_PATH", "/etc/storefront/products.yaml")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "shop", cfg.Name)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, "redis://cache:6379/1", cfg.Session.RedisURL)
	assert.Equal(t, "razorpay", cfg.Payment.Provider)
	assert.Equal(t, "rzp_live_abc", cfg.Payment.Settings.KeyID)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Telemetry.StdoutTraces)
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRatio)
	assert.Equal(t, "collector:4317", cfg.Telemetry.Endpoint)
	assert.Equal(t, "/etc/storefront/products.yaml", cfg.Catalog.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvExplicitChoicesWin(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("STOREFRONT_SESSION_STORE", "memory")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_abc")
	t.Setenv("STOREFRONT_PAYMENT_PROVIDER", "simulated")
	t.Setenv("PORT", "auto")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, "simulated", cfg.Payment.Provider)
	assert.Equal(t, 0, cfg.Port)
}

func TestLoadFromEnvRejectsMalformedValues(t *testing.T) {
	tests := map[string]string{
		"PORT":                          "eighty",
		"STOREFRONT_SESSION_TTL":        "soon",
		"STOREFRONT_HTTP_READ_TIMEOUT":  "15",
		"STOREFRONT_TRACE_SAMPLE_RATIO": "half",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			err := DefaultConfig().LoadFromEnv()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "storefront.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
name: yaml-shop
port: 8181
session:
  store: redis
  redis_url: redis://localhost:6379
  ttl: 45m
payment:
  provider: razorpay
  settings:
    key_id: rzp_test_yaml
    currency: INR
logging:
  format: json
`), 0o600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(yamlPath))
	assert.Equal(t, "yaml-shop", cfg.Name)
	assert.Equal(t, 8181, cfg.Port)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 45*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "rzp_test_yaml", cfg.Payment.Settings.KeyID)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "storefront_session", cfg.Session.CookieName, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())

	jsonPath := filepath.Join(dir, "storefront.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name": "json-shop", "http": {"shutdown_timeout": "2s"}}`), 0o600))

	cfg = DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(jsonPath))
	assert.Equal(t, "json-shop", cfg.Name)
	assert.Equal(t, 2*time.Second, cfg.HTTP.ShutdownTimeout)
}

func TestLoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	err := DefaultConfig().LoadFromFile(filepath.Join(dir, "storefront.toml"))
	assert.True(t, IsConfigurationError(err))

	err = DefaultConfig().LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("session: [unclosed"), 0o600))
	err = DefaultConfig().LoadFromFile(bad)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))

	var se *StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, bad, se.ID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"empty name", func(c *Config) { c.Name = "" }, ErrMissingConfiguration},
		{"port too large", func(c *Config) { c.Port = 70000 }, ErrInvalidConfiguration},
		{"negative port", func(c *Config) { c.Port = -1 }, ErrInvalidConfiguration},
		{"zero shutdown timeout", func(c *Config) { c.HTTP.ShutdownTimeout = 0 }, ErrInvalidConfiguration},
		{"unknown store", func(c *Config) { c.Session.Store = "etcd" }, ErrInvalidConfiguration},
		{"redis without url", func(c *Config) { c.Session.Store = "redis" }, ErrMissingConfiguration},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, ErrInvalidConfiguration},
		{"razorpay without key", func(c *Config) { c.Payment.Provider = "razorpay" }, ErrMissingConfiguration},
		{"unknown provider", func(c *Config) { c.Payment.Provider = "stripe" }, ErrInvalidConfiguration},
		{"no currency", func(c *Config) { c.Payment.Settings.Currency = "" }, ErrMissingConfiguration},
		{"sample ratio", func(c *Config) { c.Telemetry.SampleRatio = 1.5 }, ErrInvalidConfiguration},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.True(t, IsConfigurationError(err))
		})
	}
}

func TestFunctionalOptions(t *testing.T) {
	cfg, err := NewConfig(
		WithName("opt-shop"),
		WithPort(7070),
		WithAddress("127.0.0.1"),
		WithRedisURL("redis://localhost:6379"),
		WithSessionTTL(time.Hour),
		WithRazorpay("rzp_test_opt"),
		WithCatalogFile("products.yaml"),
		WithTelemetry(true, "collector:4317"),
		WithStdoutTraces(true),
		WithLogLevel("WARN"),
		WithLogFormat("json"),
		WithDevelopmentMode(false),
	)
	require.NoError(t, err)

	assert.Equal(t, "opt-shop", cfg.Name)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Address)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "razorpay", cfg.Payment.Provider)
	assert.Equal(t, "rzp_test_opt", cfg.Payment.Settings.KeyID)
	assert.Equal(t, "products.yaml", cfg.Catalog.Path)
	assert.Equal(t, "collector:4317", cfg.Telemetry.Endpoint)
	assert.True(t, cfg.Telemetry.StdoutTraces)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Development.Enabled)

	cfg, err = NewConfig(WithRedisURL("redis://x"), WithMemorySessions(), WithRazorpay("k"), WithSimulatedPayments())
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, "simulated", cfg.Payment.Provider)
}

// TestConfigPriority verifies options override environment variables
func TestConfigPriority(t *testing.T) {
	t.Setenv("PORT", "9000")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)

	cfg, err = NewConfig(WithPort(7000))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
}

func TestNewConfigErrors(t *testing.T) {
	_, err := NewConfig(WithPort(-5))
	assert.True(t, IsConfigurationError(err))

	_, err = NewConfig(WithRazorpay(""))
	assert.True(t, IsConfigurationError(err))

	t.Setenv("PORT", "x")
	_, err = NewConfig()
	assert.True(t, IsConfigurationError(err))
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "1", "yes", " on "} {
		assert.True(t, parseBool(s), s)
	}
	for _, s := range []string{"false", "0", "no", "", "maybe"} {
		assert.False(t, parseBool(s), s)
	}
}
