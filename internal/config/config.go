package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	YouTube   YouTubeConfig
	Queue     QueueConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Metrics   MetricsConfig
	Tracing   TracingConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level      string
	Format     string
	Output     string
	TimeFormat string
}

// YouTubeConfig holds extraction backend configuration
type YouTubeConfig struct {
	BinaryPath         string
	CookieFile         string
	PreferredLanguages []string
	// Options are passed to the backend on top of the built-in defaults.
	Options map[string]interface{}
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Vhost         string
	RequestQueue  string
	ResultQueue   string
	PrefetchCount int
}

// URL returns the AMQP connection URL
func (q QueueConfig) URL() string {
	vhost := strings.TrimPrefix(q.Vhost, "/")
	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s", q.User, q.Password, q.Host, q.Port, vhost)
}

// CacheConfig holds Redis configuration for the extraction cache
type CacheConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// Addr returns the Redis address
func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WebhookConfig holds result callback delivery settings. An empty secret
// sends callbacks unsigned.
type WebhookConfig struct {
	Secret       string
	Timeout      time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// TracingConfig holds Jaeger configuration
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	JaegerEndpoint string
}

// AuthConfig holds API authentication configuration. An empty secret
// disables authentication.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// RateLimitConfig holds per-client rate limits for the API
type RateLimitConfig struct {
	RPS   int
	Burst int
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("YTMETA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return unmarshal(v)
}

// Default returns the configuration used when no file is given
func Default() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("YTMETA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "60s")
	v.SetDefault("server.shutdownTimeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.timeFormat", "RFC3339")

	// YouTube defaults
	v.SetDefault("youtube.binaryPath", "yt-dlp")
	v.SetDefault("youtube.cookieFile", "")
	v.SetDefault("youtube.preferredLanguages", []string{"en-orig", "en", "auto-en", "auto-en-orig"})
	v.SetDefault("youtube.options", map[string]interface{}{})

	// Queue defaults
	v.SetDefault("queue.host", "localhost")
	v.SetDefault("queue.port", 5672)
	v.SetDefault("queue.user", "guest")
	v.SetDefault("queue.password", "guest")
	v.SetDefault("queue.vhost", "/")
	v.SetDefault("queue.requestQueue", "ytmeta.lookups")
	v.SetDefault("queue.resultQueue", "ytmeta.results")
	v.SetDefault("queue.prefetchCount", 4)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.host", "localhost")
	v.SetDefault("cache.port", 6379)
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "10m")

	// Webhook defaults
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("webhook.maxAttempts", 3)
	v.SetDefault("webhook.retryBackoff", "2s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "ytmeta")
	v.SetDefault("tracing.jaegerEndpoint", "http://localhost:14268/api/traces")

	// Auth defaults
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenTTL", "24h")

	// Rate limit defaults
	v.SetDefault("rateLimit.rps", 10)
	v.SetDefault("rateLimit.burst", 20)
}
