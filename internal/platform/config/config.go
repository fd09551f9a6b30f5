// Package config loads server configuration from an optional YAML file and
// PROVENANCE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	strs "provenance/pkg/platform/strings"
)

const (
	envPrefix = "PROVENANCE"

	// DevSigningKey is only accepted outside production.
	DevSigningKey = "dev-secret-key-change-in-production"
)

type HTTPConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
}

// DatabaseConfig selects the storage backend. An empty URL runs in memory.
type DatabaseConfig struct {
	URL          string        `mapstructure:"url"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	TxTimeout    time.Duration `mapstructure:"tx_timeout"`
}

// RedisConfig enables the verification cache when URL is set.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// KafkaConfig streams audit events when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string `mapstructure:"brokers"`
	AuditTopic string   `mapstructure:"audit_topic"`
	BufferSize int      `mapstructure:"buffer_size"`
}

type JWTConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	Issuer     string        `mapstructure:"issuer"`
	Audience   string        `mapstructure:"audience"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// BootstrapAdminConfig seeds the first administrator when Handle is set and
// no administrator exists.
type BootstrapAdminConfig struct {
	Handle     string `mapstructure:"handle"`
	Email      string `mapstructure:"email"`
	Phone      string `mapstructure:"phone"`
	NationalID string `mapstructure:"national_id"`
}

// RateLimitConfig bounds anonymous requests per client address.
type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	PublicLimit int           `mapstructure:"public_limit"`
	Window      time.Duration `mapstructure:"window"`
}

type TracingConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type Config struct {
	ServiceName string         `mapstructure:"service_name"`
	Env         string         `mapstructure:"env"`
	LogLevel    string         `mapstructure:"log_level"`
	HTTP        HTTPConfig     `mapstructure:"http"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
	JWT         JWTConfig      `mapstructure:"jwt"`
	Tracing     TracingConfig  `mapstructure:"tracing"`

	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`

	BootstrapAdmin BootstrapAdminConfig `mapstructure:"bootstrap_admin"`
}

// Load parses args for --config, then layers the file (if any), environment
// variables, and defaults.
func Load(args []string) (*Config, error) {
	return LoadFlags(pflag.NewFlagSet("provenance", pflag.ContinueOnError), args)
}

// LoadFlags is Load for commands that define flags of their own on flags.
func LoadFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	path := flags.String("config", os.Getenv(envPrefix+"_CONFIG"), "path to a YAML config file")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if *path != "" {
		v.SetConfigFile(*path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Kafka.Brokers = strs.CleanList(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.JWT.SigningKey == "" {
		return errors.New("jwt.signing_key is required")
	}
	if c.Env == "production" && c.JWT.SigningKey == DevSigningKey {
		return errors.New("jwt.signing_key must be set in production")
	}
	if c.RateLimit.Enabled && (c.RateLimit.PublicLimit <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("rate_limit.public_limit and rate_limit.window must be positive")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.AuditTopic == "" {
		return errors.New("kafka.audit_topic is required when brokers are set")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "provenance")
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "5s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.request_timeout", "30s")

	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.tx_timeout", "5s")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", "2s")
	v.SetDefault("redis.read_timeout", "1s")
	v.SetDefault("redis.write_timeout", "1s")
	v.SetDefault("redis.cache_ttl", "5m")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.audit_topic", "provenance.audit")
	v.SetDefault("kafka.buffer_size", 1024)

	v.SetDefault("jwt.signing_key", DevSigningKey)
	v.SetDefault("jwt.issuer", "provenance")
	v.SetDefault("jwt.audience", "provenance-api")
	v.SetDefault("jwt.token_ttl", "1h")

	v.SetDefault("tracing.otlp_endpoint", "")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.public_limit", 60)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("bootstrap_admin.handle", "")
	v.SetDefault("bootstrap_admin.email", "")
	v.SetDefault("bootstrap_admin.phone", "")
	v.SetDefault("bootstrap_admin.national_id", "")
}
