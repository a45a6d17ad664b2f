package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// BACKSTORE_CACHE_BACKEND.
const EnvPrefix = "BACKSTORE"

// Config holds all configuration for the application
type Config struct {
	Disqus    DisqusConfig    `mapstructure:"disqus"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// DisqusConfig holds remote API credentials
type DisqusConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	PublicKey   string        `mapstructure:"public_key"`
	SecretKey   string        `mapstructure:"secret_key"`
	Forum       string        `mapstructure:"forum"`
	AccessToken string        `mapstructure:"access_token"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PageLimit   int           `mapstructure:"page_limit"`
}

// CacheConfig holds result cache configuration
type CacheConfig struct {
	Backend            string        `mapstructure:"backend"`
	TTL                time.Duration `mapstructure:"ttl"`
	Capacity           int           `mapstructure:"capacity"`
	Shards             int           `mapstructure:"shards"`
	EvictionPercentage int           `mapstructure:"eviction_percentage"`
	EvictionInterval   time.Duration `mapstructure:"eviction_interval"`
	RedisURL           string        `mapstructure:"redis_url"`
	Namespace          string        `mapstructure:"namespace"`
	EarlyRefresh       EarlyRefresh  `mapstructure:"early_refresh"`
}

// EarlyRefresh configures background refreshes of hot entries in the memory
// backend. The redis backend ignores it.
type EarlyRefresh struct {
	Enabled        bool          `mapstructure:"enabled"`
	MinAsync       time.Duration `mapstructure:"min_async"`
	MaxAsync       time.Duration `mapstructure:"max_async"`
	Sync           time.Duration `mapstructure:"sync"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// Address returns host:port for net/http.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// legacyEnv maps config keys to the unprefixed variable names deployments
// already export.
var legacyEnv = map[string]string{
	"disqus.public_key":   "DISQUS_PUBLIC_KEY",
	"disqus.secret_key":   "DISQUS_SECRET_KEY",
	"disqus.forum":        "DISQUS_FORUM_SHORTNAME",
	"disqus.access_token": "DISQUS_ACCESS_TOKEN",
}

// Load reads configuration from defaults, an optional .env file, an optional
// YAML file and the environment, in increasing order of precedence.
// configFile may be empty, in which case the usual search paths are tried.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.backstore")
		v.AddConfigPath("/etc/backstore")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("disqus.base_url", "https://disqus.com")
	v.SetDefault("disqus.public_key", "")
	v.SetDefault("disqus.secret_key", "")
	v.SetDefault("disqus.forum", "")
	v.SetDefault("disqus.access_token", "")
	v.SetDefault("disqus.timeout", 10*time.Second)
	v.SetDefault("disqus.page_limit", 100)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 5*time.Second)
	v.SetDefault("cache.capacity", 2048)
	v.SetDefault("cache.shards", 64)
	v.SetDefault("cache.eviction_percentage", 10)
	v.SetDefault("cache.eviction_interval", time.Duration(0))
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.namespace", "backstore")
	v.SetDefault("cache.early_refresh.enabled", false)
	v.SetDefault("cache.early_refresh.min_async", time.Second)
	v.SetDefault("cache.early_refresh.max_async", 2*time.Second)
	v.SetDefault("cache.early_refresh.sync", 10*time.Second)
	v.SetDefault("cache.early_refresh.retry_base_delay", 100*time.Millisecond)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.service_name", "disqus-backstore")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Disqus.SecretKey == "" {
		return fmt.Errorf("disqus.secret_key is required")
	}
	if c.Disqus.Forum == "" {
		return fmt.Errorf("disqus.forum is required")
	}
	if c.Disqus.PageLimit <= 0 || c.Disqus.PageLimit > 100 {
		return fmt.Errorf("disqus.page_limit must be between 1 and 100")
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.EvictionInterval < 0 {
		return fmt.Errorf("cache.eviction_interval must not be negative")
	}
	if er := c.Cache.EarlyRefresh; er.Enabled && (er.MinAsync <= 0 || er.MaxAsync < er.MinAsync) {
		return fmt.Errorf("cache.early_refresh needs 0 < min_async <= max_async")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be json or text")
	}
	return nil
}
