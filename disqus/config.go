package disqus

import (
	"net/url"
	"time"
)

// DefaultBaseURL is the public API host.
const DefaultBaseURL = "https://disqus.com"

// Config holds credentials and transport settings for a Client.
type Config struct {
	BaseURL     string        `mapstructure:"base_url"`
	PublicKey   string        `mapstructure:"public_key"`
	SecretKey   string        `mapstructure:"secret_key"`
	Forum       string        `mapstructure:"forum"`
	AccessToken string        `mapstructure:"access_token"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PageLimit   int           `mapstructure:"page_limit"`
}

// DefaultConfig returns a config pointing at the public API with a 10s timeout.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   10 * time.Second,
		PageLimit: DefaultPageLimit,
	}
}

// Validate checks the fields a client cannot work without.
func (c Config) Validate() error {
	if c.SecretKey == "" {
		return &ConfigError{Field: "SecretKey", Message: "must be set"}
	}
	if c.Forum == "" {
		return &ConfigError{Field: "Forum", Message: "must be set"}
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ConfigError{Field: "BaseURL", Message: "must be an absolute URL"}
		}
	}
	if c.Timeout < 0 {
		return &ConfigError{Field: "Timeout", Message: "must be non-negative"}
	}
	if c.PageLimit < 0 || c.PageLimit > DefaultPageLimit {
		return &ConfigError{Field: "PageLimit", Message: "must be between 0 and 100"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "disqus config error: " + e.Field + " " + e.Message
}
