package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/observability"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/ratelimit"
)

// DefaultSecretEnv is the environment variable the signing secret is
// read from when the config does not name another one.
const DefaultSecretEnv = "OLYMPUS_JWT_SECRET"

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig                `yaml:"server"`
	Auth      AuthConfig                  `yaml:"auth"`
	RateLimit RateLimitConfig             `yaml:"rateLimit"`
	Log       observability.LogConfig     `yaml:"log"`
	Tracing   *observability.TracerConfig `yaml:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// AuthConfig holds token verification settings. The signing secret is
// never stored in the file; only the name of the environment variable
// carrying it is.
type AuthConfig struct {
	SecretEnv string `yaml:"secretEnv"`
	Audience  string `yaml:"audience"`

	// ClockSkew is the expiry tolerance. Zero means a token expired by
	// any margin is rejected.
	ClockSkew time.Duration `yaml:"clockSkew"`
}

// Secret reads the signing secret from the configured environment
// variable. It returns nil when the variable is unset or empty.
func (c *AuthConfig) Secret() []byte {
	env := c.SecretEnv
	if env == "" {
		env = DefaultSecretEnv
	}
	value := os.Getenv(env)
	if value == "" {
		return nil
	}
	return []byte(value)
}

// RateLimitConfig holds the named limiter profiles.
type RateLimitConfig struct {
	Enabled bool              `yaml:"enabled"`
	API     ratelimit.Profile `yaml:"api"`
	Auth    ratelimit.Profile `yaml:"auth"`
	Strict  ratelimit.Profile `yaml:"strict"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Auth: AuthConfig{
			SecretEnv: DefaultSecretEnv,
			Audience:  "authenticated",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			API:     ratelimit.DefaultProfile(),
			Auth:    ratelimit.AuthProfile(),
			Strict:  ratelimit.StrictProfile(),
		},
		Log: observability.LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = defaults.Server.IdleTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}

	if c.Auth.SecretEnv == "" {
		c.Auth.SecretEnv = defaults.Auth.SecretEnv
	}
	if c.Auth.Audience == "" {
		c.Auth.Audience = defaults.Auth.Audience
	}
	// ClockSkew stays zero unless configured: expiry strictly in the
	// past fails by default, tolerance is opt-in.

	if c.RateLimit.API == (ratelimit.Profile{}) {
		c.RateLimit.API = defaults.RateLimit.API
	}
	if c.RateLimit.Auth == (ratelimit.Profile{}) {
		c.RateLimit.Auth = defaults.RateLimit.Auth
	}
	if c.RateLimit.Strict == (ratelimit.Profile{}) {
		c.RateLimit.Strict = defaults.RateLimit.Strict
	}

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Log.Output == "" {
		c.Log.Output = defaults.Log.Output
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	for _, p := range []struct {
		name    string
		profile ratelimit.Profile
	}{
		{"api", c.RateLimit.API},
		{"auth", c.RateLimit.Auth},
		{"strict", c.RateLimit.Strict},
	} {
		if p.profile.Scope == "" {
			return fmt.Errorf("rateLimit.%s.scope is required", p.name)
		}
		if p.profile.Window <= 0 {
			return fmt.Errorf("rateLimit.%s.window must be positive", p.name)
		}
		if p.profile.MaxRequests <= 0 {
			return fmt.Errorf("rateLimit.%s.max_requests must be positive", p.name)
		}
	}

	return nil
}
