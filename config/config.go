// Package config loads the marketauth bootstrap configuration from an
// optional YAML file and MARKETAUTH_ environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, with "." replaced by "_":
// MARKETAUTH_IDP_DISCOVERY_URL, MARKETAUTH_CACHE_BACKEND and so on.
const EnvPrefix = "MARKETAUTH"

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete bootstrap configuration.
type Config struct {
	IDP    IDPConfig    `mapstructure:"idp"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// IDPConfig locates the identity provider.
type IDPConfig struct {
	DiscoveryURL string `mapstructure:"discovery_url"`
	// Issuer defaults to the issuer of the discovery document.
	Issuer      string        `mapstructure:"issuer"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	ClockSkew   time.Duration `mapstructure:"clock_skew"`
}

// CacheConfig selects the shared key-set cache.
type CacheConfig struct {
	Backend   string        `mapstructure:"backend"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// RedisConfig is used when Cache.Backend is "redis".
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configPath, or marketauth.yaml from the working directory or
// /etc/marketauth when configPath is empty, then applies environment
// overrides. A missing default file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("marketauth")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/marketauth")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Every key needs a default, even an empty one, for AutomaticEnv to reach
// it through Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("idp.discovery_url", "")
	v.SetDefault("idp.issuer", "")
	v.SetDefault("idp.http_timeout", "10s")
	v.SetDefault("idp.clock_skew", "0s")

	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.key_prefix", "marketauth:jwks:")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("server.listen", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.IDP.DiscoveryURL == "" {
		add("idp.discovery_url is required")
	} else if !isHTTPURL(c.IDP.DiscoveryURL) {
		add("idp.discovery_url %q is not an http(s) URL", c.IDP.DiscoveryURL)
	}
	if c.IDP.Issuer != "" && !isHTTPURL(c.IDP.Issuer) {
		add("idp.issuer %q is not an http(s) URL", c.IDP.Issuer)
	}
	if c.IDP.HTTPTimeout < 0 {
		add("idp.http_timeout must not be negative")
	}
	if c.IDP.ClockSkew < 0 {
		add("idp.clock_skew must not be negative")
	}
	if c.Cache.TTL < 0 {
		add("cache.ttl must not be negative")
	}

	switch c.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			add("redis.addr is required for the redis cache backend")
		}
	default:
		add("unknown cache.backend %q", c.Cache.Backend)
	}

	return errors.Join(errs...)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
