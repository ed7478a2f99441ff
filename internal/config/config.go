// Package config loads the storefront configuration and wraps viper with a
// nil-safe accessor type that plugins use for their own subtree.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. STOREFRONT_SERVER_PORT.
const EnvPrefix = "STOREFRONT"

// ViperConfig is a read-only view over a viper instance. A nil viper reads
// as an empty configuration.
type ViperConfig struct {
	v *viper.Viper
}

// New wraps v.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

func (c *ViperConfig) GetString(key string) string          { return c.v.GetString(key) }
func (c *ViperConfig) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *ViperConfig) GetFloat64(key string) float64        { return c.v.GetFloat64(key) }
func (c *ViperConfig) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *ViperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *ViperConfig) IsSet(key string) bool                { return c.v.IsSet(key) }

// DurationOr returns the duration at key, or def when the key is unset or
// not a positive duration.
func (c *ViperConfig) DurationOr(key string, def time.Duration) time.Duration {
	if !c.v.IsSet(key) {
		return def
	}
	if d := c.v.GetDuration(key); d > 0 {
		return d
	}
	return def
}

// IntOr returns the integer at key, or def when the key is unset or not
// positive.
func (c *ViperConfig) IntOr(key string, def int) int {
	if !c.v.IsSet(key) {
		return def
	}
	if n := c.v.GetInt(key); n > 0 {
		return n
	}
	return def
}

// Sub returns the subtree at key. A missing subtree yields an empty config,
// never nil.
func (c *ViperConfig) Sub(key string) *ViperConfig {
	return New(c.v.Sub(key))
}

// Unmarshal decodes the whole configuration into target.
func (c *ViperConfig) Unmarshal(target any) error {
	return c.v.Unmarshal(target)
}

// Viper returns the wrapped viper instance.
func (c *ViperConfig) Viper() *viper.Viper {
	return c.v
}

// SetDefaults registers the default value of every known key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("backend.base_url", "http://localhost:3000/api")
	v.SetDefault("backend.timeout", "10s")
	v.SetDefault("backend.rate_limit", 20.0)
	v.SetDefault("backend.burst", 10)

	v.SetDefault("plugins.menu.enabled", true)
	v.SetDefault("plugins.menu.assignment_limit", 1000)
	v.SetDefault("plugins.menu.location_ttl", "60s")
	v.SetDefault("plugins.menu.assignment_ttl", "60s")
	v.SetDefault("plugins.menu.product_ttl", "20s")
	v.SetDefault("plugins.menu.search_debounce", "300ms")
	v.SetDefault("plugins.menu.session_idle_ttl", "15m")
	v.SetDefault("plugins.menu.max_sessions", 10000)
	v.SetDefault("plugins.menu.reap_interval", "1m")
}

// Load builds the configuration: defaults, then the YAML file at path (when
// path is non-empty), then STOREFRONT_* environment variables. Without an
// explicit path, ./storefront.yaml is read if present.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("storefront")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Addr returns the listen address from server.host and server.port.
func Addr(v *viper.Viper) string {
	return fmt.Sprintf("%s:%d", v.GetString("server.host"), v.GetInt("server.port"))
}
