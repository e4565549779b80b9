// Package config loads bot settings from defaults, an optional YAML file and
// RPGBOT_* environment variables.
package config

import (
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/interaction"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "RPGBOT"

// DefaultConfigName is the file looked up in the working directory when no
// explicit path is given
const DefaultConfigName = "rpgbot"

// Store backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the root configuration
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Session SessionConfig `mapstructure:"session"`
	Data    DataConfig    `mapstructure:"data"`
	Log     LogConfig     `mapstructure:"log"`
}

// StoreConfig picks the document store backend
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

// RedisConfig is used when the backend is redis
type RedisConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	PoolSize int    `mapstructure:"pool_size"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

// SessionConfig tunes the profile session registry
type SessionConfig struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	SaveRetries    int           `mapstructure:"save_retries"`
	RetryInterval  time.Duration `mapstructure:"retry_interval"`

	// Timeouts overrides the inactivity window of individual kinds
	Timeouts map[string]time.Duration `mapstructure:"timeouts"`
}

// DataConfig locates the static catalog
type DataConfig struct {
	Catalog string `mapstructure:"catalog"`
}

// LogConfig controls the default slog handler
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance with defaults and environment handling set up.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("redis.endpoint", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.use_tls", false)
	v.SetDefault("session.default_timeout", interaction.DefaultTimeout)
	v.SetDefault("session.save_retries", 3)
	v.SetDefault("session.retry_interval", 200*time.Millisecond)
	v.SetDefault("data.catalog", "data/catalog.yaml")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file (if any), applies overrides and validates the result.
// An empty path searches the working directory for rpgbot.yaml; a missing
// file is not an error in that case.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = New()
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, errors.WrapWithCode(err, errors.CodeInvalidArgument, "failed to read config file")
		}
		slog.Debug("Config file not found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInvalidArgument, "failed to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	errors.ValidateEnum("store.backend", c.Store.Backend, []string{BackendMemory, BackendRedis}, vb)
	if c.Store.Backend == BackendRedis {
		errors.ValidateRequired("redis.endpoint", c.Redis.Endpoint, vb)
	}
	if c.Redis.PoolSize < 0 {
		vb.Field("redis.pool_size", "cannot be negative")
	}

	if c.Session.DefaultTimeout <= 0 {
		vb.Field("session.default_timeout", "must be positive")
	}
	if c.Session.SaveRetries < 1 {
		vb.Field("session.save_retries", "must be at least 1")
	}
	if c.Session.RetryInterval < 0 {
		vb.Field("session.retry_interval", "cannot be negative")
	}
	for name, d := range c.Session.Timeouts {
		if _, ok := interaction.Lookup(interaction.Kind(name)); !ok {
			vb.Fieldf("session.timeouts", "unknown kind %q", name)
			continue
		}
		if d <= 0 {
			vb.Fieldf("session.timeouts", "timeout for %q must be positive", name)
		}
	}

	errors.ValidateRequired("data.catalog", c.Data.Catalog, vb)

	errors.ValidateEnum("log.level", strings.ToLower(c.Log.Level), []string{"debug", "info", "warn", "error"}, vb)
	errors.ValidateEnum("log.format", strings.ToLower(c.Log.Format), []string{"text", "json"}, vb)

	return vb.Build()
}

// KindTimeouts resolves the per-kind inactivity windows for the registry.
// Kinds that use the built-in default follow session.default_timeout;
// explicit entries under session.timeouts win.
func (c *Config) KindTimeouts() map[interaction.Kind]time.Duration {
	out := make(map[interaction.Kind]time.Duration)
	if c.Session.DefaultTimeout != interaction.DefaultTimeout {
		for _, def := range interaction.Definitions() {
			if def.Timeout == interaction.DefaultTimeout {
				out[def.Kind] = c.Session.DefaultTimeout
			}
		}
	}
	for name, d := range c.Session.Timeouts {
		out[interaction.Kind(name)] = d
	}
	return out
}

// SlogLevel maps log.level onto a slog level
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
