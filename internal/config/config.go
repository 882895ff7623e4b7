// Package config loads settings from an optional config.yaml and
// STOREFRONT_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	HTTPAddr        string        `mapstructure:"http_addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`

	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Listing   ListingConfig   `mapstructure:"listing"`
	Session   SessionConfig   `mapstructure:"session"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MySQL     DSNConfig       `mapstructure:"mysql"`
	Postgres  DSNConfig       `mapstructure:"postgres"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

type CatalogConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type ListingConfig struct {
	PageSize int `mapstructure:"page_size" validate:"min=1"`
}

type SessionConfig struct {
	Backend           string        `mapstructure:"backend" validate:"oneof=memory redis mysql postgres"`
	CookieName        string        `mapstructure:"cookie_name" validate:"required"`
	CookieSecure      bool          `mapstructure:"cookie_secure"`
	TTL               time.Duration `mapstructure:"ttl" validate:"gt=0"`
	LogoutClearsToken bool          `mapstructure:"logout_clears_token"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

type DSNConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" validate:"gt=0"`
	Burst int     `mapstructure:"burst" validate:"min=1"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("shutdown_timeout", "15s")
	v.SetDefault("catalog.base_url", "https://api.escuelajs.co/api/v1")
	v.SetDefault("catalog.timeout", "10s")
	v.SetDefault("listing.page_size", 12)
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.cookie_name", "storefront_session")
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.ttl", "168h")
	v.SetDefault("session.logout_clears_token", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mysql.dsn", "")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("ratelimit.rps", 1.0)
	v.SetDefault("ratelimit.burst", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads config.yaml from "." or "./config" when present, then applies
// STOREFRONT_ environment overrides (catalog.base_url -> STOREFRONT_CATALOG_BASE_URL).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "invalid log.level")
	}
	switch c.Session.Backend {
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("invalid config: redis.addr is required for the redis backend")
		}
	case "mysql":
		if c.MySQL.DSN == "" {
			return errors.New("invalid config: mysql.dsn is required for the mysql backend")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return errors.New("invalid config: postgres.dsn is required for the postgres backend")
		}
	}
	return nil
}

// NewLogger builds the process logger from c.Log.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	lg, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return lg, nil
}
