// Package config loads the server configuration from defaults, an optional
// YAML file and WEBAPP_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrMissingBackend = errors.New("config: backend URL is required")
	ErrInvalidBackend = errors.New("config: backend URL must be absolute http(s)")
	ErrFlashSecret    = errors.New("config: flash secret must be at least 32 characters")
	ErrSessionStore   = errors.New("config: session store must be memory or redis")
	ErrRedisURL       = errors.New("config: redis URL is required for the redis session store")
)

const envPrefix = "WEBAPP"

type Config struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log      Log      `mapstructure:"log" yaml:"log"`
	Backends Backends `mapstructure:"backends" yaml:"backends"`
	Breaker  Breaker  `mapstructure:"breaker" yaml:"breaker"`
	Session  Session  `mapstructure:"session" yaml:"session"`
	Redis    Redis    `mapstructure:"redis" yaml:"redis"`
	Flash    Flash    `mapstructure:"flash" yaml:"flash"`
	Metrics  Metrics  `mapstructure:"metrics" yaml:"metrics"`
}

type Log struct {
	Level             string `mapstructure:"level" yaml:"level"`
	SentryDSN         string `mapstructure:"sentry_dsn" yaml:"sentry_dsn"`
	SentryEnvironment string `mapstructure:"sentry_environment" yaml:"sentry_environment"`
}

// Backends are the base URLs of the three services.
type Backends struct {
	User       string        `mapstructure:"user" yaml:"user"`
	Note       string        `mapstructure:"note" yaml:"note"`
	Evaluation string        `mapstructure:"evaluation" yaml:"evaluation"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type Breaker struct {
	MaxRequests      uint32        `mapstructure:"max_requests" yaml:"max_requests"`
	Interval         time.Duration `mapstructure:"interval" yaml:"interval"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold" yaml:"failure_threshold"`
}

type Session struct {
	// Store is "memory" or "redis".
	Store    string        `mapstructure:"store" yaml:"store"`
	MaxAge   time.Duration `mapstructure:"max_age" yaml:"max_age"`
	Secure   bool          `mapstructure:"secure" yaml:"secure"`
	Capacity int           `mapstructure:"capacity" yaml:"capacity"`
	// StateTTL is how long an idle session keeps its state tree in memory.
	StateTTL time.Duration `mapstructure:"state_ttl" yaml:"state_ttl"`
}

type Redis struct {
	URL      string `mapstructure:"url" yaml:"url"`
	PoolSize int    `mapstructure:"pool_size" yaml:"pool_size"`
}

type Flash struct {
	Secret string `mapstructure:"secret" yaml:"-"`
}

type Metrics struct {
	// Refresh is the cron schedule of the gauge refresh job.
	Refresh string `mapstructure:"refresh" yaml:"refresh"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("shutdown_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.sentry_dsn", "")
	v.SetDefault("log.sentry_environment", "development")
	v.SetDefault("backends.user", "http://localhost:8081")
	v.SetDefault("backends.note", "http://localhost:8082")
	v.SetDefault("backends.evaluation", "http://localhost:8083")
	v.SetDefault("backends.timeout", 10*time.Second)
	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", time.Minute)
	v.SetDefault("breaker.timeout", 30*time.Second)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.max_age", 24*time.Hour)
	v.SetDefault("session.secure", false)
	v.SetDefault("session.capacity", 10000)
	v.SetDefault("session.state_ttl", 30*time.Minute)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("flash.secret", "")
	v.SetDefault("metrics.refresh", "@every 30s")
}

// Load reads path when it is not empty, then the environment. The result
// is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	for name, raw := range map[string]string{
		"user":       c.Backends.User,
		"note":       c.Backends.Note,
		"evaluation": c.Backends.Evaluation,
	} {
		if err := checkBackend(raw); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s", err, name))
		}
	}
	if len(c.Flash.Secret) < 32 {
		errs = append(errs, ErrFlashSecret)
	}
	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			errs = append(errs, ErrRedisURL)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrSessionStore, c.Session.Store))
	}
	return errors.Join(errs...)
}

func checkBackend(raw string) error {
	if raw == "" {
		return ErrMissingBackend
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBackend
	}
	return nil
}

// UsesRedis reports whether sessions are kept in Redis.
func (c *Config) UsesRedis() bool {
	return c.Session.Store == "redis"
}
