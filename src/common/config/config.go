// Package config loads service configuration from an optional YAML file,
// then lets the environment override it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Config struct {
	MQ        MQConfig        `yaml:"mq"`
	Feeds     FeedsConfig     `yaml:"feeds"`
	Redis     RedisConfig     `yaml:"redis"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Reference ReferenceConfig `yaml:"reference"`

	// Workers is the number of messages a consumer applies concurrently.
	Workers int `yaml:"workers" validate:"min=1,max=256"`
	// ActivationTTL is how long an activation stays in the existence cache.
	ActivationTTL time.Duration `yaml:"activation_ttl" validate:"min=1h"`
	// TiplocTTL is how long TIPLOC lookups stay cached.
	TiplocTTL time.Duration `yaml:"tiploc_ttl" validate:"min=1m"`
}

type MQConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host" validate:"required"`
	Port     string `yaml:"port" validate:"required,numeric"`
}

func (c MQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Password, c.Host, c.Port)
}

type FeedsConfig struct {
	Endpoint string `yaml:"endpoint" validate:"omitempty,hostname_port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RedisConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
	DB   int    `yaml:"db" validate:"min=0"`
}

type PostgresConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     string `yaml:"port" validate:"required,numeric"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	DB       string `yaml:"db" validate:"required"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.DB,
	)
}

// ReferenceConfig points at the Darwin reference data API.
type ReferenceConfig struct {
	URL      string        `yaml:"url" validate:"omitempty,url"`
	APIKey   string        `yaml:"api_key"`
	Interval time.Duration `yaml:"interval" validate:"min=1m"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

func Default() Config {
	return Config{
		MQ:            MQConfig{Host: "rabbitmq", Port: "5672"},
		Redis:         RedisConfig{Addr: "redis:6379"},
		Postgres:      PostgresConfig{Host: "postgres", Port: "5432", User: "postgres", DB: "postgres"},
		HTTP:          HTTPConfig{Addr: ":3000"},
		Log:           LogConfig{Level: "info", Format: "console"},
		Reference:     ReferenceConfig{Interval: 24 * time.Hour},
		Workers:       8,
		ActivationTTL: 36 * time.Hour,
		TiplocTTL:     7 * 24 * time.Hour,
	}
}

// Load reads CONFIG_FILE when set, applies environment overrides and
// validates the result.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	vars := []struct {
		key string
		dst *string
	}{
		{"MQ_USER", &cfg.MQ.User},
		{"MQ_PASSWORD", &cfg.MQ.Password},
		{"MQ_HOST", &cfg.MQ.Host},
		{"MQ_PORT", &cfg.MQ.Port},
		{"NR_FEEDS_ENDPOINT", &cfg.Feeds.Endpoint},
		{"NR_FEEDS_USERNAME", &cfg.Feeds.Username},
		{"NR_FEEDS_PASSWORD", &cfg.Feeds.Password},
		{"REDIS_ADDR", &cfg.Redis.Addr},
		{"POSTGRES_HOST", &cfg.Postgres.Host},
		{"POSTGRES_PORT", &cfg.Postgres.Port},
		{"POSTGRES_USER", &cfg.Postgres.User},
		{"POSTGRES_PASSWORD", &cfg.Postgres.Password},
		{"POSTGRES_DB", &cfg.Postgres.DB},
		{"HTTP_ADDR", &cfg.HTTP.Addr},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FORMAT", &cfg.Log.Format},
		{"NR_REFERENCE_API", &cfg.Reference.URL},
		{"NR_REFERENCE_API_KEY", &cfg.Reference.APIKey},
	}
	for _, s := range vars {
		if v, ok := os.LookupEnv(s.key); ok && v != "" {
			*s.dst = v
		}
	}

	var errs error
	if v := os.Getenv("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("WORKERS: %w", err))
		} else {
			cfg.Workers = n
		}
	}
	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"ACTIVATION_TTL", &cfg.ActivationTTL},
		{"TIPLOC_TTL", &cfg.TiplocTTL},
		{"REFERENCE_INTERVAL", &cfg.Reference.Interval},
	} {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		ttl, err := time.ParseDuration(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", d.key, err))
			continue
		}
		*d.dst = ttl
	}
	return errs
}
