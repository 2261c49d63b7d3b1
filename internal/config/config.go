package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Backend  BackendConfig  `yaml:"backend"`
	Auth     AuthConfig     `yaml:"auth"`
	Stripe   StripeConfig   `yaml:"stripe"`
}

type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	Timezone string `yaml:"timezone"`
}

type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

// RedisConfig is optional: an empty Addr keeps carts in process memory.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	CartTTL      time.Duration `yaml:"cart_ttl"`
	DashboardTTL time.Duration `yaml:"dashboard_ttl"`
}

// BackendConfig points the dashboard at a remote backend. An empty URL means
// the dashboard reads orders and customers from the local database.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
}

type StripeConfig struct {
	SecretKey  string `yaml:"secret_key"`
	Currency   string `yaml:"currency"`
	SuccessURL string `yaml:"success_url"`
	CancelURL  string `yaml:"cancel_url"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.App.Name = "storefront"
	cfg.App.Env = "local"
	cfg.App.Port = "8080"
	cfg.App.LogLevel = "info"
	cfg.App.Timezone = "Europe/Paris"

	cfg.Postgres.SSLMode = "disable"
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = time.Hour
	cfg.Postgres.MigrationsPath = "migrations"

	cfg.Redis.CartTTL = 30 * 24 * time.Hour
	cfg.Redis.DashboardTTL = 30 * time.Second

	cfg.Backend.Timeout = 5 * time.Second

	cfg.Auth.TokenTTL = 24 * time.Hour

	cfg.Stripe.Currency = "eur"
	return cfg
}

// NewConfig builds the configuration from defaults, an optional YAML file
// (CONFIG_PATH) and the environment, in that order of precedence. A .env file
// in the working directory is loaded first when present.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString("APP_NAME", &cfg.App.Name)
	setString("APP_ENV", &cfg.App.Env)
	setString("APP_PORT", &cfg.App.Port)
	setString("LOG_LEVEL", &cfg.App.LogLevel)
	setString("APP_TIMEZONE", &cfg.App.Timezone)

	setString("DB_HOST", &cfg.Postgres.Host)
	setString("DB_PORT", &cfg.Postgres.Port)
	setString("DB_USER", &cfg.Postgres.User)
	setString("DB_PASSWORD", &cfg.Postgres.Password)
	setString("DB_NAME", &cfg.Postgres.DBName)
	setString("DB_SSLMODE", &cfg.Postgres.SSLMode)
	setString("DB_MIGRATIONS_PATH", &cfg.Postgres.MigrationsPath)

	setString("REDIS_ADDR", &cfg.Redis.Addr)
	setString("REDIS_PASSWORD", &cfg.Redis.Password)

	setString("BACKEND_URL", &cfg.Backend.URL)
	setString("BACKEND_TOKEN", &cfg.Backend.Token)

	setString("AUTH_TOKEN_SECRET", &cfg.Auth.TokenSecret)

	setString("STRIPE_SECRET_KEY", &cfg.Stripe.SecretKey)
	setString("STRIPE_CURRENCY", &cfg.Stripe.Currency)
	setString("STRIPE_SUCCESS_URL", &cfg.Stripe.SuccessURL)
	setString("STRIPE_CANCEL_URL", &cfg.Stripe.CancelURL)

	if err := setInt32("DB_MAX_CONNS", &cfg.Postgres.MaxConns); err != nil {
		return err
	}
	if err := setInt32("DB_MIN_CONNS", &cfg.Postgres.MinConns); err != nil {
		return err
	}
	if err := setDuration("DB_MAX_CONN_LIFETIME", &cfg.Postgres.MaxConnLifetime); err != nil {
		return err
	}
	if err := setInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}
	if err := setDuration("REDIS_CART_TTL", &cfg.Redis.CartTTL); err != nil {
		return err
	}
	if err := setDuration("REDIS_DASHBOARD_TTL", &cfg.Redis.DashboardTTL); err != nil {
		return err
	}
	if err := setDuration("BACKEND_TIMEOUT", &cfg.Backend.Timeout); err != nil {
		return err
	}
	if err := setDuration("AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"DB_HOST", c.Postgres.Host},
		{"DB_PORT", c.Postgres.Port},
		{"DB_USER", c.Postgres.User},
		{"DB_NAME", c.Postgres.DBName},
		{"AUTH_TOKEN_SECRET", c.Auth.TokenSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}

	if c.Postgres.MinConns > c.Postgres.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", c.Postgres.MinConns, c.Postgres.MaxConns)
	}

	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	return nil
}

// Location returns the shop's local timezone; validate already checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setInt32(key string, dst *int32) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = int32(n)
	return nil
}

func setDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
