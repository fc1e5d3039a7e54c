// Package config loads eventpix configuration.
//
// Sources, highest priority first:
//  1. explicit path (-config flag);
//  2. CONFIG_PATH;
//  3. ./eventpix.yaml;
//  4. environment only.
//
// A .env file in the working directory is loaded into the process
// environment before any of the above are read.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultPath is the config file probed when neither a flag nor CONFIG_PATH is set.
const DefaultPath = "eventpix.yaml"

type Config struct {
	Env      string      `yaml:"env" env:"ENV" env-default:"development"`
	LogLevel string      `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	API      APIConfig   `yaml:"api"`
	Store    StoreConfig `yaml:"store"`
	Proxy    ProxyConfig `yaml:"proxy"`
}

// APIConfig describes the Remote API and how the client talks to it.
type APIConfig struct {
	BaseURL         string        `yaml:"base_url" env:"EVENTPIX_API_URL" env-default:"http://localhost:8000/api"`
	TokenPath       string        `yaml:"token_path" env:"EVENTPIX_TOKEN_PATH" env-default:"/accounts/token/"`
	RefreshPath     string        `yaml:"refresh_path" env:"EVENTPIX_REFRESH_PATH" env-default:"/accounts/token/refresh/"`
	CSRFPath        string        `yaml:"csrf_path" env:"EVENTPIX_CSRF_PATH" env-default:"/accounts/csrf/"`
	CSRFCookie      string        `yaml:"csrf_cookie" env:"EVENTPIX_CSRF_COOKIE" env-default:"csrftoken"`
	CSRFHeader      string        `yaml:"csrf_header" env:"EVENTPIX_CSRF_HEADER" env-default:"X-CSRFToken"`
	LoginURL        string        `yaml:"login_url" env:"EVENTPIX_LOGIN_URL" env-default:"/login"`
	Timeout         time.Duration `yaml:"timeout" env:"EVENTPIX_TIMEOUT" env-default:"60s"`
	CoalesceRefresh bool          `yaml:"coalesce_refresh" env:"EVENTPIX_COALESCE_REFRESH" env-default:"false"`
}

// StoreConfig selects the credential store backend.
type StoreConfig struct {
	Driver string      `yaml:"driver" env:"EVENTPIX_STORE" env-default:"file"`
	Path   string      `yaml:"path" env:"EVENTPIX_STORE_PATH"`
	Redis  RedisConfig `yaml:"redis"`
	SQLite string      `yaml:"sqlite_dsn" env:"EVENTPIX_SQLITE_DSN"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"EVENTPIX_REDIS_ADDR" env-default:"localhost:6379"`
	Username string `yaml:"username" env:"EVENTPIX_REDIS_USERNAME"`
	Password string `yaml:"password" env:"EVENTPIX_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"EVENTPIX_REDIS_DB" env-default:"0"`
	Prefix   string `yaml:"prefix" env:"EVENTPIX_REDIS_PREFIX" env-default:"eventpix:"`
}

// ProxyConfig is used by the proxy binaries.
type ProxyConfig struct {
	Host     string `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"9879"`
	AdminKey string `yaml:"admin_key" env:"ADMIN_API_KEY"`
}

func (p ProxyConfig) Addr() string { return net.JoinHostPort(p.Host, p.Port) }

// MustLoad panics when Load fails.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from the first available source.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
		return validate(&cfg)
	}

	if _, err := os.Stat(DefaultPath); err == nil {
		if err := cleanenv.ReadConfig(DefaultPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", DefaultPath, err)
		}
		return validate(&cfg)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from env: %w", err)
	}
	return validate(&cfg)
}

func validate(cfg *Config) (*Config, error) {
	if cfg.API.BaseURL == "" {
		return nil, errors.New("api.base_url is required")
	}
	if cfg.API.Timeout < 0 {
		return nil, fmt.Errorf("api.timeout must not be negative, got %s", cfg.API.Timeout)
	}
	return cfg, nil
}
