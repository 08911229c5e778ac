package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the SessionKeeper CLI.
type Config struct {
	ServerEndpointAddr  string        `env:"SERVER_ADDR"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT"`
	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL"`
	DatabasePath        string        `env:"DB_PATH"`
	LogLevel            string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "sessionkeeper.db"
	c.LogLevel = "warn"
}

func (c *Config) Validate() error {
	var errs []error
	if c.ServerEndpointAddr == "" {
		errs = append(errs, errors.New("server address must not be empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.OnlineCheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database path must not be empty"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a validated Config from os.Args and the environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load applies defaults, then JSON, SK_CLIENT_* variables and flags, later
// sources taking precedence over earlier ones.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
