package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const insecureJWTSecret = "supersecretkey"

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	Pulse         PulseConfig   `yaml:"pulse"`
}

// PulseConfig tunes the dashboard snapshot refresher.
type PulseConfig struct {
	Refresh   time.Duration `yaml:"refresh"`
	FeedLimit int           `yaml:"feed_limit"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("JOBFORGE_ADDR", ":8080"),
		JWTSecret:     getEnv("JOBFORGE_JWT_SECRET", insecureJWTSecret),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("JOBFORGE_DATABASE_PATH", "jobforge.db"),
		TokenDuration: 1 * time.Hour,
		Pulse: PulseConfig{
			Refresh:   15 * time.Second,
			FeedLimit: 50,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks the configuration for values that are unsafe or unusable.
// The default JWT secret is only tolerated when JOBFORGE_ENV=development.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.JWTSecret == insecureJWTSecret && os.Getenv("JOBFORGE_ENV") != "development" {
		return fmt.Errorf("refusing to run with the default jwt_secret outside development")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("token_duration must be positive")
	}
	if c.Pulse.Refresh <= 0 {
		return fmt.Errorf("pulse.refresh must be positive")
	}
	if c.Pulse.FeedLimit <= 0 || c.Pulse.FeedLimit > 500 {
		return fmt.Errorf("pulse.feed_limit must be between 1 and 500")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
