package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/alecthomas/errors"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the typed configuration of the application kernel.
type Config struct {
	App     AppConfig
	Log     LogConfig
	Inspect InspectConfig
}

type AppConfig struct {
	Name  string `env:"APP_NAME" envDefault:"go-inject"`
	Env   string `env:"APP_ENV" envDefault:"local"` // local | production | testing
	Debug bool   `env:"APP_DEBUG" envDefault:"false"`
}

type LogConfig struct {
	Level slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	JSON  bool       `env:"LOG_JSON" envDefault:"false"`
}

type InspectConfig struct {
	// Addr is where the inspector HTTP server listens.
	Addr string `env:"INSPECT_ADDR" envDefault:":8000"`
}

// Load reads .env files (if present) and populates a Config from the
// environment. With no files, ".env" is tried.
//
//	cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		// Missing files are fine: production reads the real environment.
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(envFiles ...string) *Config {
	cfg, err := Load(envFiles...)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
