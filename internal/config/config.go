package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"wish-machine/internal/simulation"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath string `env:"DATA_PATH"`
	LogDir   string

	HTTPAddr    string   `env:"WM_HTTP_ADDR" envDefault:":8080"`
	DBPath      string   `env:"WM_DB_PATH"`
	AdminKey    string   `env:"WM_ADMIN_KEY"`
	CORSOrigins []string `env:"WM_CORS_ORIGINS" envSeparator:","`

	// Peers whose X-Forwarded-For header is honored. Addresses or CIDR prefixes.
	TrustedProxies []string `env:"WM_TRUSTED_PROXIES" envSeparator:","`

	WishRatePerHour int `env:"WM_WISH_RATE_PER_HOUR" envDefault:"30"`
	UserCacheSize   int `env:"WM_USER_CACHE_SIZE" envDefault:"1024"`

	Model            string `env:"WM_MODEL" envDefault:"mixture"`
	AnalyticBaseline bool   `env:"WM_ANALYTIC_BASELINE" envDefault:"false"`

	EnableMermaidCharts bool `env:"ENABLE_MERMAID_CHARTS" envDefault:"false"`
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for deployed binaries)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// 3. Resolve Data Paths
	if cfg.DataPath == "" {
		if exeDir != "" {
			cfg.DataPath = exeDir
		} else {
			cfg.DataPath = "."
		}
	}
	cfg.LogDir = filepath.Join(cfg.DataPath, "logs")
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataPath, "wishmachine.db")
	}

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cfg.LogDir).Msg("Failed to create log directory")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if _, ok := simulation.ParseModel(c.Model); !ok {
		return fmt.Errorf("WM_MODEL: unknown simulation model %q", c.Model)
	}
	if c.WishRatePerHour <= 0 {
		return fmt.Errorf("WM_WISH_RATE_PER_HOUR must be positive, got %d", c.WishRatePerHour)
	}
	if c.UserCacheSize <= 0 {
		return fmt.Errorf("WM_USER_CACHE_SIZE must be positive, got %d", c.UserCacheSize)
	}
	return nil
}

// SimulationModel returns the configured default model.
func (c *AppConfig) SimulationModel() simulation.Model {
	m, _ := simulation.ParseModel(c.Model)
	return m
}
