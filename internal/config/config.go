// Package config loads the stockalert YAML configuration and applies
// environment variable overrides for deployment secrets. The core packages
// never read this directly — windows, thresholds, and capital are passed to
// them as explicit arguments.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the stockalert service.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Server   Server         `yaml:"server"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
	Email    Email          `yaml:"email"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Optimize OptimizeConfig `yaml:"optimize"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Email holds SMTP delivery settings for the dashboard email.
type Email struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	From       string `yaml:"from"`
	Password   string `yaml:"password"`
	To         string `yaml:"to"`
}

// MonitorConfig describes the monitored security and its indicator windows.
type MonitorConfig struct {
	Ticker       string `yaml:"ticker"`
	HistoryYears int    `yaml:"history_years"`
	ReturnWindow int    `yaml:"return_window"`
	RSIWindow    int    `yaml:"rsi_window"`
	SMAWindow    int    `yaml:"sma_window"`
}

// ThresholdRange is an inclusive (start, stop, step) threshold progression.
type ThresholdRange struct {
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
	Step  float64 `yaml:"step"`
}

// OptimizeConfig parametrizes the threshold grid search.
type OptimizeConfig struct {
	StartingCapital float64        `yaml:"starting_capital"`
	Buy             ThresholdRange `yaml:"buy"`
	Sell            ThresholdRange `yaml:"sell"`
	MaxWorkers      int            `yaml:"max_workers"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the configuration the original alert ran with: TQQQ, two
// years of history, 63-day return, 21-day RSI, 150-day SMA, and the
// (-25..5) x (35..65) step-5 threshold grid over $10,000.
func Default() *Config {
	return &Config{
		Storage: Storage{DataDir: "data", SQLitePath: "data/stockalert.db"},
		Server:  Server{Host: "0.0.0.0", Port: 8080},
		Logging: Logging{Level: "info", Format: "json"},
		Email:   Email{SMTPServer: "smtp.gmail.com", SMTPPort: 587},
		Monitor: MonitorConfig{
			Ticker:       "TQQQ",
			HistoryYears: 2,
			ReturnWindow: 63,
			RSIWindow:    21,
			SMAWindow:    150,
		},
		Optimize: OptimizeConfig{
			StartingCapital: 10000,
			Buy:             ThresholdRange{Start: -25, Stop: 5, Step: 5},
			Sell:            ThresholdRange{Start: 35, Stop: 65, Step: 5},
			MaxWorkers:      4,
		},
	}
}

// Load reads the YAML configuration file at the given path over the
// defaults, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set. Secrets (API
// keys, SMTP password) normally arrive this way rather than in the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("EMAIL_ADDRESS"); v != "" {
		cfg.Email.From = v
	}
	if v := os.Getenv("EMAIL_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("TO_EMAIL"); v != "" {
		cfg.Email.To = v
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		cfg.Email.SMTPServer = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Email.SMTPPort = p
		}
	}

	// Canonical Alpaca env vars used by the SDK take highest priority.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("APCA_API_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}
	if v := os.Getenv("APCA_API_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
}
