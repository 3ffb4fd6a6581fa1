package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
storage:
  data_dir: /tmp/bars
server:
  port: 9090
monitor:
  ticker: SPXL
  return_window: 21
optimize:
  starting_capital: 25000
  buy:
    start: -10
    stop: 0
    step: 2
email:
  to: someone@example.com
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stockalert.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Monitor.Ticker != "SPXL" {
		t.Errorf("Ticker = %q, want %q", cfg.Monitor.Ticker, "SPXL")
	}
	if cfg.Monitor.ReturnWindow != 21 {
		t.Errorf("ReturnWindow = %d, want 21", cfg.Monitor.ReturnWindow)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Optimize.Buy.Step != 2 {
		t.Errorf("Buy.Step = %v, want 2", cfg.Optimize.Buy.Step)
	}

	// Fields absent from the file keep their defaults.
	if cfg.Monitor.RSIWindow != 21 || cfg.Monitor.SMAWindow != 150 {
		t.Errorf("windows = (%d, %d), want defaults (21, 150)",
			cfg.Monitor.RSIWindow, cfg.Monitor.SMAWindow)
	}
	if cfg.Optimize.Sell.Stop != 65 {
		t.Errorf("Sell.Stop = %v, want default 65", cfg.Optimize.Sell.Stop)
	}
	if cfg.Email.SMTPServer != "smtp.gmail.com" {
		t.Errorf("SMTPServer = %q, want default", cfg.Email.SMTPServer)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APCA_API_KEY_ID", "key-from-env")
	t.Setenv("APCA_API_SECRET_KEY", "secret-from-env")
	t.Setenv("EMAIL_PASSWORD", "hunter2")
	t.Setenv("PORT", "8081")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Alpaca.APIKey != "key-from-env" || cfg.Alpaca.APISecret != "secret-from-env" {
		t.Error("Alpaca credentials not taken from environment")
	}
	if cfg.Email.Password != "hunter2" {
		t.Errorf("Email.Password = %q, want env override", cfg.Email.Password)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Port = %d, want env override 8081", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want env override debug", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load of missing file returned nil error")
	}
}
