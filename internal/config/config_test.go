package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.DataSource.LookbackMonths != 6 || cfg.DataSource.MaxRetries != 3 {
		t.Errorf("data source defaults = %+v", cfg.DataSource)
	}
	if cfg.Strategy.ShortWindow != 20 || cfg.Strategy.LongWindow != 50 || cfg.Strategy.RSIOversold != 30 {
		t.Errorf("strategy defaults = %+v", cfg.Strategy)
	}
	if cfg.ML.Folds != 5 || cfg.ML.TreeMaxDepth != 5 {
		t.Errorf("ml defaults = %+v", cfg.ML)
	}
	if cfg.TelegramEnabled() {
		t.Error("telegram should be disabled without a token")
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
data_source:
  symbols: [AAPL, TSLA]
  start: "2024-01-01"
  end: "2024-06-30"
  retry_delay: 500ms
strategy:
  short_window: 10
  long_window: 30
ml:
  folds: 3
workers: 2
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("SYMBOLS", "nvda, amd ,")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cfg.DataSource.Symbols; len(got) != 2 || got[0] != "NVDA" || got[1] != "AMD" {
		t.Errorf("env symbols = %v", got)
	}
	if cfg.DataSource.RetryDelay != 500*time.Millisecond {
		t.Errorf("retry delay = %v", cfg.DataSource.RetryDelay)
	}
	if !cfg.TelegramEnabled() {
		t.Error("telegram should be enabled")
	}

	start, end, err := cfg.DateRange()
	if err != nil || start.Month() != time.January || end.Month() != time.June {
		t.Errorf("date range = %v..%v (%v)", start, end, err)
	}

	p := cfg.Pipeline()
	if p.Indicators.ShortWindow != 10 || p.Indicators.LongWindow != 30 || p.Validation.Folds != 3 {
		t.Errorf("pipeline config = %+v", p)
	}
	if p.Indicators.MACDSlow != 26 {
		t.Errorf("untouched indicator params should keep defaults")
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"short >= long", func(c *Config) { c.Strategy.ShortWindow = 50 }},
		{"negative window", func(c *Config) { c.Strategy.RSIPeriod = -1 }},
		{"one fold", func(c *Config) { c.ML.Folds = 1 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"no symbols", func(c *Config) { c.DataSource.Symbols = nil }},
		{"thresholds inverted", func(c *Config) { c.Strategy.RSIOversold = 80 }},
		{"bad start", func(c *Config) { c.DataSource.Start = "yesterday" }},
		{"start after end", func(c *Config) { c.DataSource.Start, c.DataSource.End = "2024-05-01", "2024-01-01" }},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "workers: [1, 2")); err == nil {
		t.Fatal("expected parse error")
	}
}
