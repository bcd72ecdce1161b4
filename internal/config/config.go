package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"AlgoSentinel/internal/calculator"
	"AlgoSentinel/internal/logger"
	"AlgoSentinel/internal/pipeline"
	"AlgoSentinel/internal/strategy"
	"AlgoSentinel/internal/validation"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Symbols           []string      `yaml:"symbols"`
		LookbackMonths    int           `yaml:"lookback_months"`
		Start             string        `yaml:"start"` // YYYY-MM-DD
		End               string        `yaml:"end"`   // YYYY-MM-DD
		BaseURL           string        `yaml:"base_url"`
		APIKey            string        `yaml:"api_key"`
		PreferCSV         bool          `yaml:"prefer_csv"`
		MaxRetries        int           `yaml:"max_retries"`
		RetryDelay        time.Duration `yaml:"retry_delay"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
	} `yaml:"data_source"`
	Strategy struct {
		RSIPeriod     int     `yaml:"rsi_period"`
		ShortWindow   int     `yaml:"short_window"`
		LongWindow    int     `yaml:"long_window"`
		RSIOversold   float64 `yaml:"rsi_oversold"`
		RSIOverbought float64 `yaml:"rsi_overbought"`
	} `yaml:"strategy"`
	ML struct {
		Folds              int     `yaml:"folds"`
		MinTrainRows       int     `yaml:"min_train_rows"`
		MinTestRows        int     `yaml:"min_test_rows"`
		TreeMaxDepth       int     `yaml:"tree_max_depth"`
		TreeMinLeaf        int     `yaml:"tree_min_leaf"`
		LogRegIterations   int     `yaml:"logreg_iterations"`
		LogRegLearningRate float64 `yaml:"logreg_learning_rate"`
		LogRegL2           float64 `yaml:"logreg_l2"`
	} `yaml:"ml"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresURL string `yaml:"postgres_url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Schedule struct {
		RunCron string `yaml:"run_cron"`
	} `yaml:"schedule"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level       string `yaml:"level"`
		Format      string `yaml:"format"`
		FileEnabled bool   `yaml:"file_enabled"`
		FilePath    string `yaml:"file_path"`
		MaxSizeMB   int    `yaml:"max_size_mb"`
		MaxAgeDays  int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Workers   int    `yaml:"workers"`
	Proxy     string `yaml:"proxy"`
	StateFile string `yaml:"state_file"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.DataSource.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("DATA_START"); v != "" {
		c.DataSource.Start = v
	}
	if v := os.Getenv("DATA_END"); v != "" {
		c.DataSource.End = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CRON_RUN"); v != "" {
		c.Schedule.RunCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		c.Database.PostgresURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

func (c *Config) applyDefaults() {
	if len(c.DataSource.Symbols) == 0 {
		c.DataSource.Symbols = []string{"AAPL", "MSFT", "GOOGL"}
	}
	if c.DataSource.LookbackMonths == 0 {
		c.DataSource.LookbackMonths = 6
	}
	if c.DataSource.MaxRetries == 0 {
		c.DataSource.MaxRetries = 3
	}
	if c.DataSource.RetryDelay == 0 {
		c.DataSource.RetryDelay = 2 * time.Second
	}
	if c.DataSource.RequestsPerSecond == 0 {
		c.DataSource.RequestsPerSecond = 2
	}

	ind := calculator.DefaultParams()
	rules := strategy.DefaultRules()
	if c.Strategy.RSIPeriod == 0 {
		c.Strategy.RSIPeriod = ind.RSIPeriod
	}
	if c.Strategy.ShortWindow == 0 {
		c.Strategy.ShortWindow = ind.ShortWindow
	}
	if c.Strategy.LongWindow == 0 {
		c.Strategy.LongWindow = ind.LongWindow
	}
	if c.Strategy.RSIOversold == 0 {
		c.Strategy.RSIOversold = rules.Oversold
	}
	if c.Strategy.RSIOverbought == 0 {
		c.Strategy.RSIOverbought = rules.Overbought
	}

	val := validation.DefaultConfig()
	if c.ML.Folds == 0 {
		c.ML.Folds = val.Folds
	}
	if c.ML.MinTrainRows == 0 {
		c.ML.MinTrainRows = val.MinTrainRows
	}
	if c.ML.MinTestRows == 0 {
		c.ML.MinTestRows = val.MinTestRows
	}
	if c.ML.TreeMaxDepth == 0 {
		c.ML.TreeMaxDepth = val.TreeMaxDepth
	}
	if c.ML.TreeMinLeaf == 0 {
		c.ML.TreeMinLeaf = val.TreeMinLeaf
	}
	if c.ML.LogRegIterations == 0 {
		c.ML.LogRegIterations = val.LogRegIterations
	}
	if c.ML.LogRegLearningRate == 0 {
		c.ML.LogRegLearningRate = val.LogRegLearningRate
	}
	if c.ML.LogRegL2 == 0 {
		c.ML.LogRegL2 = val.LogRegL2
	}

	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/algo_sentinel.db"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 6 * time.Hour
	}
	if c.Schedule.RunCron == "" {
		c.Schedule.RunCron = "0 30 22 * * 1-5"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.FilePath == "" {
		c.Log.FilePath = "logs"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 14
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.StateFile == "" {
		c.StateFile = "data/last_run.json"
	}
}

// Validate checks that all settings are usable.
func (c *Config) Validate() error {
	if len(c.DataSource.Symbols) == 0 {
		return fmt.Errorf("data_source.symbols must not be empty")
	}
	if c.DataSource.LookbackMonths <= 0 {
		return fmt.Errorf("data_source.lookback_months must be positive")
	}
	start, end, err := c.DateRange()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return fmt.Errorf("data_source.start must be before data_source.end")
	}
	if c.Strategy.RSIPeriod <= 0 || c.Strategy.ShortWindow <= 0 || c.Strategy.LongWindow <= 0 {
		return fmt.Errorf("strategy windows must be positive")
	}
	if c.Strategy.ShortWindow >= c.Strategy.LongWindow {
		return fmt.Errorf("strategy.short_window (%d) must be below strategy.long_window (%d)",
			c.Strategy.ShortWindow, c.Strategy.LongWindow)
	}
	if c.Strategy.RSIOversold >= c.Strategy.RSIOverbought {
		return fmt.Errorf("strategy.rsi_oversold must be below strategy.rsi_overbought")
	}
	if c.ML.Folds < 2 {
		return fmt.Errorf("ml.folds must be at least 2")
	}
	if c.ML.TreeMaxDepth < 0 || c.ML.TreeMinLeaf < 1 {
		return fmt.Errorf("ml.tree_max_depth must be >= 0 and ml.tree_min_leaf >= 1")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether notifications go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// DateRange parses the optional fixed window. Zero times mean unset.
func (c *Config) DateRange() (start, end time.Time, err error) {
	if c.DataSource.Start != "" {
		if start, err = time.Parse("2006-01-02", c.DataSource.Start); err != nil {
			return start, end, fmt.Errorf("data_source.start: %w", err)
		}
	}
	if c.DataSource.End != "" {
		if end, err = time.Parse("2006-01-02", c.DataSource.End); err != nil {
			return start, end, fmt.Errorf("data_source.end: %w", err)
		}
	}
	return start, end, nil
}

// Pipeline builds the per-ticker pipeline settings.
func (c *Config) Pipeline() pipeline.Config {
	p := pipeline.DefaultConfig()
	p.Indicators.RSIPeriod = c.Strategy.RSIPeriod
	p.Indicators.ShortWindow = c.Strategy.ShortWindow
	p.Indicators.LongWindow = c.Strategy.LongWindow
	p.Rules.Oversold = c.Strategy.RSIOversold
	p.Rules.Overbought = c.Strategy.RSIOverbought
	p.Validation = validation.Config{
		Folds:              c.ML.Folds,
		MinTrainRows:       c.ML.MinTrainRows,
		MinTestRows:        c.ML.MinTestRows,
		TreeMaxDepth:       c.ML.TreeMaxDepth,
		TreeMinLeaf:        c.ML.TreeMinLeaf,
		LogRegIterations:   c.ML.LogRegIterations,
		LogRegLearningRate: c.ML.LogRegLearningRate,
		LogRegL2:           c.ML.LogRegL2,
	}
	return p
}

// Logger builds the logger settings.
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:         c.Log.Level,
		Format:        c.Log.Format,
		FileEnabled:   c.Log.FileEnabled,
		FilePath:      c.Log.FilePath,
		RotationSize:  c.Log.MaxSizeMB,
		RetentionDays: c.Log.MaxAgeDays,
	}
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
