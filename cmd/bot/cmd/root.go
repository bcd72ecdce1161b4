// Package cmd holds the bot CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"AlgoSentinel/internal/config"
	"AlgoSentinel/internal/logger"
)

var (
	cfgFile  string
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bot",
	Short: "AlgoSentinel - RSI/SMA backtests with forward-chaining ML validation",
	Long: `AlgoSentinel fetches daily prices for a list of tickers, backtests an
RSI + moving-average strategy on each, validates next-day direction
classifiers with forward-chaining cross validation and reports the results.

Commands:
    run      analyse the configured symbols once and exit
    serve    run on a cron schedule and answer Telegram commands`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default configs/config.yaml or $CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

// initConfig loads .env, the YAML config and sets up logging.
func initConfig() error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	path := cfgFile
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	var err error
	if cfg, err = config.Load(path); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := logger.Init(cfg.Logger()); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	log.Debug().Str("path", path).Msg("config loaded")
	return nil
}
