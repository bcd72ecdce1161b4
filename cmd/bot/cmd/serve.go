package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"AlgoSentinel/internal/metrics"
	"AlgoSentinel/internal/scheduler"
)

var runOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run on a cron schedule and answer Telegram commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&runOnStart, "run-on-start", os.Getenv("RUN_ON_START") == "true",
		"execute a run immediately (env RUN_ON_START=true)")
}

func serve(parent context.Context) error {
	log.Info().Msg("AlgoSentinel starting")

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.NewScheduler(ctx, a.runner, cfg.DataSource.Symbols)
	if err := sched.Register(cfg.Schedule.RunCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Metrics.Addr != "" {
		st := a.runner.State()
		srv := metrics.NewServer(cfg.Metrics.Addr, a.metrics, func() any {
			return map[string]any{
				"status":   "ok",
				"running":  st.Running(),
				"last_run": st.Get(),
			}
		})
		srv.Start()
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			if err := srv.Stop(sctx); err != nil {
				log.Warn().Err(err).Msg("metrics server shutdown")
			}
		}()
	}

	if a.telegram != nil {
		go a.telegram.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if runOnStart {
		log.Info().Msg("run on start enabled, executing run now")
		sched.RunAsync()
	}

	log.Info().Msg("AlgoSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping")
	case <-ctx.Done():
	}
	cancel()
	return nil
}
