package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"AlgoSentinel/internal/model"
	"AlgoSentinel/internal/runner"
)

var runSymbols []string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyse the configured symbols once",
	Long: `Fetches, backtests and validates every symbol once, prints a summary
table and exits. The exit status is non-zero when no ticker could be
processed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		symbols := cfg.DataSource.Symbols
		if len(runSymbols) > 0 {
			symbols = normalizeSymbols(runSymbols)
		}
		return runOnce(ctx, symbols)
	},
}

func init() {
	runCmd.Flags().StringSliceVar(&runSymbols, "symbols", nil, "comma-separated symbols (overrides data_source.symbols)")
}

func runOnce(ctx context.Context, symbols []string) error {
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.runner.Run(ctx, symbols)
	if rep != nil {
		printReport(rep)
	}
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		return err
	}
	return nil
}

func printReport(rep *runner.Report) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tSTATUS\tTRADES\tWIN RATE\tP&L %\tML\tLOGREG\tTREE\tGAPS")
	for i := range rep.Summaries {
		s := &rep.Summaries[i]
		winRate, pnl := "n/a", "n/a"
		if s.HasTrades() {
			winRate = pct(model.Some(s.WinRate))
			pnl = fmt.Sprintf("%+.2f", s.TotalPnLPct)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			s.Symbol, s.Status, s.TradeCount, winRate, pnl,
			s.MLStatus, pct(s.MLAccuracyLogReg), pct(s.MLAccuracyTree), s.DataGaps)
	}
	w.Flush()

	t := rep.Totals
	fmt.Printf("\nrun %s: %d/%d processed, %d trades, win rate %s, took %s\n",
		rep.RunID, t.Processed, t.Tickers, t.Trades, pct(t.WinRate),
		rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond))
}

func pct(v model.Value) string {
	if !v.OK {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v.V*100)
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
