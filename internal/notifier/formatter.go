package notifier

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"AlgoSentinel/internal/model"
	"AlgoSentinel/internal/state"
)

// RunDigest is the content of a run-complete message.
type RunDigest struct {
	RunID     string
	Summaries []model.SummaryMetrics
	Took      time.Duration
}

// FormatRunStart announces a run and its symbols.
func FormatRunStart(runID string, symbols []string, start, end time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚀 <b>AlgoSentinel run started</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Run: <code>%s</code>\n", shortID(runID)))
	b.WriteString(fmt.Sprintf("Window: %s → %s\n", start.Format("2006-01-02"), end.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Symbols (%d): %s\n", len(symbols), html.EscapeString(strings.Join(symbols, ", "))))
	return b.String()
}

// FormatRunComplete reports totals and one line per ticker.
func FormatRunComplete(d RunDigest) string {
	t := model.Aggregate(d.Summaries)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ <b>AlgoSentinel run complete</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Run: <code>%s</code> (%s)\n", shortID(d.RunID), d.Took.Round(time.Second)))
	b.WriteString(fmt.Sprintf("Symbols processed: %d/%d\n", t.Processed, t.Tickers))
	b.WriteString(fmt.Sprintf("Total trades: %d\n", t.Trades))
	b.WriteString(fmt.Sprintf("Win rate: %s\n\n", percent(t.WinRate)))

	for _, s := range d.Summaries {
		b.WriteString(formatTickerLine(&s))
		b.WriteString("\n")
	}
	return b.String()
}

func formatTickerLine(s *model.SummaryMetrics) string {
	sym := html.EscapeString(s.Symbol)
	if s.Status != model.StatusOK {
		return fmt.Sprintf("⚠️ <b>%s</b>: %s", sym, s.Status)
	}
	trades := "no trades"
	if s.HasTrades() {
		trades = fmt.Sprintf("%d trades, win %.0f%%, P&L %+.2f%%", s.TradeCount, s.WinRate*100, s.TotalPnLPct)
	}
	return fmt.Sprintf("📈 <b>%s</b>: %s | ML %s (logreg %s, tree %s)",
		sym, trades, s.MLStatus, percent(s.MLAccuracyLogReg), percent(s.MLAccuracyTree))
}

// FormatRunFailed reports a run in which no ticker could be processed.
func FormatRunFailed(runID string, err error) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("❌ <b>AlgoSentinel run failed</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Run: <code>%s</code>\n", shortID(runID)))
	b.WriteString(fmt.Sprintf("Error: %s\n", html.EscapeString(err.Error())))
	return b.String()
}

// FormatStatus formats the last run for the /status command.
func FormatStatus(s state.LastRun, running bool) string {
	var b strings.Builder
	b.WriteString("📦 <b>AlgoSentinel status</b>\n\n")
	if running {
		b.WriteString("A run is in progress.\n\n")
	}
	if s.Empty() {
		b.WriteString("No run recorded yet.")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Last run: <code>%s</code> %s\n", shortID(s.RunID), s.Status))
	b.WriteString(fmt.Sprintf("Finished: %s\n", s.FinishedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Symbols processed: %d/%d\n", s.Processed, len(s.Symbols)))
	b.WriteString(fmt.Sprintf("Total trades: %d\n", s.TotalTrades))
	if s.TotalTrades > 0 {
		b.WriteString(fmt.Sprintf("Win rate: %.1f%%\n", s.WinRate*100))
	}
	for _, t := range s.Tickers {
		b.WriteString(fmt.Sprintf("  %s: %s, %d trades\n", html.EscapeString(t.Symbol), t.Status, t.Trades))
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "🤖 <b>AlgoSentinel</b>\n\n/run - start a run now\n/status - show the last run\n/help - this message"
}

func percent(v model.Value) string {
	if !v.OK {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v.V*100)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var tagPattern = regexp.MustCompile(`</?[a-z]+>`)

func stripTags(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}
