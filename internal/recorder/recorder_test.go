package recorder

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"AlgoSentinel/internal/model"
)

var d0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func sampleTrades() []model.TradeRecord {
	return []model.TradeRecord{
		{
			Symbol: "AAPL", EntryDate: d0, EntryPrice: decimal.NewFromFloat(100),
			ExitDate: d0.AddDate(0, 0, 5), ExitPrice: decimal.NewFromFloat(110),
			PnL: decimal.NewFromFloat(10), PnLPct: 10, HoldingDays: 5, ExitReason: model.ExitOverbought,
		},
		{
			Symbol: "AAPL", EntryDate: d0.AddDate(0, 0, 10), EntryPrice: decimal.NewFromFloat(110),
			ExitDate: d0.AddDate(0, 0, 12), ExitPrice: decimal.NewFromFloat(99),
			PnL: decimal.NewFromFloat(-11), PnLPct: -10, HoldingDays: 2, ExitReason: model.ExitForcedClose,
		},
	}
}

func TestSQLiteRecorder_Streams(t *testing.T) {
	r := openTemp(t)
	ctx := context.Background()

	if err := r.RecordTrades(ctx, "run-1", sampleTrades()); err != nil {
		t.Fatalf("RecordTrades: %v", err)
	}
	summary := &model.SummaryMetrics{
		Symbol: "AAPL", Status: model.StatusOK, TradeStatus: model.TradesPresent,
		TradeCount: 2, Wins: 1, Losses: 1, WinRate: 0.5, TotalPnL: decimal.NewFromFloat(-1),
		MLStatus: model.MLInsufficientData,
	}
	if err := r.RecordSummary(ctx, "run-1", summary); err != nil {
		t.Fatalf("RecordSummary: %v", err)
	}
	signals := []model.Signal{
		{Date: d0, Action: model.ActionEnter, Reason: model.ReasonOversoldUptrend, Close: 100, RSI: 25, SMA20: 101, SMA50: 99},
		{Date: d0.AddDate(0, 0, 1), Action: model.ActionHold, Reason: model.ReasonNone, Close: 101, RSI: 40, SMA20: 101, SMA50: 99},
	}
	if err := r.RecordSignals(ctx, "run-1", "AAPL", signals); err != nil {
		t.Fatalf("RecordSignals: %v", err)
	}
	run := &RunRecord{ID: "run-1", StartedAt: d0, FinishedAt: d0.Add(time.Minute), Symbols: []string{"AAPL"}, Processed: 1, TotalTrades: 2, Status: "OK"}
	if err := r.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	if n := count(t, r.db, "trades"); n != 2 {
		t.Errorf("trades = %d, want 2", n)
	}
	if n := count(t, r.db, "signals"); n != 2 {
		t.Errorf("signals = %d, want 2", n)
	}
	if n := count(t, r.db, "runs"); n != 1 {
		t.Errorf("runs = %d, want 1", n)
	}

	var pnl string
	var acc sql.NullFloat64
	if err := r.db.QueryRow("SELECT total_pnl, ml_accuracy_logreg FROM summaries WHERE run_id = ? AND symbol = ?", "run-1", "AAPL").
		Scan(&pnl, &acc); err != nil {
		t.Fatalf("select summary: %v", err)
	}
	if pnl != "-1" {
		t.Errorf("total_pnl = %q, want -1", pnl)
	}
	if acc.Valid {
		t.Error("undefined accuracy should be stored as NULL")
	}

	var exitDate, reason string
	if err := r.db.QueryRow("SELECT exit_date, exit_reason FROM trades ORDER BY id LIMIT 1").Scan(&exitDate, &reason); err != nil {
		t.Fatalf("select trade: %v", err)
	}
	if exitDate != "2024-03-06" || reason != "OVERBOUGHT" {
		t.Errorf("trade row = %s %s", exitDate, reason)
	}
}

func TestSQLiteRecorder_EmptyBatches(t *testing.T) {
	r := openTemp(t)
	ctx := context.Background()
	if err := r.RecordTrades(ctx, "run-1", nil); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordSignals(ctx, "run-1", "X", nil); err != nil {
		t.Fatal(err)
	}
	if n := count(t, r.db, "trades"); n != 0 {
		t.Errorf("trades = %d", n)
	}
}

func TestSQLiteRecorder_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	r, err := NewSQLiteRecorder(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.RecordTrades(context.Background(), "run-1", sampleTrades()); err != nil {
		t.Fatal(err)
	}
	r.Close()

	r2, err := NewSQLiteRecorder(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()
	if n := count(t, r2.db, "trades"); n != 2 {
		t.Errorf("trades after reopen = %d", n)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordTrades(context.Background(), "x", sampleTrades()); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresRecorder(t *testing.T) {
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL not set")
	}
	ctx := context.Background()
	r, err := NewPostgresRecorder(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer r.Close()

	runID := "test-" + time.Now().Format("150405.000000")
	if err := r.RecordTrades(ctx, runID, sampleTrades()); err != nil {
		t.Fatalf("RecordTrades: %v", err)
	}
	var n int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM trades WHERE run_id = $1", runID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("trades = %d, want 2", n)
	}
}
