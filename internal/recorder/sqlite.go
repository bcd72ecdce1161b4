package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"AlgoSentinel/internal/model"
)

// SQLiteRecorder persists run outputs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id       TEXT PRIMARY KEY,
			started_at   INTEGER NOT NULL,
			finished_at  INTEGER NOT NULL,
			symbols      TEXT,
			processed    INTEGER,
			failed       INTEGER,
			total_trades INTEGER,
			status       TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			symbol       TEXT NOT NULL,
			entry_date   TEXT NOT NULL,
			entry_price  TEXT NOT NULL,
			exit_date    TEXT NOT NULL,
			exit_price   TEXT NOT NULL,
			pnl          TEXT NOT NULL,
			pnl_pct      REAL,
			holding_days INTEGER,
			exit_reason  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, symbol)`,

		`CREATE TABLE IF NOT EXISTS summaries (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id              TEXT NOT NULL,
			symbol              TEXT NOT NULL,
			status              TEXT,
			trade_status        TEXT,
			trade_count         INTEGER,
			wins                INTEGER,
			losses              INTEGER,
			win_rate            REAL,
			total_pnl           TEXT,
			total_pnl_pct       REAL,
			avg_holding_days    REAL,
			ml_status           TEXT,
			ml_accuracy_logreg  REAL,
			ml_accuracy_tree    REAL,
			folds_evaluated     INTEGER,
			folds_skipped       INTEGER,
			data_gaps           INTEGER,
			UNIQUE (run_id, symbol)
		)`,

		`CREATE TABLE IF NOT EXISTS signals (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  TEXT NOT NULL,
			symbol  TEXT NOT NULL,
			date    TEXT NOT NULL,
			action  TEXT NOT NULL,
			reason  TEXT,
			close   REAL,
			rsi     REAL,
			sma20   REAL,
			sma50   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_run ON signals(run_id, symbol, date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// inTx runs fn in a transaction and commits only if it succeeds.
func (r *SQLiteRecorder) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *RunRecord) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO runs
			(run_id, started_at, finished_at, symbols, processed, failed, total_trades, status)
			VALUES (?,?,?,?,?,?,?,?)`,
			run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), strings.Join(run.Symbols, ","),
			run.Processed, run.Failed, run.TotalTrades, run.Status,
		)
		return err
	})
}

func (r *SQLiteRecorder) RecordTrades(ctx context.Context, runID string, trades []model.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO trades
			(run_id, symbol, entry_date, entry_price, exit_date, exit_price, pnl, pnl_pct, holding_days, exit_reason)
			VALUES (?,?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, t := range trades {
			if _, err := stmt.ExecContext(ctx,
				runID, t.Symbol, dateString(t.EntryDate), t.EntryPrice.String(),
				dateString(t.ExitDate), t.ExitPrice.String(), t.PnL.String(),
				t.PnLPct, t.HoldingDays, string(t.ExitReason),
			); err != nil {
				return fmt.Errorf("insert trade %s %s: %w", t.Symbol, dateString(t.EntryDate), err)
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) RecordSummary(ctx context.Context, runID string, s *model.SummaryMetrics) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO summaries
			(run_id, symbol, status, trade_status, trade_count, wins, losses, win_rate,
			 total_pnl, total_pnl_pct, avg_holding_days, ml_status,
			 ml_accuracy_logreg, ml_accuracy_tree, folds_evaluated, folds_skipped, data_gaps)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, s.Symbol, string(s.Status), string(s.TradeStatus), s.TradeCount, s.Wins, s.Losses, s.WinRate,
			s.TotalPnL.String(), s.TotalPnLPct, s.AvgHoldingDays, string(s.MLStatus),
			nullable(s.MLAccuracyLogReg), nullable(s.MLAccuracyTree), s.FoldsEvaluated, s.FoldsSkipped, s.DataGaps,
		)
		return err
	})
}

func (r *SQLiteRecorder) RecordSignals(ctx context.Context, runID, symbol string, signals []model.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO signals
			(run_id, symbol, date, action, reason, close, rsi, sma20, sma50)
			VALUES (?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, sig := range signals {
			if _, err := stmt.ExecContext(ctx,
				runID, symbol, dateString(sig.Date), string(sig.Action), string(sig.Reason),
				sig.Close, sig.RSI, sig.SMA20, sig.SMA50,
			); err != nil {
				return fmt.Errorf("insert signal %s %s: %w", symbol, dateString(sig.Date), err)
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
