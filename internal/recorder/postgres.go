package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"AlgoSentinel/internal/model"
)

// PostgresRecorder persists run outputs to PostgreSQL through a pgx pool.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects to url, pings the server and creates the
// tables if needed.
func NewPostgresRecorder(ctx context.Context, url string) (*PostgresRecorder, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("host", poolConfig.ConnConfig.Host).Msg("postgres recorder opened")
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id       TEXT PRIMARY KEY,
			started_at   TIMESTAMPTZ NOT NULL,
			finished_at  TIMESTAMPTZ NOT NULL,
			symbols      TEXT[],
			processed    INTEGER,
			failed       INTEGER,
			total_trades INTEGER,
			status       TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id           BIGSERIAL PRIMARY KEY,
			run_id       TEXT NOT NULL,
			symbol       TEXT NOT NULL,
			entry_date   DATE NOT NULL,
			entry_price  NUMERIC NOT NULL,
			exit_date    DATE NOT NULL,
			exit_price   NUMERIC NOT NULL,
			pnl          NUMERIC NOT NULL,
			pnl_pct      DOUBLE PRECISION,
			holding_days INTEGER,
			exit_reason  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, symbol)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			run_id             TEXT NOT NULL,
			symbol             TEXT NOT NULL,
			status             TEXT,
			trade_status       TEXT,
			trade_count        INTEGER,
			wins               INTEGER,
			losses             INTEGER,
			win_rate           DOUBLE PRECISION,
			total_pnl          NUMERIC,
			total_pnl_pct      DOUBLE PRECISION,
			avg_holding_days   DOUBLE PRECISION,
			ml_status          TEXT,
			ml_accuracy_logreg DOUBLE PRECISION,
			ml_accuracy_tree   DOUBLE PRECISION,
			folds_evaluated    INTEGER,
			folds_skipped      INTEGER,
			data_gaps          INTEGER,
			PRIMARY KEY (run_id, symbol)
		)`,
		`CREATE TABLE IF NOT EXISTS signals (
			id      BIGSERIAL PRIMARY KEY,
			run_id  TEXT NOT NULL,
			symbol  TEXT NOT NULL,
			date    DATE NOT NULL,
			action  TEXT NOT NULL,
			reason  TEXT,
			close   DOUBLE PRECISION,
			rsi     DOUBLE PRECISION,
			sma20   DOUBLE PRECISION,
			sma50   DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_run ON signals(run_id, symbol, date)`,
	}
	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// sendBatch runs every queued statement inside one transaction.
func (r *PostgresRecorder) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch exec %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PostgresRecorder) RecordRun(ctx context.Context, run *RunRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO runs (run_id, started_at, finished_at, symbols, processed, failed, total_trades, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			processed = EXCLUDED.processed,
			failed = EXCLUDED.failed,
			total_trades = EXCLUDED.total_trades,
			status = EXCLUDED.status`,
		run.ID, run.StartedAt, run.FinishedAt, run.Symbols,
		run.Processed, run.Failed, run.TotalTrades, run.Status,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) RecordTrades(ctx context.Context, runID string, trades []model.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(`
			INSERT INTO trades
				(run_id, symbol, entry_date, entry_price, exit_date, exit_price, pnl, pnl_pct, holding_days, exit_reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			runID, t.Symbol, t.EntryDate, t.EntryPrice, t.ExitDate, t.ExitPrice,
			t.PnL, t.PnLPct, t.HoldingDays, string(t.ExitReason),
		)
	}
	if err := r.sendBatch(ctx, batch); err != nil {
		return fmt.Errorf("insert trades: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) RecordSummary(ctx context.Context, runID string, s *model.SummaryMetrics) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO summaries
			(run_id, symbol, status, trade_status, trade_count, wins, losses, win_rate,
			 total_pnl, total_pnl_pct, avg_holding_days, ml_status,
			 ml_accuracy_logreg, ml_accuracy_tree, folds_evaluated, folds_skipped, data_gaps)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (run_id, symbol) DO NOTHING`,
		runID, s.Symbol, string(s.Status), string(s.TradeStatus), s.TradeCount, s.Wins, s.Losses, s.WinRate,
		s.TotalPnL, s.TotalPnLPct, s.AvgHoldingDays, string(s.MLStatus),
		nullable(s.MLAccuracyLogReg), nullable(s.MLAccuracyTree), s.FoldsEvaluated, s.FoldsSkipped, s.DataGaps,
	)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) RecordSignals(ctx context.Context, runID, symbol string, signals []model.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, sig := range signals {
		batch.Queue(`
			INSERT INTO signals (run_id, symbol, date, action, reason, close, rsi, sma20, sma50)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			runID, symbol, sig.Date, string(sig.Action), string(sig.Reason),
			sig.Close, sig.RSI, sig.SMA20, sig.SMA50,
		)
	}
	if err := r.sendBatch(ctx, batch); err != nil {
		return fmt.Errorf("insert signals: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Close() error {
	log.Info().Msg("closing postgres recorder")
	r.pool.Close()
	return nil
}
