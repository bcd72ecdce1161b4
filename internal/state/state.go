// Package state keeps the outcome of the most recent run on disk so the bot
// can answer /status across restarts.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// TickerState is the per-ticker part of LastRun.
type TickerState struct {
	Symbol         string   `json:"symbol"`
	Status         string   `json:"status"`
	Trades         int      `json:"trades"`
	WinRate        float64  `json:"win_rate"`
	TotalPnLPct    float64  `json:"total_pnl_pct"`
	MLStatus       string   `json:"ml_status"`
	AccuracyLogReg *float64 `json:"accuracy_logreg,omitempty"`
	AccuracyTree   *float64 `json:"accuracy_tree,omitempty"`
}

// LastRun summarizes the most recent completed run.
type LastRun struct {
	RunID       string        `json:"run_id"`
	Status      string        `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	Symbols     []string      `json:"symbols"`
	Processed   int           `json:"processed"`
	Failed      int           `json:"failed"`
	TotalTrades int           `json:"total_trades"`
	WinRate     float64       `json:"win_rate"`
	Tickers     []TickerState `json:"tickers"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Empty reports whether no run has been recorded yet.
func (s LastRun) Empty() bool { return s.RunID == "" }

// LoadState reads the state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*LastRun, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &LastRun{}, nil
		}
		return nil, err
	}
	var s LastRun
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveState writes the state to a JSON file through a temp file and rename.
func SaveState(filePath string, s *LastRun) error {
	s.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
