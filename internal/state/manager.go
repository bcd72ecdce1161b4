package state

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Manager guards the last-run state and the "a run is in progress" flag.
type Manager struct {
	mu       sync.Mutex
	state    *LastRun
	filePath string
	running  bool
}

// NewManager creates a Manager, loading state from disk. An empty filePath
// keeps state in memory only.
func NewManager(filePath string) (*Manager, error) {
	s := &LastRun{}
	if filePath != "" {
		var err error
		if s, err = LoadState(filePath); err != nil {
			return nil, err
		}
	}
	return &Manager{state: s, filePath: filePath}, nil
}

// Get returns a copy of the last run.
func (m *Manager) Get() LastRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.state
	cp.Symbols = append([]string(nil), m.state.Symbols...)
	cp.Tickers = append([]TickerState(nil), m.state.Tickers...)
	return cp
}

// TryStart marks a run as in progress. It returns false if one already is.
func (m *Manager) TryStart() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return false
	}
	m.running = true
	return true
}

// Running reports whether a run is in progress.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Finish clears the in-progress flag and, when run is non-nil, stores it as
// the last run.
func (m *Manager) Finish(run *LastRun) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	if run == nil {
		return
	}
	m.state = run
	if err := m.save(); err != nil {
		log.Error().Err(err).Str("path", m.filePath).Msg("failed to save run state")
	}
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveState(m.filePath, m.state)
}
