// Package scheduler triggers runs from cron and from bot commands.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"AlgoSentinel/internal/notifier"
	"AlgoSentinel/internal/runner"
	"AlgoSentinel/internal/state"
)

// Runner is the part of runner.Runner the scheduler drives.
type Runner interface {
	Run(ctx context.Context, symbols []string) (*runner.Report, error)
	State() *state.Manager
}

// Scheduler manages the cron task and command handling.
type Scheduler struct {
	Cron    *cron.Cron
	Runner  Runner
	Symbols []string
	Ctx     context.Context

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewScheduler creates a new Scheduler. ctx bounds every run it starts.
func NewScheduler(ctx context.Context, r Runner, symbols []string) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Runner:  r,
		Symbols: symbols,
		Ctx:     ctx,
	}
}

// Register adds the periodic run. runCron uses the six-field format with seconds.
func (s *Scheduler) Register(runCron string) error {
	if _, err := s.Cron.AddFunc(runCron, s.runTask); err != nil {
		return fmt.Errorf("register run task: %w", err)
	}
	log.Info().Str("cron", runCron).Msg("run task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for runs it started to return.
// Runs requested after Stop are refused.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	<-s.Cron.Stop().Done()
	s.wg.Wait()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes a run synchronously.
func (s *Scheduler) RunNow() error {
	_, err := s.Runner.Run(s.Ctx, s.Symbols)
	return err
}

// RunAsync starts a run in the background. It reports false once the
// scheduler is stopping.
func (s *Scheduler) RunAsync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runTask()
	}()
	return true
}

func (s *Scheduler) runTask() {
	log.Info().Msg("running scheduled analysis")
	err := s.RunNow()
	switch {
	case err == nil:
	case errors.Is(err, runner.ErrRunInProgress):
		log.Warn().Msg("previous run still in progress, skipping")
	case errors.Is(err, runner.ErrAllTickersFailed):
		log.Error().Err(err).Msg("run failed")
	default:
		log.Error().Err(err).Msg("run aborted")
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	var cmd string
	if fields := strings.Fields(command); len(fields) > 0 {
		cmd = strings.ToLower(fields[0])
	}
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i] // /run@MyBot in group chats
	}

	st := s.Runner.State()
	switch cmd {
	case "/run":
		if st.Running() {
			return "⏳ A run is already in progress."
		}
		if !s.RunAsync() {
			return "🛑 Shutting down, run not started."
		}
		return fmt.Sprintf("▶️ Run started for %d symbols.", len(s.Symbols))
	case "/status":
		return notifier.FormatStatus(st.Get(), st.Running())
	default:
		return notifier.FormatHelp()
	}
}
