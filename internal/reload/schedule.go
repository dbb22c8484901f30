package reload

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/belphemur/hebrew-calendar/internal/logging"
)

// cronLogger routes robfig/cron logs through zerolog
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Scheduler runs reloads on a cron schedule
type Scheduler struct {
	cron     *cron.Cron
	reloader *Reloader
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewScheduler registers a reload job for the standard five-field cron spec
func NewScheduler(reloader *Reloader, spec string, timeout time.Duration) (*Scheduler, error) {
	logger := logging.GetLogger("reload-scheduler")
	adapter := cronLogger{logger: logger}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		reloader: reloader,
		timeout:  timeout,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid reload schedule %q: %w", spec, err)
	}
	logger.Info().Str("schedule", spec).Msg("Scheduled dataset reloads")
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.logger.Debug().Msg("Scheduled reload triggered")
	if _, err := s.reloader.Reload(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Scheduled reload failed")
	}
}

// Start begins running the schedule in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Next returns the time of the next scheduled reload
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop halts the schedule and waits for a running reload to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Reload scheduler stopped")
}
