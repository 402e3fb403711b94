package broadcast

import (
	"context"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // Asia/Kolkata on hosts without zoneinfo

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Daily broadcast schedule: 09:00 India Standard Time (03:30 UTC).
const (
	Spec     = "0 9 * * *"
	Timezone = "Asia/Kolkata"
)

// Runner is the unit of work the scheduler fires.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler fires a Runner on a cron schedule in a fixed location.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	logger   *zap.Logger
}

// NewScheduler schedules runner at spec in timezone.
func NewScheduler(runner Runner, spec, timezone string, logger *zap.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("scheduler needs a runner")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		location: loc,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.fire(runner) }); err != nil {
		return nil, fmt.Errorf("add cron %q: %w", spec, err)
	}
	return s, nil
}

// NewDailyScheduler schedules runner at the daily broadcast time.
func NewDailyScheduler(runner Runner, logger *zap.Logger) (*Scheduler, error) {
	return NewScheduler(runner, Spec, Timezone, logger)
}

func (s *Scheduler) fire(runner Runner) {
	s.logger.Info("Running scheduled broadcast")
	if err := runner.Run(context.Background()); err != nil {
		s.logger.Error("scheduled broadcast failed", zap.Error(err))
	}
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("broadcast scheduler started", zap.Time("next", s.Next()))
}

// Stop stops the scheduler. The returned context is done once a running
// job has returned.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Next returns the next scheduled fire time, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Location returns the scheduler's time zone.
func (s *Scheduler) Location() *time.Location {
	return s.location
}

// NextAfter returns the first fire time strictly after t.
func (s *Scheduler) NextAfter(t time.Time) time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(t.In(s.location))
}
