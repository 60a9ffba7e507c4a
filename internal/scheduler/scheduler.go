// Package scheduler runs the periodic jobs of the service on cron schedules:
// the content refresh and the evaluation tick.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "jaincal/internal/log"
)

// Job is a unit of scheduled work. The context is canceled on Stop.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner bound to one time zone. A job that is still
// running when its next activation comes due is skipped; panics are
// recovered and logged.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler evaluating schedules in loc.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under name with a standard five-field or descriptor
// ("@every 1m") schedule.
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		started := time.Now()
		if err := job(s.ctx); err != nil {
			appLog.Error("job failed", err, "job", name, "elapsed", time.Since(started).String())
			return
		}
		appLog.Debug("job done", "job", name, "elapsed", time.Since(started).String())
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	appLog.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// cronLogger routes cron's own logging through the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
