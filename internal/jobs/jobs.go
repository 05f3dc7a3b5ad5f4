// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// SessionSweeper deletes expired sessions.
type SessionSweeper interface {
	Sweep(ctx context.Context) error
}

// Scheduler owns the cron runner. Jobs run with a per-run timeout and never
// overlap with themselves.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration
}

func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		timeout: time.Minute,
	}
}

// AddSessionSweep schedules s on spec.
func (s *Scheduler) AddSessionSweep(spec string, sweeper SessionSweeper) error {
	return s.add("session_sweep", spec, sweeper.Sweep)
}

func (s *Scheduler) add(name, spec string, run func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		start := time.Now()
		if err := run(ctx); err != nil {
			s.logger.Error("jobs: run failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Debug("jobs: run finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return errors.Wrapf(err, "schedule %s %q", name, spec)
	}
	s.logger.Info("jobs: scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

// cronLogger routes the runner's own messages (skips, recovered panics)
// into zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Infow("jobs: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw("jobs: "+msg, append(keysAndValues, "error", err)...)
}

// Entries reports the number of scheduled jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
