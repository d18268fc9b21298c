// Package scheduler repeats a crawl on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one scheduled run.
type Job func(ctx context.Context) error

// Scheduler wraps robfig/cron and manages the crawl loop.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	logger logrus.FieldLogger
}

// ParseSpec checks a cron spec: five fields or a descriptor such as "@every 6h".
func ParseSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// New creates a Scheduler that runs job on spec. A run still in progress
// when the next tick fires causes that tick to be skipped.
func New(spec string, job Job, logger logrus.FieldLogger) (*Scheduler, error) {
	if err := ParseSpec(spec); err != nil {
		return nil, err
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		spec:   spec,
		job:    job,
		logger: logger,
	}, nil
}

// Run executes the job once immediately, then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) })
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.runOnce(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.cron.Start()
	s.logger.WithField("schedule", s.spec).Info("Scheduler started")

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("Scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.job(ctx); err != nil {
		s.logger.WithError(err).Error("Scheduled run failed")
	}
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	logger logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
