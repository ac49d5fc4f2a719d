// Package scheduler runs background maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper removes expired data and reports how many items went.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron *cron.Cron
	log  logrus.FieldLogger
}

func New(log logrus.FieldLogger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl)),
		log:  log,
	}
}

// AddSweep registers sweeper under name. Each run gets its own timeout.
func (s *Scheduler) AddSweep(name, schedule string, sweeper Sweeper, timeout time.Duration) error {
	if _, err := s.cron.AddFunc(schedule, s.sweepJob(name, sweeper, timeout)); err != nil {
		return errors.Wrapf(err, "schedule %s %q", name, schedule)
	}
	s.log.WithFields(logrus.Fields{"job": name, "schedule": schedule}).Info("job scheduled")
	return nil
}

func (s *Scheduler) sweepJob(name string, sweeper Sweeper, timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		n, err := sweeper.Sweep(ctx)
		log := s.log.WithFields(logrus.Fields{"job": name, "removed": n, "took": time.Since(start)})
		if err != nil {
			log.WithError(err).Error("job failed")
			return
		}
		log.Debug("job finished")
	}
}

func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() { s.cron.Start() }

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stopped with jobs still running")
	}
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(fields(keysAndValues)).Error("cron: " + msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = kv[i+1]
		}
	}
	return f
}
