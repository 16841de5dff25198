package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"rentshare/internal/app/schedule"
)

const defaultJobTimeout = 5 * time.Minute

// CronScheduler runs jobs with robfig/cron in the configured time zone, so
// "@daily" fires at local midnight. Overlapping runs of one job are skipped.
type CronScheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
}

func NewCronScheduler(loc *time.Location, logger *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &CronScheduler{cron: c, logger: logger, timeout: defaultJobTimeout}
}

// Register adds job under spec. Specs use the standard five field syntax or
// descriptors like "@hourly".
func (s *CronScheduler) Register(spec string, job schedule.Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.Name(), err)
	}
	s.logger.Info("job registered", "job", job.Name(), "spec", spec)
	return nil
}

func (s *CronScheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs or until ctx is done.
func (s *CronScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow executes job once in the caller's goroutine.
func (s *CronScheduler) RunNow(ctx context.Context, job schedule.Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name(), "duration", time.Since(start), "error", err)
		return err
	}
	s.logger.Debug("job finished", "job", job.Name(), "duration", time.Since(start))
	return nil
}

func (s *CronScheduler) run(job schedule.Job) {
	_ = s.RunNow(context.Background(), job)
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

var _ schedule.Scheduler = (*CronScheduler)(nil)
