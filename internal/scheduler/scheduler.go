// Package scheduler runs the periodic payroll check on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Veraticus/payroll-sentinel/internal/common"
)

// DefaultTimeout bounds a single scheduled run.
const DefaultTimeout = 10 * time.Minute

// Job is the work run on every tick.
type Job func(ctx context.Context) error

// Scheduler runs one Job on a cron spec. A tick that fires while the previous
// run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	job     Job
	logger  *slog.Logger
	spec    string
	timeout time.Duration
	entry   cron.EntryID
}

// New creates a Scheduler for spec, a standard five-field cron expression or
// a descriptor such as "@hourly" or "@every 30m". timeout <= 0 means DefaultTimeout.
func New(spec string, timeout time.Duration, job Job) (*Scheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("%w: scheduler job is required", common.ErrInvalidConfig)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := slog.Default().With("component", "scheduler")
	s := &Scheduler{
		job:     job,
		logger:  logger,
		spec:    spec,
		timeout: timeout,
	}
	s.cron = cron.New(
		cron.WithLocation(time.Local),
		cron.WithLogger(cronLogger{logger}),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)

	id, err := s.cron.AddFunc(spec, func() { s.run() })
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule %q: %w", common.ErrInvalidConfig, spec, err)
	}
	s.entry = id
	return s, nil
}

// Start begins running the job in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "spec", s.spec, "next_run", s.Next())
}

// Stop stops scheduling and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler did not stop: %w", ctx.Err())
	}
}

// Next returns when the job is next due; zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// RunNow runs the job once synchronously, bounded by the run timeout.
func (s *Scheduler) RunNow(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.job(ctx)
	if err != nil {
		s.logger.Error("Scheduled run failed", "error", err, "duration", time.Since(start))
		return err
	}
	s.logger.Info("Scheduled run completed", "duration", time.Since(start))
	return nil
}

func (s *Scheduler) run() {
	_ = s.RunNow(context.Background())
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
