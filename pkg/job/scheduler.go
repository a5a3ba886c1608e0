// Package job runs periodic in-process tasks on cron schedules.
//
// Schedules use the five standard fields (minute hour dom month dow) or a
// descriptor such as "@every 30s" or "@hourly".
//
//	s := job.NewScheduler(job.WithLogger(log))
//	if err := s.Every("refresh", "@every 30s", refresh); err != nil {
//	    return err
//	}
//	app.Run(addr, internal.StartupHook(s.Start), internal.ShutdownHook(s.Stop))
package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is the work run on each tick. The context is cancelled when the
// scheduler stops.
type Task func(ctx context.Context) error

type Option func(*Scheduler)

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout bounds each run of a task.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Scheduler wraps a cron runner. A tick that arrives while the previous
// run of the same task is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:  slog.New(slog.DiscardHandler),
		timeout: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Every registers task under name. Tasks may be added before or after Start.
func (s *Scheduler) Every(name, spec string, task Task) error {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return errors.Join(ErrInvalidSchedule, err)
	}
	s.cron.Schedule(schedule, cron.FuncJob(func() { s.run(name, task) }))
	return nil
}

func (s *Scheduler) run(name string, task Task) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := task(ctx); err != nil {
		s.logger.ErrorContext(ctx, "scheduled task failed",
			slog.String("task", name),
			slog.Any("error", err),
		)
		return
	}
	s.logger.DebugContext(ctx, "scheduled task done",
		slog.String("task", name),
		slog.Duration("duration", time.Since(start)),
	)
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start begins ticking. Its signature matches a startup hook.
func (s *Scheduler) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.cron.Start()
	return nil
}

// Stop cancels running tasks and waits for them until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.started = false
	s.mu.Unlock()

	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
