// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// JobRunner runs work outside the request that triggered it.
type JobRunner interface {
	Run(name string, task func(ctx context.Context))
}

// Scheduler wraps a gocron scheduler. One-off jobs start immediately and
// recurring jobs never overlap with themselves.
type Scheduler struct {
	sched gocron.Scheduler
	ctx   context.Context
	log   *zap.Logger
}

// NewScheduler binds jobs to ctx: it is passed to every task and cancelling it
// is the signal for tasks to wind down.
func NewScheduler(ctx context.Context, log *zap.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{sched: sched, ctx: ctx, log: log}, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

// Run schedules task once, right now.
func (s *Scheduler) Run(name string, task func(ctx context.Context)) {
	_, err := s.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()),
		gocron.NewTask(func() { task(s.ctx) }),
		gocron.WithName(name),
	)
	if err != nil {
		s.log.Error("❌ [SCHEDULER] failed to queue job", zap.String("job", name), zap.Error(err))
	}
}

// Every runs task on a fixed interval, skipping a tick while the previous run is still going.
func (s *Scheduler) Every(name string, interval time.Duration, task func(ctx context.Context)) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { task(s.ctx) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.log.Info("⏱️ [SCHEDULER] job registered", zap.String("job", name), zap.Duration("interval", interval))
	return nil
}
