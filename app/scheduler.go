package app

import (
	"context"
	"log"
	"math/rand"
	"time"

	"sleepreport/internal/errors"
)

// Outcome is what one scheduled run reports back
type Outcome int

const (
	OutcomeDone Outcome = iota
	OutcomeSent
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "done"
	}
}

// RunObserver is told about every finished run
type RunObserver interface {
	ObserveRun(target string, outcome Outcome, err error, took time.Duration)
}

// Task is one scheduled unit of work
type Task func(ctx context.Context) (Outcome, error)

// SchedulerConfig sets the polling cadence
type SchedulerConfig struct {
	Interval     time.Duration
	Jitter       time.Duration // each wait adds a random 0..Jitter
	ErrorBackoff time.Duration // added to the wait after a failed run
	Once         bool
}

// Scheduler runs a task on a fixed interval until the context is cancelled.
// Task errors are logged and the loop continues; configuration errors stop it.
type Scheduler struct {
	name     string
	task     Task
	config   SchedulerConfig
	rng      *rand.Rand
	wait     func(ctx context.Context, d time.Duration) bool
	observer RunObserver
}

// NewScheduler creates a scheduler for task
func NewScheduler(name string, task Task, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = 10 * time.Minute
	}
	if config.Jitter < 0 {
		config.Jitter = 0
	}
	return &Scheduler{
		name:   name,
		task:   task,
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		wait:   sleepContext,
	}
}

// WithObserver reports each run to observer
func (s *Scheduler) WithObserver(observer RunObserver) *Scheduler {
	s.observer = observer
	return s
}

// Run blocks until ctx is done, a fatal error occurs or, in once mode, after one run
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("[Scheduler] starting target=%s interval=%s jitter=0..%s once=%t",
		s.name, s.config.Interval, s.config.Jitter, s.config.Once)

	for {
		started := time.Now()
		outcome, err := s.task(ctx)
		if s.observer != nil {
			s.observer.ObserveRun(s.name, outcome, err, time.Since(started))
		}
		switch {
		case err != nil && errors.GetCode(err) == errors.CodeConfigInvalid:
			log.Printf("[Scheduler] FATAL: %v", err)
			return err
		case err != nil:
			log.Printf("[Scheduler] ERROR: run failed: %v", err)
		case outcome == OutcomeSent:
			log.Printf("[Scheduler] run complete: SENT")
		case outcome == OutcomeSkipped:
			log.Printf("[Scheduler] run complete: SKIPPED (nothing new)")
		default:
			log.Printf("[Scheduler] run complete")
		}

		if s.config.Once {
			return nil
		}

		delay := s.nextDelay()
		if err != nil && s.config.ErrorBackoff > 0 {
			delay += s.config.ErrorBackoff
		}
		log.Printf("[Scheduler] sleeping %s", delay)
		if !s.wait(ctx, delay) {
			log.Printf("[Scheduler] stopped")
			return nil
		}
	}
}

func (s *Scheduler) nextDelay() time.Duration {
	if s.config.Jitter <= 0 {
		return s.config.Interval
	}
	return s.config.Interval + time.Duration(s.rng.Int63n(int64(s.config.Jitter)+1))
}

// sleepContext waits d and reports false when ctx ended first
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// ImageTask adapts the report service to the scheduler
func ImageTask(svc *ReportService, deliver bool) Task {
	return func(ctx context.Context) (Outcome, error) {
		result, err := svc.RunOnce(ctx, ReportRequest{Deliver: deliver})
		return outcomeOf(result != nil && result.Skipped, result != nil && result.Sent), err
	}
}

// TextTask adapts the summary service to the scheduler
func TextTask(svc *SummaryService, deliver bool) Task {
	return func(ctx context.Context) (Outcome, error) {
		result, err := svc.RunOnce(ctx, ReportRequest{Deliver: deliver})
		return outcomeOf(result != nil && result.Skipped, result != nil && result.Sent), err
	}
}

func outcomeOf(skipped, sent bool) Outcome {
	switch {
	case skipped:
		return OutcomeSkipped
	case sent:
		return OutcomeSent
	default:
		return OutcomeDone
	}
}
