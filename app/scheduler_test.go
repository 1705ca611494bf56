package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sleepreport/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Once(t *testing.T) {
	calls := 0
	s := NewScheduler("test", func(ctx context.Context) (Outcome, error) {
		calls++
		return OutcomeSent, nil
	}, SchedulerConfig{Interval: time.Hour, Once: true})

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestScheduler_KeepsGoingAfterErrors(t *testing.T) {
	calls := 0
	var waits []time.Duration
	s := NewScheduler("test", func(ctx context.Context) (Outcome, error) {
		calls++
		return OutcomeDone, fmt.Errorf("source down")
	}, SchedulerConfig{Interval: time.Minute, Jitter: 5 * time.Second})
	s.wait = func(ctx context.Context, d time.Duration) bool {
		waits = append(waits, d)
		return len(waits) < 3
	}

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 3, calls)
	for _, d := range waits {
		assert.GreaterOrEqual(t, d, time.Minute)
		assert.LessOrEqual(t, d, time.Minute+5*time.Second)
	}
}

func TestScheduler_StopsOnConfigError(t *testing.T) {
	calls := 0
	s := NewScheduler("test", func(ctx context.Context) (Outcome, error) {
		calls++
		return OutcomeDone, errors.ConfigInvalid("missing TELEGRAM_BOT_TOKEN")
	}, SchedulerConfig{Interval: time.Minute})
	s.wait = func(ctx context.Context, d time.Duration) bool { return true }

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestScheduler_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler("test", func(ctx context.Context) (Outcome, error) {
		cancel()
		return OutcomeSkipped, nil
	}, SchedulerConfig{Interval: time.Hour})

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeSkipped, outcomeOf(true, false))
	assert.Equal(t, OutcomeSent, outcomeOf(false, true))
	assert.Equal(t, OutcomeDone, outcomeOf(false, false))
}

func TestScheduler_ErrorBackoff(t *testing.T) {
	calls := 0
	var waits []time.Duration
	s := NewScheduler("journal", func(ctx context.Context) (Outcome, error) {
		calls++
		if calls == 1 {
			return OutcomeDone, fmt.Errorf("telegram unreachable")
		}
		return OutcomeSkipped, nil
	}, SchedulerConfig{Interval: time.Second, ErrorBackoff: 5 * time.Second})
	s.wait = func(ctx context.Context, d time.Duration) bool {
		waits = append(waits, d)
		return len(waits) < 2
	}

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []time.Duration{6 * time.Second, time.Second}, waits)
}
