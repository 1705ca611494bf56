package api

import (
	"time"

	"sleepreport/app"
)

// RunEventBroadcaster adapts the RunHub to the scheduler's RunObserver
type RunEventBroadcaster struct {
	hub *RunHub
}

// NewRunEventBroadcaster creates a broadcaster publishing into hub
func NewRunEventBroadcaster(hub *RunHub) *RunEventBroadcaster {
	return &RunEventBroadcaster{hub: hub}
}

// ObserveRun converts a finished run into a RunEvent
func (b *RunEventBroadcaster) ObserveRun(target string, outcome app.Outcome, err error, took time.Duration) {
	event := RunEvent{
		Target:  target,
		Outcome: outcome.String(),
		Took:    took.Round(time.Millisecond).String(),
	}
	if err != nil {
		event.Outcome = "error"
		event.Error = err.Error()
	}
	b.hub.Publish(event)
}
