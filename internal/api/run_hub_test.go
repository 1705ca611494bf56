package api

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sleepreport/app"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHub_BroadcastsToClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewRunHub(ctx)

	client := make(chan RunEvent, 1)
	hub.register <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(RunEvent{Target: "image", Outcome: "sent"})

	select {
	case event := <-client:
		assert.Equal(t, "image", event.Target)
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	hub.unregister <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRunEventBroadcaster_RecordsLast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewRunHub(ctx)
	b := NewRunEventBroadcaster(hub)

	b.ObserveRun("text", app.OutcomeSkipped, nil, 1500*time.Microsecond)
	b.ObserveRun("image", app.OutcomeDone, fmt.Errorf("telegram down"), time.Second)

	last := hub.Last()
	require.Len(t, last, 2)
	assert.Equal(t, "skipped", last["text"].Outcome)
	assert.Equal(t, "2ms", last["text"].Took)
	assert.Equal(t, "error", last["image"].Outcome)
	assert.Equal(t, "telegram down", last["image"].Error)
}

func TestRunHub_ClosesClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewRunHub(ctx)

	client := make(chan RunEvent, 1)
	hub.register <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case _, ok := <-client:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client not closed")
	}
}
