package testkit

import (
	"context"
	"testing"
	"time"

	"sleepreport/adapters/stats/session"
	"sleepreport/domain/core"
	"sleepreport/domain/sleep"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNightGenerator_Deterministic(t *testing.T) {
	a, err := NewNightGenerator(DefaultNightConfig()).Generate()
	require.NoError(t, err)
	b, err := NewNightGenerator(DefaultNightConfig()).Generate()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a.Aggregates, 14)
}

func TestNightGenerator_SessionsMatchSummaries(t *testing.T) {
	cfg := DefaultNightConfig()
	cfg.Nights = 5
	ds, err := NewNightGenerator(cfg).Generate()
	require.NoError(t, err)

	sessions := session.BuildSessions(ds.Samples, session.DefaultBuilderConfig())
	// five nights plus naps on days 0 and 3 back from the last night
	assert.Len(t, sessions, 7)

	for _, rec := range ds.Aggregates {
		matched, err := session.MatchSession(rec, sessions)
		require.NoError(t, err)
		assert.True(t, matched.EndUTC.Equal(rec.Timestamp), "session for %s should end at wake", rec.CalendarDate)

		asleep := rec.SleepTimeSeconds.OrElse(0) + rec.AwakeSleepSeconds.OrElse(0)
		assert.InDelta(t, matched.TotalStageSeconds, asleep, 1e-6)
	}
}

func TestNightGenerator_Validation(t *testing.T) {
	_, err := NewNightGenerator(NightGeneratorConfig{Nights: 0, LastWake: time.Now()}).Generate()
	assert.Error(t, err)
	_, err = NewNightGenerator(NightGeneratorConfig{Nights: 2}).Generate()
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	recs := []sleep.AggregateRecord{
		{Timestamp: core.Unix(300), SleepScore: core.Some(70.0)},
		{Timestamp: core.Unix(100), SleepScore: core.Some(60.0)},
		{SleepScore: core.Some(1.0)},
	}
	n, err := store.SaveAggregates(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = store.SaveAggregates(ctx, []sleep.AggregateRecord{{Timestamp: core.Unix(300), SleepScore: core.Some(75.0)}})
	require.NoError(t, err)

	got, err := store.FetchAggregates(ctx, core.Unix(100), core.Unix(300))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.Some(60.0), got[0].SleepScore)
	assert.Equal(t, core.Some(75.0), got[1].SleepScore)

	_, err = store.SaveSamples(ctx, []sleep.SamplePoint{
		{Timestamp: core.Unix(20), Stage: core.Some(sleep.StageREM)},
		{Timestamp: core.Unix(10), Stage: core.Some(sleep.StageDeep)},
	})
	require.NoError(t, err)
	samples, err := store.FetchSamples(ctx, core.Unix(0), core.Unix(15))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, core.Some(sleep.StageDeep), samples[0].Stage)

	require.NoError(t, store.SaveSentKey(ctx, "2024-03-09"))
	key, _ := store.LastSentKey(ctx)
	assert.Equal(t, core.SleepKey("2024-03-09"), key)
}
