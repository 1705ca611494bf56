package postgres

import (
	"database/sql"
	"testing"
	"time"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryRow_RoundTrip(t *testing.T) {
	rec := sleep.AggregateRecord{
		Timestamp:    core.MustNormalizeTime("2024-03-09T11:30:00Z"),
		CalendarDate: "2024-03-09",
		SleepScore:   core.Some(81.0),
		AwakeCount:   core.None[float64](),
	}.WithMetric("hrvStatus", core.Some(44.0))

	row, err := summaryRowFrom(rec)
	require.NoError(t, err)
	assert.True(t, row.SleepScore.Valid)
	assert.False(t, row.AwakeCount.Valid)
	assert.JSONEq(t, `{"hrvStatus":44}`, string(row.Extra))

	back, err := row.toRecord()
	require.NoError(t, err)
	assert.Equal(t, rec.Timestamp, back.Timestamp)
	assert.Equal(t, "2024-03-09", back.CalendarDate)
	assert.Equal(t, core.Some(81.0), back.SleepScore)
	assert.False(t, back.AwakeCount.IsSet())
	assert.Equal(t, core.Some(44.0), back.Metric("hrvStatus"))
}

func TestSummaryRow_BadExtra(t *testing.T) {
	row := summaryRow{Time: time.Unix(1710000000, 0), Extra: []byte("{")}

	_, err := row.toRecord()
	assert.Error(t, err)
}

func TestIntradayRow_Conversion(t *testing.T) {
	s := sleep.SamplePoint{
		Timestamp:       core.Unix(1710000000),
		Stage:           core.Some(sleep.StageREM),
		DurationSeconds: core.Some(240.0),
	}

	row := intradayRowFrom(s)
	assert.Equal(t, sql.NullInt64{Int64: 2, Valid: true}, row.StageLevel)

	assert.Equal(t, s, row.toSample())

	empty := intradayRow{Time: time.Unix(1710000000, 0)}.toSample()
	assert.False(t, empty.Usable())
}
