package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
	"sleepreport/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestWorkbookSource_CSVSummaries(t *testing.T) {
	path := writeFile(t, "summary.csv",
		"time_utc,time[America/Toronto],calendarDate,sleepScore,awakeCount,hrvStatus\n"+
			"2024-03-08T11:00:00Z,2024-03-08 07:00,2024-03-08,77,2,\n"+
			"not-a-time,,2024-03-07,70,1,\n"+
			"2024-03-09T11:30:00Z,2024-03-09 07:30,2024-03-09,81,,44\n")

	src := NewWorkbookSource(ExcelConfig{SummaryPath: path})
	records, err := src.FetchAggregates(context.Background(),
		core.MustNormalizeTime("2024-03-01T00:00:00Z"), core.MustNormalizeTime("2024-03-31T00:00:00Z"))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "2024-03-08", records[0].CalendarDate)
	assert.Equal(t, core.Some(77.0), records[0].SleepScore)
	assert.Equal(t, core.Some(2.0), records[0].AwakeCount)

	assert.Equal(t, core.MustNormalizeTime("2024-03-09T11:30:00Z"), records[1].Timestamp)
	assert.False(t, records[1].AwakeCount.IsSet())
	assert.Equal(t, core.Some(44.0), records[1].Metric("hrvStatus"))
}

func TestWorkbookSource_WindowIsInclusive(t *testing.T) {
	path := writeFile(t, "intraday.csv",
		"time_utc,Sleep Stage (code),Sleep Stage (label),SleepStageSeconds\n"+
			"2024-03-09T03:00:00Z,0,Deep,240\n"+
			"2024-03-09T03:04:00Z,1,Light,\n"+
			"2024-03-09T03:08:00Z,2,REM,300\n")

	src := NewWorkbookSource(ExcelConfig{IntradayPath: path})
	samples, err := src.FetchSamples(context.Background(),
		core.MustNormalizeTime("2024-03-09T03:00:00Z"), core.MustNormalizeTime("2024-03-09T03:04:00Z"))
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, core.Some(sleep.StageDeep), samples[0].Stage)
	assert.Equal(t, core.Some(240.0), samples[0].DurationSeconds)
	assert.Equal(t, core.Some(sleep.StageLight), samples[1].Stage)
	assert.False(t, samples[1].DurationSeconds.IsSet())
}

func TestWorkbookSource_MissingFile(t *testing.T) {
	src := NewWorkbookSource(DefaultExcelConfig(filepath.Join(t.TempDir(), "nope.xlsx")))
	_, err := src.FetchAggregates(context.Background(), core.Unix(0), core.Unix(1))
	assert.Error(t, err)
}

func TestExporter_RoundTrip(t *testing.T) {
	records := []sleep.AggregateRecord{
		{
			Timestamp:        core.MustNormalizeTime("2024-03-08T11:00:00Z"),
			CalendarDate:     "2024-03-08",
			SleepScore:       core.Some(77.0),
			SleepTimeSeconds: core.Some(25560.0),
			AvgSleepStress:   core.Some(18.25),
		},
		{
			Timestamp:    core.MustNormalizeTime("2024-03-09T11:30:00Z"),
			CalendarDate: "2024-03-09",
			SleepScore:   core.Some(81.0),
		},
	}
	samples := []sleep.SamplePoint{
		{Timestamp: core.MustNormalizeTime("2024-03-09T03:00:00Z"), Stage: core.Some(sleep.StageDeep), DurationSeconds: core.Some(240.0)},
		{Timestamp: core.MustNormalizeTime("2024-03-09T03:04:00Z"), Stage: core.Some(sleep.StageAwake)},
	}
	baselines := stats.Baselines{sleep.MetricSleepScore: {Mean: 79, StdDev: 2, Count: 5, Status: stats.BaselineComputed}}
	cards := []stats.DeviationCard{{Metric: sleep.MetricSleepScore, Label: "sleep score", CurrentValue: core.Some(81.0), Verdict: stats.VerdictBetter}}

	exp, err := NewExporter(WorkbookExport{Summaries: records, Samples: samples, Baselines: baselines, Cards: cards})
	require.NoError(t, err)
	defer exp.Close()

	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, exp.SaveAs(path))

	src := NewWorkbookSource(DefaultExcelConfig(path))
	ctx := context.Background()
	start, end := core.MustNormalizeTime("2024-03-01T00:00:00Z"), core.MustNormalizeTime("2024-03-31T00:00:00Z")

	gotRecords, err := src.FetchAggregates(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, gotRecords, 2)
	assert.Equal(t, records[0].Timestamp, gotRecords[0].Timestamp)
	assert.Equal(t, core.Some(18.25), gotRecords[0].AvgSleepStress)
	assert.Equal(t, core.Some(25560.0), gotRecords[0].SleepTimeSeconds)
	assert.False(t, gotRecords[1].SleepTimeSeconds.IsSet())

	gotSamples, err := src.FetchSamples(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, gotSamples, 2)
	assert.Equal(t, samples[0], gotSamples[0])
	assert.Equal(t, core.Some(sleep.StageAwake), gotSamples[1].Stage)
	assert.False(t, gotSamples[1].DurationSeconds.IsSet())

	sheet, err := NewDataReader(path).ReadSheet(CardsSheet)
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "better", sheet.Rows[0]["verdict"])
	assert.Equal(t, "81", sheet.Rows[0]["current"])
}
