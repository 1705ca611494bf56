package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
	"sleepreport/ports"

	"github.com/jmoiron/sqlx"
)

// summaryRow mirrors sleep_summary. Metric columns are nullable.
type summaryRow struct {
	Time                 time.Time       `db:"time"`
	CalendarDate         sql.NullString  `db:"calendar_date"`
	AvgSleepStress       sql.NullFloat64 `db:"avg_sleep_stress"`
	AwakeCount           sql.NullFloat64 `db:"awake_count"`
	AwakeSleepSeconds    sql.NullFloat64 `db:"awake_sleep_seconds"`
	DeepSleepSeconds     sql.NullFloat64 `db:"deep_sleep_seconds"`
	RemSleepSeconds      sql.NullFloat64 `db:"rem_sleep_seconds"`
	RestingHeartRate     sql.NullFloat64 `db:"resting_heart_rate"`
	RestlessMomentsCount sql.NullFloat64 `db:"restless_moments_count"`
	SleepScore           sql.NullFloat64 `db:"sleep_score"`
	SleepTimeSeconds     sql.NullFloat64 `db:"sleep_time_seconds"`
	Extra                []byte          `db:"extra"`
}

// intradayRow mirrors sleep_intraday
type intradayRow struct {
	Time         time.Time       `db:"time"`
	StageLevel   sql.NullInt64   `db:"stage_level"`
	StageSeconds sql.NullFloat64 `db:"stage_seconds"`
}

// SleepRepositoryImpl reads and writes nightly summaries and stage samples
type SleepRepositoryImpl struct {
	db *sqlx.DB
}

// NewSleepRepository creates a PostgreSQL-backed sleep store
func NewSleepRepository(db *sqlx.DB) ports.SleepStore {
	return &SleepRepositoryImpl{db: db}
}

// FetchAggregates returns summaries with start <= time <= end, oldest first
func (r *SleepRepositoryImpl) FetchAggregates(ctx context.Context, start, end core.Instant) ([]sleep.AggregateRecord, error) {
	var rows []summaryRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT time, calendar_date, avg_sleep_stress, awake_count, awake_sleep_seconds,
		       deep_sleep_seconds, rem_sleep_seconds, resting_heart_rate,
		       restless_moments_count, sleep_score, sleep_time_seconds, extra
		FROM sleep_summary
		WHERE time >= $1 AND time <= $2
		ORDER BY time ASC
	`, start.Time(), end.Time())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sleep summaries: %w", err)
	}

	records := make([]sleep.AggregateRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			log.Printf("[SleepRepository] skipping summary at %s: %v", row.Time.Format(time.RFC3339), err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// FetchSamples returns intraday stage samples with start <= time <= end, oldest first
func (r *SleepRepositoryImpl) FetchSamples(ctx context.Context, start, end core.Instant) ([]sleep.SamplePoint, error) {
	var rows []intradayRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT time, stage_level, stage_seconds
		FROM sleep_intraday
		WHERE time >= $1 AND time <= $2
		ORDER BY time ASC
	`, start.Time(), end.Time())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sleep intraday samples: %w", err)
	}

	samples := make([]sleep.SamplePoint, 0, len(rows))
	for _, row := range rows {
		samples = append(samples, row.toSample())
	}
	return samples, nil
}

// SaveAggregates upserts summaries keyed by time
func (r *SleepRepositoryImpl) SaveAggregates(ctx context.Context, records []sleep.AggregateRecord) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	saved := 0
	for _, rec := range records {
		if rec.Timestamp.IsZero() {
			continue
		}
		row, err := summaryRowFrom(rec)
		if err != nil {
			return 0, err
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO sleep_summary (
				time, calendar_date, avg_sleep_stress, awake_count, awake_sleep_seconds,
				deep_sleep_seconds, rem_sleep_seconds, resting_heart_rate,
				restless_moments_count, sleep_score, sleep_time_seconds, extra
			) VALUES (
				:time, :calendar_date, :avg_sleep_stress, :awake_count, :awake_sleep_seconds,
				:deep_sleep_seconds, :rem_sleep_seconds, :resting_heart_rate,
				:restless_moments_count, :sleep_score, :sleep_time_seconds, :extra
			)
			ON CONFLICT (time) DO UPDATE SET
				calendar_date = EXCLUDED.calendar_date,
				avg_sleep_stress = EXCLUDED.avg_sleep_stress,
				awake_count = EXCLUDED.awake_count,
				awake_sleep_seconds = EXCLUDED.awake_sleep_seconds,
				deep_sleep_seconds = EXCLUDED.deep_sleep_seconds,
				rem_sleep_seconds = EXCLUDED.rem_sleep_seconds,
				resting_heart_rate = EXCLUDED.resting_heart_rate,
				restless_moments_count = EXCLUDED.restless_moments_count,
				sleep_score = EXCLUDED.sleep_score,
				sleep_time_seconds = EXCLUDED.sleep_time_seconds,
				extra = EXCLUDED.extra
		`, row)
		if err != nil {
			return 0, fmt.Errorf("failed to save sleep summary %s: %w", rec.Timestamp, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sleep summaries: %w", err)
	}
	return saved, nil
}

// SaveSamples upserts intraday samples keyed by time
func (r *SleepRepositoryImpl) SaveSamples(ctx context.Context, samples []sleep.SamplePoint) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	saved := 0
	for _, s := range samples {
		if s.Timestamp.IsZero() {
			continue
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO sleep_intraday (time, stage_level, stage_seconds)
			VALUES (:time, :stage_level, :stage_seconds)
			ON CONFLICT (time) DO UPDATE SET
				stage_level = EXCLUDED.stage_level,
				stage_seconds = EXCLUDED.stage_seconds
		`, intradayRowFrom(s))
		if err != nil {
			return 0, fmt.Errorf("failed to save intraday sample %s: %w", s.Timestamp, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit intraday samples: %w", err)
	}
	return saved, nil
}

func (row summaryRow) toRecord() (sleep.AggregateRecord, error) {
	rec := sleep.AggregateRecord{
		Timestamp:            core.NewInstant(row.Time),
		CalendarDate:         row.CalendarDate.String,
		AvgSleepStress:       optional(row.AvgSleepStress),
		AwakeCount:           optional(row.AwakeCount),
		AwakeSleepSeconds:    optional(row.AwakeSleepSeconds),
		DeepSleepSeconds:     optional(row.DeepSleepSeconds),
		RemSleepSeconds:      optional(row.RemSleepSeconds),
		RestingHeartRate:     optional(row.RestingHeartRate),
		RestlessMomentsCount: optional(row.RestlessMomentsCount),
		SleepScore:           optional(row.SleepScore),
		SleepTimeSeconds:     optional(row.SleepTimeSeconds),
	}
	if len(row.Extra) > 0 {
		var extra map[string]any
		if err := json.Unmarshal(row.Extra, &extra); err != nil {
			return sleep.AggregateRecord{}, fmt.Errorf("invalid extra metrics: %w", err)
		}
		for name, raw := range extra {
			rec = rec.WithMetric(sleep.MetricName(name), core.ParseOptionalFloat(raw))
		}
	}
	return rec, nil
}

func summaryRowFrom(rec sleep.AggregateRecord) (summaryRow, error) {
	row := summaryRow{
		Time:                 rec.Timestamp.Time(),
		CalendarDate:         sql.NullString{String: rec.CalendarDate, Valid: rec.CalendarDate != ""},
		AvgSleepStress:       nullable(rec.AvgSleepStress),
		AwakeCount:           nullable(rec.AwakeCount),
		AwakeSleepSeconds:    nullable(rec.AwakeSleepSeconds),
		DeepSleepSeconds:     nullable(rec.DeepSleepSeconds),
		RemSleepSeconds:      nullable(rec.RemSleepSeconds),
		RestingHeartRate:     nullable(rec.RestingHeartRate),
		RestlessMomentsCount: nullable(rec.RestlessMomentsCount),
		SleepScore:           nullable(rec.SleepScore),
		SleepTimeSeconds:     nullable(rec.SleepTimeSeconds),
	}
	if len(rec.Extra) > 0 {
		extra, err := json.Marshal(rec.Extra)
		if err != nil {
			return summaryRow{}, fmt.Errorf("failed to encode extra metrics: %w", err)
		}
		row.Extra = extra
	}
	return row, nil
}

func (row intradayRow) toSample() sleep.SamplePoint {
	s := sleep.SamplePoint{
		Timestamp:       core.NewInstant(row.Time),
		DurationSeconds: optional(row.StageSeconds),
	}
	if row.StageLevel.Valid {
		s.Stage = core.Some(sleep.StageCode(row.StageLevel.Int64))
	}
	return s
}

func intradayRowFrom(s sleep.SamplePoint) intradayRow {
	row := intradayRow{
		Time:         s.Timestamp.Time(),
		StageSeconds: nullable(s.DurationSeconds),
	}
	if code, ok := s.Stage.Get(); ok {
		row.StageLevel = sql.NullInt64{Int64: int64(code), Valid: true}
	}
	return row
}

func optional(v sql.NullFloat64) core.Optional[float64] {
	if !v.Valid {
		return core.None[float64]()
	}
	return core.ParseOptionalFloat(v.Float64)
}

func nullable(v core.Optional[float64]) sql.NullFloat64 {
	f, ok := v.Get()
	return sql.NullFloat64{Float64: f, Valid: ok}
}
