package migration

import (
	"context"

	"sleepreport/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.1.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createSleepSummaryTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create sleep_summary table")
	}

	if err := r.createSleepIntradayTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create sleep_intraday table")
	}

	if err := r.addSleepSummaryColumns(ctx, db); err != nil {
		return errors.Wrap(err, "failed to add sleep_summary columns")
	}

	if err := r.createDeliveryStateTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create delivery_state table")
	}

	if err := r.createSleepJournalTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create sleep_journal table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createSleepSummaryTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sleep_summary (
			time TIMESTAMP WITH TIME ZONE PRIMARY KEY,
			calendar_date VARCHAR(10),
			avg_sleep_stress DOUBLE PRECISION,
			awake_count DOUBLE PRECISION,
			awake_sleep_seconds DOUBLE PRECISION,
			deep_sleep_seconds DOUBLE PRECISION,
			rem_sleep_seconds DOUBLE PRECISION,
			resting_heart_rate DOUBLE PRECISION,
			restless_moments_count DOUBLE PRECISION,
			sleep_score DOUBLE PRECISION,
			sleep_time_seconds DOUBLE PRECISION,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createSleepIntradayTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sleep_intraday (
			time TIMESTAMP WITH TIME ZONE PRIMARY KEY,
			stage_level INTEGER,
			stage_seconds DOUBLE PRECISION
		)
	`)
	return err
}

// addSleepSummaryColumns upgrades tables created before extra metrics were kept
func (r *MigrationRunner) addSleepSummaryColumns(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'sleep_summary' AND column_name = 'extra'
			) THEN
				ALTER TABLE sleep_summary ADD COLUMN extra JSONB;
			END IF;
		END $$;
	`)
	return err
}

func (r *MigrationRunner) createDeliveryStateTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS delivery_state (
			channel VARCHAR(32) PRIMARY KEY,
			last_sent_key VARCHAR(64) NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

// createSleepJournalTable holds check-in replies; update_id makes re-polling
// the same batch harmless
func (r *MigrationRunner) createSleepJournalTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sleep_journal (
			update_id BIGINT PRIMARY KEY,
			received_at TIMESTAMP WITH TIME ZONE NOT NULL,
			chat_id VARCHAR(64) NOT NULL,
			from_id VARCHAR(64) NOT NULL DEFAULT '',
			from_username TEXT NOT NULL DEFAULT '',
			from_name TEXT NOT NULL DEFAULT '',
			message_id BIGINT,
			msg_type VARCHAR(16) NOT NULL,
			text TEXT NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_sleep_summary_calendar_date ON sleep_summary(calendar_date)",
		"CREATE INDEX IF NOT EXISTS idx_sleep_summary_time_desc ON sleep_summary(time DESC)",
		"CREATE INDEX IF NOT EXISTS idx_sleep_journal_received_at ON sleep_journal(received_at DESC)",
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return err
		}
	}
	return nil
}
