package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sleepreport/domain/core"
	"sleepreport/domain/journal"
	"sleepreport/ports"

	"github.com/jmoiron/sqlx"
)

// journalRow mirrors sleep_journal
type journalRow struct {
	UpdateID     int64         `db:"update_id"`
	ReceivedAt   time.Time     `db:"received_at"`
	ChatID       string        `db:"chat_id"`
	FromID       string        `db:"from_id"`
	FromUsername string        `db:"from_username"`
	FromName     string        `db:"from_name"`
	MessageID    sql.NullInt64 `db:"message_id"`
	MsgType      string        `db:"msg_type"`
	Text         string        `db:"text"`
}

func journalRowFrom(entry journal.Entry) journalRow {
	row := journalRow{
		UpdateID:     entry.UpdateID,
		ReceivedAt:   entry.ReceivedAt.Time(),
		ChatID:       entry.ChatID,
		FromID:       entry.FromID,
		FromUsername: entry.FromUsername,
		FromName:     entry.FromName,
		MsgType:      string(entry.Kind),
		Text:         entry.Text,
	}
	if id, ok := entry.MessageID.Get(); ok {
		row.MessageID = sql.NullInt64{Int64: id, Valid: true}
	}
	return row
}

func (row journalRow) toEntry() journal.Entry {
	entry := journal.Entry{
		UpdateID:     row.UpdateID,
		ReceivedAt:   core.NewInstant(row.ReceivedAt),
		ChatID:       row.ChatID,
		FromID:       row.FromID,
		FromUsername: row.FromUsername,
		FromName:     row.FromName,
		Kind:         journal.MessageKind(row.MsgType),
		Text:         row.Text,
	}
	if row.MessageID.Valid {
		entry.MessageID = core.Some(row.MessageID.Int64)
	}
	return entry
}

// SleepJournalRepositoryImpl stores check-in replies keyed by update ID
type SleepJournalRepositoryImpl struct {
	db *sqlx.DB
}

// NewSleepJournalRepository creates a PostgreSQL-backed journal
func NewSleepJournalRepository(db *sqlx.DB) ports.JournalStore {
	return &SleepJournalRepositoryImpl{db: db}
}

// SaveEntry inserts entry unless its update was stored before
func (r *SleepJournalRepositoryImpl) SaveEntry(ctx context.Context, entry journal.Entry) (bool, error) {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO sleep_journal (
			update_id, received_at, chat_id, from_id, from_username, from_name,
			message_id, msg_type, text
		) VALUES (
			:update_id, :received_at, :chat_id, :from_id, :from_username, :from_name,
			:message_id, :msg_type, :text
		)
		ON CONFLICT (update_id) DO NOTHING
	`, journalRowFrom(entry))
	if err != nil {
		return false, fmt.Errorf("failed to save journal entry %d: %w", entry.UpdateID, err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to save journal entry %d: %w", entry.UpdateID, err)
	}
	return inserted > 0, nil
}

// ListEntries returns the newest entries first
func (r *SleepJournalRepositoryImpl) ListEntries(ctx context.Context, limit int) ([]journal.Entry, error) {
	if limit <= 0 {
		return []journal.Entry{}, nil
	}
	var rows []journalRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT update_id, received_at, chat_id, from_id, from_username, from_name,
		       message_id, msg_type, text
		FROM sleep_journal
		ORDER BY received_at DESC, update_id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}

	entries := make([]journal.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntry())
	}
	return entries, nil
}

// PurgeEntries deletes every stored reply
func (r *SleepJournalRepositoryImpl) PurgeEntries(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sleep_journal`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge journal: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge journal: %w", err)
	}
	return int(deleted), nil
}
