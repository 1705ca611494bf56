package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sleepreport/domain/core"
	"sleepreport/ports"

	"github.com/jmoiron/sqlx"
)

// DeliveryStateRepositoryImpl keeps the last sent key per delivery channel
type DeliveryStateRepositoryImpl struct {
	db      *sqlx.DB
	channel string
}

// NewDeliveryStateRepository scopes sent-key state to one channel ("image", "text")
func NewDeliveryStateRepository(db *sqlx.DB, channel string) ports.SentKeyStore {
	return &DeliveryStateRepositoryImpl{db: db, channel: channel}
}

// LastSentKey returns an empty key when the channel has never delivered
func (r *DeliveryStateRepositoryImpl) LastSentKey(ctx context.Context) (core.SleepKey, error) {
	var key string
	err := r.db.GetContext(ctx, &key, `
		SELECT last_sent_key FROM delivery_state WHERE channel = $1
	`, r.channel)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load delivery state: %w", err)
	}
	return core.SleepKey(key), nil
}

// SaveSentKey upserts the channel's key
func (r *DeliveryStateRepositoryImpl) SaveSentKey(ctx context.Context, key core.SleepKey) error {
	if key.IsEmpty() {
		return fmt.Errorf("refusing to save an empty sent key")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO delivery_state (channel, last_sent_key, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (channel) DO UPDATE SET
			last_sent_key = EXCLUDED.last_sent_key,
			updated_at = EXCLUDED.updated_at
	`, r.channel, key.String())
	if err != nil {
		return fmt.Errorf("failed to save delivery state: %w", err)
	}
	return nil
}
