package ports

import (
	"context"
	"time"

	"sleepreport/domain/journal"
)

// UpdateSource long-polls the chat for replies. Updates with an ID below
// offset are already acknowledged and are not returned again.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]journal.Update, error)
}

// JournalStore keeps check-in replies. SaveEntry reports false when the
// update was already stored.
type JournalStore interface {
	SaveEntry(ctx context.Context, entry journal.Entry) (bool, error)
	ListEntries(ctx context.Context, limit int) ([]journal.Entry, error)
	PurgeEntries(ctx context.Context) (int, error)
}

// OffsetStore remembers the next update ID to ask for
type OffsetStore interface {
	LoadOffset(ctx context.Context) (int64, error)
	SaveOffset(ctx context.Context, offset int64) error
}
