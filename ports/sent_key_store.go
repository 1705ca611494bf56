package ports

import (
	"context"

	"sleepreport/domain/core"
)

// SentKeyStore remembers the last night that was delivered.
// LastSentKey returns an empty key when nothing was sent yet.
type SentKeyStore interface {
	LastSentKey(ctx context.Context) (core.SleepKey, error)
	SaveSentKey(ctx context.Context, key core.SleepKey) error
}
