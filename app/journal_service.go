package app

import (
	"context"
	"log"
	"strings"
	"time"

	"sleepreport/domain/core"
	"sleepreport/domain/journal"
	"sleepreport/internal/errors"
	"sleepreport/ports"
)

// DefaultJournalConfirmation acknowledges a stored reply without echoing it
const DefaultJournalConfirmation = "Thanks, we saved your response"

// DefaultJournalListLimit is used when a caller asks for no particular count
const DefaultJournalListLimit = 20

// JournalConfig scopes the listener to one chat
type JournalConfig struct {
	ChatID       string
	PollTimeout  time.Duration
	Confirmation string
}

// PollResult summarizes one long poll
type PollResult struct {
	Updates    int
	Saved      int
	Duplicates int
	Ignored    int // non-message updates and messages from other chats
	Offset     int64
}

// JournalService captures replies to the nightly check-in prompt
type JournalService struct {
	updates ports.UpdateSource
	store   ports.JournalStore
	offsets ports.OffsetStore
	replier ports.Deliverer
	config  JournalConfig
	now     func() time.Time
}

// NewJournalService wires the listener. updates, offsets and replier may be
// nil when only listing or purging is needed.
func NewJournalService(updates ports.UpdateSource, store ports.JournalStore, offsets ports.OffsetStore, replier ports.Deliverer, config JournalConfig) *JournalService {
	config.ChatID = strings.TrimSpace(config.ChatID)
	if config.PollTimeout < 0 {
		config.PollTimeout = 0
	}
	if config.Confirmation == "" {
		config.Confirmation = DefaultJournalConfirmation
	}
	return &JournalService{
		updates: updates,
		store:   store,
		offsets: offsets,
		replier: replier,
		config:  config,
		now:     time.Now,
	}
}

// WithClock fixes the receive time for tests
func (s *JournalService) WithClock(now func() time.Time) *JournalService {
	s.now = now
	return s
}

// PollOnce fetches pending updates and stores replies from the configured
// chat. The offset moves past every handled update, so other chats and
// unsupported update kinds are acknowledged without being stored.
func (s *JournalService) PollOnce(ctx context.Context) (*PollResult, error) {
	if s.updates == nil || s.offsets == nil || s.config.ChatID == "" {
		return nil, errors.ConfigInvalid("journal listener needs TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
	}
	if s.store == nil {
		return nil, errors.ConfigInvalid("journal store not configured")
	}

	// Step 1: resume after the last acknowledged update
	offset, err := s.offsets.LoadOffset(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load update offset")
	}

	// Step 2: long-poll
	updates, err := s.updates.GetUpdates(ctx, offset, s.config.PollTimeout)
	if err != nil {
		return nil, errors.ExternalServiceError("telegram", err)
	}
	result := &PollResult{Updates: len(updates), Offset: offset}

	// Step 3: store replies in update order
	for _, update := range updates {
		msg := update.Message
		if msg == nil || msg.ChatID == "" || msg.ChatID != s.config.ChatID {
			result.Ignored++
		} else {
			entry := journal.NewEntry(update.ID, *msg, core.NewInstant(s.now()))
			saved, err := s.store.SaveEntry(ctx, entry)
			if err != nil {
				// acknowledge what was handled so only this update is polled again
				_ = s.saveOffset(ctx, offset, result.Offset)
				return result, errors.Wrapf(err, "failed to store journal entry %d", update.ID)
			}
			if saved {
				result.Saved++
				s.confirm(ctx, update.ID)
			} else {
				result.Duplicates++
			}
		}
		if next := update.ID + 1; next > result.Offset {
			result.Offset = next
		}
	}

	// Step 4: acknowledge
	if err := s.saveOffset(ctx, offset, result.Offset); err != nil {
		return result, errors.Wrap(err, "failed to save update offset")
	}

	if result.Updates > 0 {
		log.Printf("[JournalService] %d updates: %d saved, %d duplicate, %d ignored; next offset %d",
			result.Updates, result.Saved, result.Duplicates, result.Ignored, result.Offset)
	}
	return result, nil
}

// Entries returns the newest stored replies
func (s *JournalService) Entries(ctx context.Context, limit int) ([]journal.Entry, error) {
	if s.store == nil {
		return nil, errors.ConfigInvalid("journal store not configured")
	}
	if limit <= 0 {
		limit = DefaultJournalListLimit
	}
	entries, err := s.store.ListEntries(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list journal entries")
	}
	return entries, nil
}

// Purge deletes every stored reply. The update offset is kept so old
// replies are not fetched again.
func (s *JournalService) Purge(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, errors.ConfigInvalid("journal store not configured")
	}
	deleted, err := s.store.PurgeEntries(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to purge journal")
	}
	log.Printf("[JournalService] purged %d entries", deleted)
	return deleted, nil
}

func (s *JournalService) saveOffset(ctx context.Context, previous, next int64) error {
	if next == previous {
		return nil
	}
	if err := s.offsets.SaveOffset(ctx, next); err != nil {
		log.Printf("[JournalService] WARNING: offset %d not saved: %v", next, err)
		return err
	}
	return nil
}

// confirm failures are logged only; the reply is already stored
func (s *JournalService) confirm(ctx context.Context, updateID int64) {
	if s.replier == nil {
		return
	}
	if err := s.replier.SendMessage(ctx, s.config.Confirmation); err != nil {
		log.Printf("[JournalService] WARNING: confirmation for update %d failed: %v", updateID, err)
	}
}

// JournalTask adapts the listener to the scheduler
func JournalTask(svc *JournalService) Task {
	return func(ctx context.Context) (Outcome, error) {
		result, err := svc.PollOnce(ctx)
		if err != nil && ctx.Err() != nil {
			// shutdown interrupted the long poll
			return OutcomeSkipped, nil
		}
		if err != nil {
			return OutcomeDone, err
		}
		return outcomeOf(result.Saved == 0, false), nil
	}
}
