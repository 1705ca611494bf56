package journal

import (
	"strings"

	"sleepreport/domain/core"
)

// MessageKind tells stored text from a placeholder for photos, stickers and
// other non-text replies
type MessageKind string

const (
	KindText    MessageKind = "text"
	KindNonText MessageKind = "non_text"
)

const (
	// MaxTextLength caps a stored reply, counted in characters
	MaxTextLength = 512

	// NonTextPlaceholder is stored instead of non-text content
	NonTextPlaceholder = "[non-text message]"
)

// Update is one item returned by a long poll. Message is nil for update
// kinds the journal does not handle (edits, reactions, callbacks).
type Update struct {
	ID      int64
	Message *Message
}

// Message is an inbound chat message reduced to what the journal keeps
type Message struct {
	MessageID    core.Optional[int64]
	ChatID       string
	FromID       string
	FromUsername string
	FromName     string
	Text         string
}

// Entry is one stored check-in reply. UpdateID is unique per bot, so storing
// the same update twice is a no-op.
type Entry struct {
	UpdateID     int64                `json:"update_id"`
	ReceivedAt   core.Instant         `json:"received_at"`
	ChatID       string               `json:"chat_id"`
	FromID       string               `json:"from_id"`
	FromUsername string               `json:"from_username"`
	FromName     string               `json:"from_name"`
	MessageID    core.Optional[int64] `json:"message_id"`
	Kind         MessageKind          `json:"msg_type"`
	Text         string               `json:"text"`
}

// NewEntry cleans msg into an entry received at receivedAt
func NewEntry(updateID int64, msg Message, receivedAt core.Instant) Entry {
	entry := Entry{
		UpdateID:     updateID,
		ReceivedAt:   receivedAt,
		ChatID:       msg.ChatID,
		FromID:       msg.FromID,
		FromUsername: msg.FromUsername,
		FromName:     msg.FromName,
		MessageID:    msg.MessageID,
		Kind:         KindNonText,
		Text:         NonTextPlaceholder,
	}
	if strings.TrimSpace(msg.Text) != "" {
		entry.Kind = KindText
		entry.Text = Sanitize(msg.Text, MaxTextLength)
	}
	return entry
}

// Sanitize drops control characters, collapses whitespace runs to a single
// space and keeps at most maxLen characters
func Sanitize(s string, maxLen int) string {
	s = strings.Map(func(r rune) rune {
		if isDroppedControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	if maxLen > 0 {
		if runes := []rune(s); len(runes) > maxLen {
			s = string(runes[:maxLen])
		}
	}
	return s
}

// isDroppedControl keeps tab, newline and carriage return so they collapse
// into spaces instead of gluing words together
func isDroppedControl(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return false
	case r < 0x20, r == 0x7f:
		return true
	}
	return false
}
