package journal

import (
	"strings"
	"testing"

	"sleepreport/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"trims", "  slept badly  ", 512, "slept badly"},
		{"collapses whitespace", "late\n\n coffee\t\tagain", 512, "late coffee again"},
		{"drops control characters", "no\x00isy\x07 room\x7f", 512, "noisy room"},
		{"unicode whitespace", "hot\u00a0room\u2003again", 512, "hot room again"},
		{"caps length in characters", "ééééé", 3, "ééé"},
		{"no cap", "abc", 0, "abc"},
		{"only controls", "\x01\x02", 512, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in, tt.maxLen))
		})
	}
}

func TestNewEntry(t *testing.T) {
	at := core.MustNormalizeTime("2024-03-09T12:00:00Z")
	msg := Message{
		MessageID: core.Some(int64(77)),
		ChatID:    "42",
		FromID:    "7",
		FromName:  "Sam Lee",
		Text:      "  Late   dinner\n",
	}

	entry := NewEntry(1001, msg, at)
	assert.Equal(t, int64(1001), entry.UpdateID)
	assert.Equal(t, KindText, entry.Kind)
	assert.Equal(t, "Late dinner", entry.Text)
	assert.Equal(t, core.Some(int64(77)), entry.MessageID)
	assert.Equal(t, at, entry.ReceivedAt)

	msg.Text = " \n "
	entry = NewEntry(1002, msg, at)
	assert.Equal(t, KindNonText, entry.Kind)
	assert.Equal(t, NonTextPlaceholder, entry.Text)
}

func TestNewEntry_CapsLongReplies(t *testing.T) {
	entry := NewEntry(1, Message{ChatID: "42", Text: strings.Repeat("z", 600)}, core.Unix(1710000000))
	assert.Len(t, entry.Text, MaxTextLength)
}
