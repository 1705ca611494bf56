package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"sleepreport/domain/core"
	"sleepreport/domain/journal"
	"sleepreport/ports"

	"github.com/tidwall/gjson"
)

// JournalFile is the default journal name next to the exports
const JournalFile = "SleepJournal.jsonl"

// JournalStore appends check-in replies to a JSONL file, one entry per line
type JournalStore struct {
	mu   sync.Mutex
	path string
}

// NewJournalStore keeps the journal at path
func NewJournalStore(path string) ports.JournalStore {
	return &JournalStore{path: path}
}

// SaveEntry appends entry unless a line with the same update ID exists
func (s *JournalStore) SaveEntry(ctx context.Context, entry journal.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readAll()
	if err != nil {
		return false, err
	}
	for _, e := range existing {
		if e.UpdateID == entry.UpdateID {
			return false, nil
		}
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("failed to encode journal entry %d: %w", entry.UpdateID, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create journal dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return false, fmt.Errorf("failed to append journal entry %d: %w", entry.UpdateID, err)
	}
	return true, nil
}

// ListEntries returns up to limit entries, newest first
func (s *JournalStore) ListEntries(ctx context.Context, limit int) ([]journal.Entry, error) {
	s.mu.Lock()
	entries, err := s.readAll()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.After(b.ReceivedAt)
		}
		return a.UpdateID > b.UpdateID
	})
	if limit < 0 {
		limit = 0
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// PurgeEntries removes the journal file and reports how many entries it held
func (s *JournalStore) PurgeEntries(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return 0, err
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("failed to purge journal: %w", err)
	}
	return len(entries), nil
}

// readAll skips lines that do not decode to an entry. A missing file is empty.
func (s *JournalStore) readAll() ([]journal.Entry, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return []journal.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	entries := make([]journal.Entry, 0)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		entry, err := decodeEntry(line)
		if err != nil {
			log.Printf("[JournalStore] skipping %s:%d: %v", s.path, lineNo, err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}

func decodeEntry(line []byte) (journal.Entry, error) {
	if !gjson.ValidBytes(line) {
		return journal.Entry{}, fmt.Errorf("invalid JSON")
	}
	doc := gjson.ParseBytes(line)

	id := doc.Get("update_id")
	if id.Type != gjson.Number {
		return journal.Entry{}, fmt.Errorf("missing update_id")
	}
	receivedAt, err := core.NormalizeTime(doc.Get("received_at").String())
	if err != nil {
		return journal.Entry{}, err
	}

	entry := journal.Entry{
		UpdateID:     id.Int(),
		ReceivedAt:   receivedAt,
		ChatID:       doc.Get("chat_id").String(),
		FromID:       doc.Get("from_id").String(),
		FromUsername: doc.Get("from_username").String(),
		FromName:     doc.Get("from_name").String(),
		Kind:         journal.MessageKind(doc.Get("msg_type").String()),
		Text:         doc.Get("text").String(),
	}
	if msgID := doc.Get("message_id"); msgID.Type == gjson.Number {
		entry.MessageID = core.Some(msgID.Int())
	}
	return entry, nil
}
