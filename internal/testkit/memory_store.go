package testkit

import (
	"context"
	"sort"
	"sync"

	"sleepreport/domain/core"
	"sleepreport/domain/journal"
	"sleepreport/domain/sleep"
	"sleepreport/ports"
)

// MemoryStore is an in-process SleepStore. Saves upsert by timestamp. It also
// keeps a journal and an update offset for listener tests.
type MemoryStore struct {
	mu         sync.RWMutex
	aggregates map[int64]sleep.AggregateRecord
	samples    map[int64]sleep.SamplePoint
	sentKey    core.SleepKey
	entries    map[int64]journal.Entry
	offset     int64
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		aggregates: make(map[int64]sleep.AggregateRecord),
		samples:    make(map[int64]sleep.SamplePoint),
		entries:    make(map[int64]journal.Entry),
	}
}

// NewMemoryStoreWith creates a store preloaded with ds
func NewMemoryStoreWith(ds Dataset) *MemoryStore {
	s := NewMemoryStore()
	_, _ = s.SaveAggregates(context.Background(), ds.Aggregates)
	_, _ = s.SaveSamples(context.Background(), ds.Samples)
	return s
}

var (
	_ ports.SleepStore   = (*MemoryStore)(nil)
	_ ports.SentKeyStore = (*MemoryStore)(nil)
	_ ports.JournalStore = (*MemoryStore)(nil)
	_ ports.OffsetStore  = (*MemoryStore)(nil)
)

// FetchAggregates returns records with start <= time <= end, oldest first
func (s *MemoryStore) FetchAggregates(ctx context.Context, start, end core.Instant) ([]sleep.AggregateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]sleep.AggregateRecord, 0)
	for _, rec := range s.aggregates {
		if within(rec.Timestamp, start, end) {
			out = append(out, rec)
		}
	}
	sleep.SortAggregates(out)
	return out, nil
}

// FetchSamples returns samples with start <= time <= end, oldest first
func (s *MemoryStore) FetchSamples(ctx context.Context, start, end core.Instant) ([]sleep.SamplePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]sleep.SamplePoint, 0)
	for _, p := range s.samples {
		if within(p.Timestamp, start, end) {
			out = append(out, p)
		}
	}
	sortSamples(out)
	return out, nil
}

// SaveAggregates implements ports.SleepDataSink
func (s *MemoryStore) SaveAggregates(ctx context.Context, records []sleep.AggregateRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := 0
	for _, rec := range records {
		if rec.Timestamp.IsZero() {
			continue
		}
		s.aggregates[rec.Timestamp.Time().UnixNano()] = rec
		saved++
	}
	return saved, nil
}

// SaveSamples implements ports.SleepDataSink
func (s *MemoryStore) SaveSamples(ctx context.Context, samples []sleep.SamplePoint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := 0
	for _, p := range samples {
		if p.Timestamp.IsZero() {
			continue
		}
		s.samples[p.Timestamp.Time().UnixNano()] = p
		saved++
	}
	return saved, nil
}

// LastSentKey implements ports.SentKeyStore
func (s *MemoryStore) LastSentKey(ctx context.Context) (core.SleepKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sentKey, nil
}

// SaveSentKey implements ports.SentKeyStore
func (s *MemoryStore) SaveSentKey(ctx context.Context, key core.SleepKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentKey = key
	return nil
}

// SaveEntry implements ports.JournalStore
func (s *MemoryStore) SaveEntry(ctx context.Context, entry journal.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.UpdateID]; ok {
		return false, nil
	}
	s.entries[entry.UpdateID] = entry
	return true, nil
}

// ListEntries returns up to limit entries, newest update first
func (s *MemoryStore) ListEntries(ctx context.Context, limit int) ([]journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]journal.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdateID > out[j].UpdateID })
	if limit < 0 {
		limit = 0
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PurgeEntries implements ports.JournalStore
func (s *MemoryStore) PurgeEntries(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = make(map[int64]journal.Entry)
	return n, nil
}

// LoadOffset implements ports.OffsetStore
func (s *MemoryStore) LoadOffset(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offset, nil
}

// SaveOffset implements ports.OffsetStore
func (s *MemoryStore) SaveOffset(ctx context.Context, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = offset
	return nil
}

func within(ts, start, end core.Instant) bool {
	return !ts.Before(start) && !ts.After(end)
}

func sortSamples(samples []sleep.SamplePoint) {
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
}
