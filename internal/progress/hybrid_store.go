package progress

import "time"

// Source tags a hybrid entry with where its value came from.
type Source string

const (
	SourceStream Source = "stream"
	SourceStore  Source = "store"
)

// HybridEntry is a value tagged with its originating source and logical
// timestamp, used to decide which of two candidates for the same key is
// authoritative.
type HybridEntry struct {
	Key        string
	Value      any
	Source     Source
	ObservedAt time.Time
}

// HybridStore keys candidate entries by logical data key and resolves
// conflicts on write: the entry with the latest ObservedAt is retained, and
// the durable store wins exact-timestamp ties since it is authoritative once
// written. Losing a race is expected, not an error, so writes report the
// outcome as a bool. Not safe for concurrent use; the coordinator serializes
// access.
type HybridStore struct {
	entries map[string]HybridEntry
}

// NewHybridStore returns an empty store.
func NewHybridStore() *HybridStore {
	return &HybridStore{entries: make(map[string]HybridEntry)}
}

// put applies the resolution rule and reports whether the candidate was
// retained.
func (s *HybridStore) put(key string, value any, source Source, ts time.Time) bool {
	existing, ok := s.entries[key]
	if ok {
		if existing.ObservedAt.After(ts) {
			return false
		}
		if existing.ObservedAt.Equal(ts) && existing.Source == SourceStore {
			return false
		}
	}
	s.entries[key] = HybridEntry{Key: key, Value: value, Source: source, ObservedAt: ts}
	return true
}

// PutFromStream offers a candidate observed on the live push stream.
func (s *HybridStore) PutFromStream(key string, value any, ts time.Time) bool {
	return s.put(key, value, SourceStream, ts)
}

// PutFromStore offers a candidate read from the durable session store.
func (s *HybridStore) PutFromStore(key string, value any, ts time.Time) bool {
	return s.put(key, value, SourceStore, ts)
}

// Get returns the currently retained entry for the key.
func (s *HybridStore) Get(key string) (HybridEntry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// SourceOf reports which source the retained entry came from; ok is false
// when the key is absent. Used for observability surfaces.
func (s *HybridStore) SourceOf(key string) (Source, bool) {
	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	return e.Source, true
}

// Len returns the number of retained entries.
func (s *HybridStore) Len() int {
	return len(s.entries)
}

// Clear drops all entries. Sessions are small and short-lived, so eviction is
// wholesale on reset rather than per-key TTL.
func (s *HybridStore) Clear() {
	s.entries = make(map[string]HybridEntry)
}
