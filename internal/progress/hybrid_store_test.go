package progress

import (
	"testing"
	"time"
)

func TestHybridStoreBasicPutGet(t *testing.T) {
	s := NewHybridStore()
	ts := time.Now()

	if !s.PutFromStream("k", "v1", ts) {
		t.Fatal("first write should be retained")
	}
	e, ok := s.Get("k")
	if !ok {
		t.Fatal("entry absent after write")
	}
	if e.Value != "v1" || e.Source != SourceStream {
		t.Errorf("entry = %+v", e)
	}

	if _, ok := s.Get("absent"); ok {
		t.Error("absent key should report ok=false")
	}
}

func TestHybridStoreTieBreakStoreWins(t *testing.T) {
	s := NewHybridStore()
	ts := time.Now()

	if !s.PutFromStream("k", "v1", ts) {
		t.Fatal("stream write rejected")
	}
	if !s.PutFromStore("k", "v2", ts) {
		t.Fatal("store write at equal timestamp must win the tie")
	}

	e, _ := s.Get("k")
	if e.Value != "v2" || e.Source != SourceStore {
		t.Errorf("after tie: entry = %+v, want store/v2", e)
	}
}

func TestHybridStoreStoreTieIsFinal(t *testing.T) {
	s := NewHybridStore()
	ts := time.Now()

	s.PutFromStore("k", "v1", ts)
	if s.PutFromStream("k", "v2", ts) {
		t.Error("stream write at equal timestamp must lose to store")
	}
	if s.PutFromStore("k", "v3", ts) {
		t.Error("repeated store write at equal timestamp is rejected; the first is final")
	}

	e, _ := s.Get("k")
	if e.Value != "v1" {
		t.Errorf("value = %v, want v1", e.Value)
	}
}

func TestHybridStoreFreshnessWins(t *testing.T) {
	s := NewHybridStore()
	ts := time.Now()

	s.PutFromStore("k", "v1", ts)
	if s.PutFromStream("k", "v2", ts.Add(-time.Second)) {
		t.Error("older stream write must be rejected")
	}
	e, _ := s.Get("k")
	if e.Value != "v1" || e.Source != SourceStore {
		t.Errorf("entry = %+v, want store/v1", e)
	}

	// A genuinely fresher stream value supersedes the store.
	if !s.PutFromStream("k", "v3", ts.Add(time.Second)) {
		t.Error("fresher stream write must be retained")
	}
	e, _ = s.Get("k")
	if e.Value != "v3" || e.Source != SourceStream {
		t.Errorf("entry = %+v, want stream/v3", e)
	}
}

func TestHybridStoreEqualTimestampStreamOverStream(t *testing.T) {
	s := NewHybridStore()
	ts := time.Now()

	s.PutFromStream("k", "v1", ts)
	if !s.PutFromStream("k", "v2", ts) {
		t.Error("last writer wins between equal-timestamp stream writes")
	}
	e, _ := s.Get("k")
	if e.Value != "v2" {
		t.Errorf("value = %v, want v2", e.Value)
	}
}

func TestHybridStoreSourceOf(t *testing.T) {
	s := NewHybridStore()
	ts := time.Now()

	if _, ok := s.SourceOf("k"); ok {
		t.Error("SourceOf on absent key should report ok=false")
	}
	s.PutFromStream("k", "v", ts)
	if src, _ := s.SourceOf("k"); src != SourceStream {
		t.Errorf("source = %s, want stream", src)
	}
	s.PutFromStore("k", "v", ts.Add(time.Second))
	if src, _ := s.SourceOf("k"); src != SourceStore {
		t.Errorf("source = %s, want store", src)
	}
}

func TestHybridStoreClear(t *testing.T) {
	s := NewHybridStore()
	ts := time.Now()
	s.PutFromStream("a", 1, ts)
	s.PutFromStore("b", 2, ts)

	s.Clear()

	if s.Len() != 0 {
		t.Errorf("len after clear = %d, want 0", s.Len())
	}
	if _, ok := s.Get("a"); ok {
		t.Error("entry survived clear")
	}
}
