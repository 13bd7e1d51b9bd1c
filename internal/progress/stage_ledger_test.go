package progress

import (
	"errors"
	"testing"
)

func TestStageLedgerInitialState(t *testing.T) {
	l := NewStageLedger()

	snap := l.Snapshot()
	if len(snap) != StageCount {
		t.Fatalf("snapshot length = %d, want %d", len(snap), StageCount)
	}
	if snap[0].Status != StageActive {
		t.Errorf("stage 1 status = %s, want active", snap[0].Status)
	}
	for _, s := range snap[1:] {
		if s.Status != StagePending {
			t.Errorf("stage %d status = %s, want pending", s.Ordinal, s.Status)
		}
	}
	if l.Terminal() {
		t.Error("fresh ledger should not be terminal")
	}
}

func TestStageLedgerAdvance(t *testing.T) {
	l := NewStageLedger()

	if err := l.Advance(3, "Translating mains"); err != nil {
		t.Fatalf("Advance(3) error: %v", err)
	}

	snap := l.Snapshot()
	for _, s := range snap {
		switch {
		case s.Ordinal < 3:
			if s.Status != StageCompleted {
				t.Errorf("stage %d = %s, want completed", s.Ordinal, s.Status)
			}
		case s.Ordinal == 3:
			if s.Status != StageActive {
				t.Errorf("stage 3 = %s, want active", s.Status)
			}
			if s.Message != "Translating mains" {
				t.Errorf("stage 3 message = %q", s.Message)
			}
		default:
			if s.Status != StagePending {
				t.Errorf("stage %d = %s, want pending", s.Ordinal, s.Status)
			}
		}
	}
}

func TestStageLedgerRefusesRegression(t *testing.T) {
	l := NewStageLedger()

	if err := l.Advance(3, "translate"); err != nil {
		t.Fatalf("Advance(3) error: %v", err)
	}
	err := l.Advance(2, "classify")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Advance(2) after Advance(3) error = %v, want ErrInvalidTransition", err)
	}
	// Stage 3 remains active.
	if got := l.Snapshot()[2].Status; got != StageActive {
		t.Errorf("stage 3 after refused regression = %s, want active", got)
	}
}

func TestStageLedgerAdvanceValidation(t *testing.T) {
	tests := []struct {
		name    string
		ordinal int
		wantErr bool
	}{
		{"zero", 0, true},
		{"negative", -1, true},
		{"too large", 7, true},
		{"lower bound", 1, false},
		{"upper bound", 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewStageLedger()
			err := l.Advance(tt.ordinal, "msg")
			if (err != nil) != tt.wantErr {
				t.Errorf("Advance(%d) error = %v, wantErr %v", tt.ordinal, err, tt.wantErr)
			}
		})
	}
}

func TestStageLedgerDuplicateAdvanceIsIdempotent(t *testing.T) {
	l := NewStageLedger()

	if err := l.Advance(2, "classify"); err != nil {
		t.Fatalf("first Advance(2): %v", err)
	}
	if err := l.Advance(2, "classify"); err != nil {
		t.Fatalf("duplicate Advance(2): %v", err)
	}
	if got := l.Snapshot()[1].Status; got != StageActive {
		t.Errorf("stage 2 = %s, want active", got)
	}
	if got := l.CompletedCount(); got != 1 {
		t.Errorf("completed count = %d, want 1", got)
	}
}

func TestStageLedgerTerminal(t *testing.T) {
	l := NewStageLedger()

	for i := 1; i <= StageCount; i++ {
		if err := l.Advance(i, "msg"); err != nil {
			t.Fatalf("Advance(%d): %v", i, err)
		}
		if err := l.Complete(i); err != nil {
			t.Fatalf("Complete(%d): %v", i, err)
		}
	}
	if !l.Terminal() {
		t.Error("ledger should be terminal after completing all six stages")
	}
	if got := l.CompletedCount(); got != StageCount {
		t.Errorf("completed count = %d, want %d", got, StageCount)
	}
}

func TestStageLedgerCompleteValidation(t *testing.T) {
	l := NewStageLedger()
	if err := l.Complete(0); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Complete(0) = %v, want ErrInvalidTransition", err)
	}
	if err := l.Complete(7); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Complete(7) = %v, want ErrInvalidTransition", err)
	}
}

func TestStageLedgerReset(t *testing.T) {
	l := NewStageLedger()
	for i := 1; i <= StageCount; i++ {
		l.Advance(i, "msg")
		l.Complete(i)
	}

	l.Reset()

	if l.Terminal() {
		t.Error("reset ledger should not be terminal")
	}
	snap := l.Snapshot()
	if snap[0].Status != StageActive {
		t.Errorf("stage 1 after reset = %s, want active", snap[0].Status)
	}
	for _, s := range snap[1:] {
		if s.Status != StagePending {
			t.Errorf("stage %d after reset = %s, want pending", s.Ordinal, s.Status)
		}
	}
}

func TestStageLedgerSnapshotIsCopy(t *testing.T) {
	l := NewStageLedger()
	snap := l.Snapshot()
	snap[0].Status = StageCompleted

	if l.Snapshot()[0].Status != StageActive {
		t.Error("mutating a snapshot must not affect the ledger")
	}
}
