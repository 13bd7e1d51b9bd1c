package progress

// StageCount is the fixed number of pipeline stages.
const StageCount = 6

// StageStatus is the lifecycle of a single pipeline stage.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageActive    StageStatus = "active"
	StageCompleted StageStatus = "completed"
)

// stageNames are the fixed six steps, ordinal 1..6.
var stageNames = [StageCount]string{
	"extract", "classify", "translate", "enrich", "illustrate", "finalize",
}

// StageName returns the name of the stage at the given ordinal, "" when out
// of range.
func StageName(ordinal int) string {
	if ordinal < 1 || ordinal > StageCount {
		return ""
	}
	return stageNames[ordinal-1]
}

// StageRecord is one row of the ledger snapshot.
type StageRecord struct {
	Ordinal int         `json:"ordinal"`
	Name    string      `json:"name"`
	Status  StageStatus `json:"status"`
	Message string      `json:"message"`
}

// StageLedger records the six stages' statuses and progress messages. At most
// one stage is active at a time and the active ordinal never regresses:
// out-of-order advances from a reordered or duplicated stream are refused,
// not applied. Not safe for concurrent use; the coordinator serializes
// access.
type StageLedger struct {
	stages   [StageCount]StageRecord
	active   int
	terminal bool
}

// NewStageLedger returns a ledger in its initial state: stage 1 active,
// the rest pending.
func NewStageLedger() *StageLedger {
	l := &StageLedger{}
	l.Reset()
	return l
}

// Advance marks all stages below ordinal completed, the named stage active
// and later stages pending. It returns ErrInvalidTransition when ordinal is
// out of range or behind the currently active stage.
func (l *StageLedger) Advance(ordinal int, message string) error {
	if ordinal < 1 || ordinal > StageCount {
		return ErrInvalidTransition
	}
	if ordinal < l.active {
		return ErrInvalidTransition
	}
	for i := range l.stages {
		switch {
		case l.stages[i].Ordinal < ordinal:
			l.stages[i].Status = StageCompleted
		case l.stages[i].Ordinal == ordinal:
			l.stages[i].Status = StageActive
			l.stages[i].Message = message
		default:
			l.stages[i].Status = StagePending
		}
	}
	l.active = ordinal
	return nil
}

// Complete marks the named stage completed. Completing stage 6 makes the
// whole ledger terminal.
func (l *StageLedger) Complete(ordinal int) error {
	if ordinal < 1 || ordinal > StageCount {
		return ErrInvalidTransition
	}
	l.stages[ordinal-1].Status = StageCompleted
	if ordinal == StageCount {
		l.terminal = true
	}
	return nil
}

// Snapshot returns a copy of the six stage records in ordinal order.
func (l *StageLedger) Snapshot() []StageRecord {
	out := make([]StageRecord, StageCount)
	copy(out, l.stages[:])
	return out
}

// ActiveOrdinal returns the currently active ordinal, or 0 once terminal.
func (l *StageLedger) ActiveOrdinal() int {
	if l.terminal {
		return 0
	}
	return l.active
}

// CompletedCount returns how many stages are completed.
func (l *StageLedger) CompletedCount() int {
	n := 0
	for _, s := range l.stages {
		if s.Status == StageCompleted {
			n++
		}
	}
	return n
}

// Terminal reports whether all six stages completed.
func (l *StageLedger) Terminal() bool {
	return l.terminal
}

// Reset returns the ledger to its initial state for a fresh session.
func (l *StageLedger) Reset() {
	for i := range l.stages {
		l.stages[i] = StageRecord{
			Ordinal: i + 1,
			Name:    stageNames[i],
			Status:  StagePending,
		}
	}
	l.stages[0].Status = StageActive
	l.active = 1
	l.terminal = false
}
