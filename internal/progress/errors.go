package progress

import "errors"

var (
	// ErrInvalidTransition is returned when a stage advance would regress the
	// ledger or names an ordinal outside [1,6]. Callers drop the event and
	// keep going; it is never fatal.
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrSessionNotFound is returned by SessionStore implementations when no
	// durable record exists for the session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreUnavailable is returned by SessionStore implementations on
	// transport failure. Completion reconciliation treats it as best-effort:
	// the coordinator completes on stream data only.
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrSessionActive is returned by StartSession when a session is already
	// running and has not been reset or aborted.
	ErrSessionActive = errors.New("a session is already active")
)
