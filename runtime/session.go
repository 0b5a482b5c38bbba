package runtime

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// SessionCounters is the `n_sessions` atomic counter spec.md §5 lists
// alongside the id allocators, plus the factory for the `Session` identity
// that wiring layer (cozo.go) attaches to every cloned database handle
// (SPEC_FULL.md's "Session / view-relation identifiers" wiring entry).
type SessionCounters struct {
	nSessions atomic.Int64
}

func NewSessionCounters() *SessionCounters { return &SessionCounters{} }

// Count returns the current number of live sessions.
func (c *SessionCounters) Count() int64 { return c.nSessions.Load() }

// NewSession mints a fresh session identity and increments the live count.
// Grounded on original_source/src/runtime/db.rs's `new_session`
// (`self.n_sessions.fetch_add(1, Ordering::AcqRel)`), with `uuid.New()`
// standing in for the Rust impl's bare `usize` session_id — a random UUID
// rather than a sequence number avoids reusing an id that a just-closed
// session's callers might still reference in logs.
func (c *SessionCounters) NewSession() *Session {
	c.nSessions.Add(1)
	return &Session{ID: uuid.New(), counters: c}
}

// Session identifies one client of a shared database handle. Sessions are
// cheap to clone (spec.md §5: "the handle is shared via reference
// counting") but must be closed exactly once to keep n_sessions accurate.
type Session struct {
	ID       uuid.UUID
	counters *SessionCounters
	closed   atomic.Bool
}

// Close decrements the live-session count. Idempotent.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.counters.nSessions.Add(-1)
	}
}
