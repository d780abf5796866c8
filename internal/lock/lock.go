// Package lock provides the in-process session lock table. A held lock
// means the session has a generation somewhere between submit and terminal
// status, so further submits for it must be rejected.
package lock

import (
	"sync"
	"time"
)

// Table tracks which sessions currently have a request in flight. It lives
// and dies with the process, like the job queue whose entries it guards.
type Table struct {
	mu   sync.Mutex
	held map[string]time.Time
}

// New returns an empty lock table.
func New() *Table {
	return &Table{held: make(map[string]time.Time)}
}

// Acquire takes the lock for a session. Returns false if the session
// already holds one.
func (t *Table) Acquire(sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.held[sessionID]; ok {
		return false
	}
	t.held[sessionID] = time.Now()
	return true
}

// Release frees the lock for a session. Releasing a lock that is not held
// is a no-op: the worker and the recovery reconciler may both release the
// same lock, whichever gets there first.
func (t *Table) Release(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.held, sessionID)
}

// Held reports whether the session currently holds a lock.
func (t *Table) Held(sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.held[sessionID]
	return ok
}

// AcquiredAt returns when the session's lock was taken, and whether it is
// held at all.
func (t *Table) AcquiredAt(sessionID string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.held[sessionID]
	return at, ok
}

// Len returns the number of held locks.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.held)
}
