package lock

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAcquire_Success(t *testing.T) {
	table := New()

	if !table.Acquire("sess-1") {
		t.Fatal("Acquire on empty table should succeed")
	}
	if !table.Held("sess-1") {
		t.Error("Held = false after Acquire, want true")
	}
	if got := table.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
}

func TestAcquire_Blocked(t *testing.T) {
	table := New()

	if !table.Acquire("sess-1") {
		t.Fatal("first Acquire should succeed")
	}
	if table.Acquire("sess-1") {
		t.Fatal("second Acquire on same session should fail")
	}
}

func TestAcquire_DifferentSessions(t *testing.T) {
	table := New()

	if !table.Acquire("sess-1") {
		t.Fatal("first Acquire should succeed")
	}
	if !table.Acquire("sess-2") {
		t.Fatal("Acquire on a different session should succeed")
	}
	if got := table.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestRelease_AllowsReacquire(t *testing.T) {
	table := New()

	table.Acquire("sess-1")
	table.Release("sess-1")

	if table.Held("sess-1") {
		t.Error("Held = true after Release, want false")
	}
	if !table.Acquire("sess-1") {
		t.Fatal("Acquire after Release should succeed")
	}
}

func TestRelease_NotHeldIsNoOp(t *testing.T) {
	table := New()

	// The worker and the reconciler can both release the same lock; the
	// second release must not disturb anything.
	table.Release("sess-never-held")

	table.Acquire("sess-1")
	table.Release("sess-1")
	table.Release("sess-1")
	if got := table.Len(); got != 0 {
		t.Errorf("Len() = %d after double release, want 0", got)
	}
}

func TestAcquiredAt(t *testing.T) {
	table := New()

	before := time.Now()
	table.Acquire("sess-1")
	after := time.Now()

	at, ok := table.AcquiredAt("sess-1")
	if !ok {
		t.Fatal("AcquiredAt ok = false for held lock, want true")
	}
	if at.Before(before) || at.After(after) {
		t.Errorf("AcquiredAt = %v, want between %v and %v", at, before, after)
	}

	if _, ok := table.AcquiredAt("sess-2"); ok {
		t.Error("AcquiredAt ok = true for unheld session, want false")
	}
}

func TestConcurrent_Acquire_OneWinner(t *testing.T) {
	table := New()

	const goroutines = 10
	var winners atomic.Int32
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if table.Acquire("sess-race") {
				winners.Add(1)
			}
		}()
	}

	wg.Wait()

	if got := winners.Load(); got != 1 {
		t.Errorf("concurrent acquire winners = %d, want exactly 1", got)
	}
}

func TestConcurrent_ManySessions(t *testing.T) {
	table := New()

	const sessions = 50
	var wg sync.WaitGroup
	wg.Add(sessions)

	for i := 0; i < sessions; i++ {
		go func(idx int) {
			defer wg.Done()
			id := fmt.Sprintf("sess-%d", idx)
			if !table.Acquire(id) {
				t.Errorf("Acquire(%q) failed, distinct sessions should never conflict", id)
			}
		}(i)
	}

	wg.Wait()

	if got := table.Len(); got != sessions {
		t.Errorf("Len() = %d, want %d", got, sessions)
	}
}
