package ksync

import (
	"testing"
	"time"

	"github.com/rvkernel/core/internal/task"
)

func TestTryLockSucceedsOnceThenFails(t *testing.T) {
	var m Mutex
	if !m.TryLock() {
		t.Fatal("first TryLock should succeed on an unlocked Mutex")
	}
	if m.TryLock() {
		t.Fatal("second TryLock should fail while still held")
	}
}

func TestUnlockAllowsReacquire(t *testing.T) {
	var m Mutex
	m.TryLock()
	m.Unlock()
	if !m.TryLock() {
		t.Fatal("TryLock should succeed again after Unlock")
	}
}

func TestLockStateCompletesWhenUnlocked(t *testing.T) {
	var m Mutex
	e := task.New()
	go e.RunHart()
	defer e.Stop()

	done := make(chan struct{})
	inner := m.Lock()
	var outer task.State
	outer = task.FromFunc(func(tk *task.Task) (task.State, bool) {
		next, ready := inner.Poll(tk)
		if ready {
			close(done)
			return nil, true
		}
		inner = next
		return outer, false
	})
	e.Spawn(outer)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Lock on an unlocked Mutex never completed")
	}
	if !m.locked {
		t.Fatal("Mutex should be held after Lock completes")
	}
}

func TestLockSuspendsThenAcquiresOnUnlock(t *testing.T) {
	var m Mutex
	m.TryLock()

	e := task.New()
	go e.RunHart()
	defer e.Stop()

	done := make(chan struct{})
	inner := m.Lock()
	var outer task.State
	outer = task.FromFunc(func(tk *task.Task) (task.State, bool) {
		next, ready := inner.Poll(tk)
		if ready {
			close(done)
			return nil, true
		}
		inner = next
		return outer, false
	})
	e.Spawn(outer)

	select {
	case <-done:
		t.Fatal("Lock completed while the mutex was still held")
	case <-time.After(50 * time.Millisecond):
	}

	m.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Lock never completed after Unlock")
	}
}
