package ksync

import (
	"sync"

	"github.com/rvkernel/core/internal/task"
)

// Mutex is a blocking mutex whose contention path suspends the calling
// Task's coroutine (§4.3 "C4 Synchronization primitives: Mutex
// (blocking)") rather than the underlying goroutine/hart, so a hart
// stays available to run other ready tasks while one waits.
//
// Grounded on the generated pipeMutex/fdTableMutex wrappers: a thin
// named type around a raw lock, here re-armed with a WaitList instead
// of a raw sync.Mutex so acquisition can be expressed as a task.State.
type Mutex struct {
	raw     sync.Mutex // protects locked and waiters
	locked  bool
	waiters WaitList
}

// TryLock attempts to acquire m without suspending; lockState's poll
// uses it to take the lock once a waiter is registered.
func (m *Mutex) TryLock() bool {
	m.raw.Lock()
	defer m.raw.Unlock()
	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Unlock releases m and wakes the oldest parked waiter, if any.
func (m *Mutex) Unlock() {
	m.raw.Lock()
	m.locked = false
	m.raw.Unlock()
	m.waiters.NotifyOne()
}

// lockState is the task.State driving a contended Lock.
type lockState struct {
	m          *Mutex
	registered bool
}

func (s *lockState) Poll(t *task.Task) (task.State, bool) {
	if t.Cancelled() {
		return nil, true
	}
	if !s.registered {
		// Register before the final TryLock so a concurrent Unlock
		// between the check and the registration cannot be missed: if
		// it races us, TryLock below simply succeeds instead.
		s.m.raw.Lock()
		s.m.waiters.Add(t.NewWaker())
		s.m.raw.Unlock()
		s.registered = true
	}
	if s.m.TryLock() {
		return nil, true
	}
	return s, false
}

// Lock returns a task.State that completes once m is held. Compose with
// an executor the same way any other suspending operation is: spawn it,
// or poll it inline from within a larger State.
func (m *Mutex) Lock() task.State {
	return &lockState{m: m}
}
