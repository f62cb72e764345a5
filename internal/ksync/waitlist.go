// Package ksync supplies the synchronization primitives C4 names: a
// blocking Mutex that suspends the calling Task's coroutine rather than
// the hart, a busy-wait SpinLock for short hart-local sections, a
// one-shot init-once gate, a fixed-capacity byte RingBuffer, and an
// intrusive WaitList of parked Wakers.
//
// Grounded on gvisor.dev/gvisor/pkg/waiter.Queue (the WaitList below)
// and the generated pipeMutex/fdTableMutex wrappers
// (pkg/sentry/kernel/pipe/pipe_mutex.go, fd_table_mutex.go) for the
// "thin named wrapper around a raw lock" idiom, adapted so contention
// parks a Task instead of blocking a goroutine.
package ksync

import (
	"sync"

	"github.com/rvkernel/core/internal/hal"
)

// WaitList is an intrusive FIFO list of parked Wakers, grounded on
// gVisor's waiter.Queue. Used directly by Mutex and Pipe, and available
// to any component that needs "register a waker, wake them all / wake
// one" semantics (dentry-load completion, signal wait).
type WaitList struct {
	mu      sync.Mutex
	wakers  []hal.Waker
}

// Add registers w to be woken by a future NotifyOne/NotifyAll.
func (l *WaitList) Add(w hal.Waker) {
	l.mu.Lock()
	l.wakers = append(l.wakers, w)
	l.mu.Unlock()
}

// NotifyOne wakes and removes the oldest registered waker, if any.
func (l *WaitList) NotifyOne() {
	l.mu.Lock()
	var w hal.Waker
	if len(l.wakers) > 0 {
		w = l.wakers[0]
		l.wakers = l.wakers[1:]
	}
	l.mu.Unlock()
	if w != nil {
		w.Wake()
	}
}

// NotifyAll wakes and removes every registered waker.
func (l *WaitList) NotifyAll() {
	l.mu.Lock()
	ws := l.wakers
	l.wakers = nil
	l.mu.Unlock()
	for _, w := range ws {
		w.Wake()
	}
}

// Empty reports whether no waker is currently parked. Racy by nature
// (used only for diagnostics), never for correctness decisions.
func (l *WaitList) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.wakers) == 0
}
