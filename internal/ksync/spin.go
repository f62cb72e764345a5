package ksync

import "sync/atomic"

// SpinLock is a busy-wait mutex for hart-local critical sections that
// are always short (superblock inode-list insert, dentry children-map
// mutation): no suspension point is crossed while held, so there is
// nothing to hand off to a task.State for. Grounded on
// third_party/gvsync's atomic-CAS lock style (gvisor.dev/gvisor,
// contributed via google-gvisor's own vendored sync primitives).
type SpinLock struct {
	state int32
}

// Lock spins until the lock is acquired. Never suspends a task: per
// §5's locking discipline, no lock may be held across a suspension
// point, and SpinLock enforces that by construction (it has no blocking
// acquire path at all).
func (s *SpinLock) Lock() {
	for !atomic.CompareAndSwapInt32(&s.state, 0, 1) {
		// busy-wait: the critical section is bounded and short.
	}
}

// Unlock releases the lock.
func (s *SpinLock) Unlock() {
	atomic.StoreInt32(&s.state, 0)
}

// TryLock attempts to acquire without spinning.
func (s *SpinLock) TryLock() bool {
	return atomic.CompareAndSwapInt32(&s.state, 0, 1)
}
