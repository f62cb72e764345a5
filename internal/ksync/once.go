package ksync

import "sync/atomic"

// Once is a one-shot completion gate: the first caller to Fire performs
// the transition, every other caller (before or after) observes Done.
// Grounded on stdlib sync.Once's single-field CAS discipline, but
// exposed as a plain flag (not a Do(fn) wrapper) since the core's
// one-shot uses ("superblock root installed exactly once"
// (set_root_dentry, §4.3.1), "mount table entry populated once") are
// naturally expressed as a guarded assignment rather than a deferred
// function call.
type Once struct {
	done int32
}

// Fire reports whether this call is the one that should perform the
// one-time transition (true exactly once across the Once's lifetime).
func (o *Once) Fire() bool {
	return atomic.CompareAndSwapInt32(&o.done, 0, 1)
}

// Done reports whether Fire has already succeeded once.
func (o *Once) Done() bool {
	return atomic.LoadInt32(&o.done) != 0
}
