// Package refcount provides the atomic reference count embedded in
// every VFS entity that has explicit shared-ownership semantics (File,
// Dentry, Pipe, §3 "Ownership"): File holds strong ownership of
// its Dentry and Inode, a pipe's writer-end closure happens when the
// last writer reference drops, and so on.
//
// Grounded on gvisor.dev/gvisor/pkg/refs.AtomicRefCount, trimmed of its
// weak-reference bookkeeping (this kernel expresses "upward" references
// (inode→superblock, dentry→parent, task→executor) as plain Go
// pointers instead of a WeakRef type, since Go's tracing GC already
// breaks the reference cycle that Rc/Arc would otherwise leak on; see
// DESIGN.md).
package refcount

import "sync/atomic"

// Count is embedded (by value) in any type needing IncRef/DecRef
// semantics. The zero value holds no reference; Init sets it to one
// live reference, matching AtomicRefCount's convention that
// construction implies one reference for the caller.
type Count struct {
	n int64
}

// Init sets the count to one reference, held by the caller. Call once
// at construction.
func (c *Count) Init() { atomic.StoreInt64(&c.n, 1) }

// IncRef adds a reference. Panics if the count had already reached
// zero, mirroring AtomicRefCount.IncRef's "incrementing a dead object"
// sanity check.
func (c *Count) IncRef() {
	if v := atomic.AddInt64(&c.n, 1); v <= 1 {
		panic("refcount: IncRef on a count that was already zero")
	}
}

// TryIncRef adds a reference unless the count has already reached zero,
// for a caller racing with a concurrent DecRef.
func (c *Count) TryIncRef() bool {
	for {
		v := atomic.LoadInt64(&c.n)
		if v <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(&c.n, v, v+1) {
			return true
		}
	}
}

// DecRef removes a reference and invokes destroy if this was the last
// one. destroy may be nil.
func (c *Count) DecRef(destroy func()) {
	v := atomic.AddInt64(&c.n, -1)
	if v < 0 {
		panic("refcount: DecRef past zero")
	}
	if v == 0 && destroy != nil {
		destroy()
	}
}

// Load returns the current reference count, racy by nature (valid only
// under external synchronization or for diagnostics).
func (c *Count) Load() int64 { return atomic.LoadInt64(&c.n) }
