// Package pipe implements the anonymous pipe (§4.6, C8): a fixed-size
// ring buffer shared by a PipeReadFile and a PipeWriteFile, with
// yield-poll suspension on the read side.
//
// Grounded on gvisor.dev/gvisor/pkg/sentry/kernel/pipe.Pipe (buffered
// byte queue + reader/writer-count bookkeeping + readiness-driven
// waiter.Queue wakeups), adapted to this kernel's stackless Task/State
// suspension model: where the original blocks a goroutine on a
// sync.Cond, a PipeReadFile's Read returns a task.State that re-polls
// itself until data or closure arrives. Writer-count bookkeeping reuses
// internal/refcount directly rather than a hand-rolled counter, since
// "last reference dropped" is exactly refcount.Count's DecRef contract.
package pipe

import (
	"sync"

	"github.com/rvkernel/core/internal/errno"
	"github.com/rvkernel/core/internal/ksync"
	"github.com/rvkernel/core/internal/refcount"
	"github.com/rvkernel/core/internal/task"
)

const defaultCapacity = 64 * 1024

// Pipe is the shared state behind one pipe(2)/pipe2(2) pair (§4.6).
type Pipe struct {
	mu     sync.Mutex
	ring   *ksync.RingBuffer
	closed bool // set once the last writer closes (§4.6 "close semantics")

	readWaiters ksync.WaitList
}

// New constructs a Pipe with the given ring capacity in bytes (0 means
// defaultCapacity).
func New(capacity int) *Pipe {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Pipe{ring: ksync.NewRingBuffer(capacity)}
}

// PipeReadFile is the read half of a pipe; it implements only read
// (§4.6 "PipeReadFile implements only read").
type PipeReadFile struct {
	refcount.Count
	p        *Pipe
	nonblock bool
}

// SetNonblock toggles O_NONBLOCK read semantics (§6 pipe2): once set,
// Read reports EAGAIN immediately on an empty, still-open pipe instead
// of suspending the task.
func (f *PipeReadFile) SetNonblock(nb bool) { f.nonblock = nb }

// PipeWriteFile is the write half of a pipe; it implements only write
// (§4.6 "PipeWriteFile implements only write").
type PipeWriteFile struct {
	refcount.Count
	p *Pipe
}

// NewPair constructs a connected (PipeReadFile, PipeWriteFile), as used
// by the pipe2 syscall (C10). Each end starts with one live reference,
// dup'd via the fd table's generic IncRef/Close path.
func NewPair(capacity int) (*PipeReadFile, *PipeWriteFile) {
	p := New(capacity)
	r := &PipeReadFile{p: p}
	w := &PipeWriteFile{p: p}
	r.Count.Init()
	w.Count.Init()
	return r, w
}

// Read returns a task.State that, once polled to completion, has filled
// buf with up to min(len(buf), ring.len) bytes and set out to the
// result (§4.6 "Read"). While the ring is empty and the pipe is not yet
// closed, the task yields; it is woken by a subsequent Write or by the
// last writer's Close.
func (f *PipeReadFile) Read(buf []byte, out *ReadOutcome) task.State {
	p := f.p
	var self task.State
	self = task.FromFunc(func(t *task.Task) (task.State, bool) {
		p.mu.Lock()
		if p.ring.Len() > 0 {
			n := p.ring.Read(buf)
			p.mu.Unlock()
			out.N, out.Err = n, nil
			return nil, true
		}
		if p.closed {
			p.mu.Unlock()
			out.N, out.Err = 0, nil // empty + closed => EOF (§8 boundary behavior)
			return nil, true
		}
		if t.Cancelled() {
			p.mu.Unlock()
			out.N, out.Err = 0, errno.EINTR
			return nil, true
		}
		if f.nonblock {
			p.mu.Unlock()
			out.N, out.Err = 0, errno.EAGAIN
			return nil, true
		}
		p.readWaiters.Add(t.NewWaker())
		p.mu.Unlock()
		return self, false
	})
	return self
}

// ReadOutcome receives the result of a PipeReadFile.Read once its State
// completes.
type ReadOutcome struct {
	N   int
	Err *errno.Errno
}

// Write copies up to min(space_left, len(buf)) bytes into the ring and
// returns the count written; it never suspends even when the ring is
// full, matching this pipe's documented behavior rather
// than adding blocking or EAGAIN (§4.6, §9 open question: "a production
// design should block or return EAGAIN when full").
func (f *PipeWriteFile) Write(buf []byte) (int, *errno.Errno) {
	p := f.p
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, errno.EPIPE
	}
	n := p.ring.Write(buf)
	p.mu.Unlock()
	if n > 0 {
		p.readWaiters.NotifyAll()
	}
	return n, nil
}

// Close drops this write end's reference; once the last PipeWriteFile
// reference is gone, the pipe's closed flag is set and any parked
// readers are woken to observe EOF (§4.6 "Close semantics").
func (f *PipeWriteFile) Close() {
	f.Count.DecRef(func() {
		f.p.mu.Lock()
		f.p.closed = true
		f.p.mu.Unlock()
		f.p.readWaiters.NotifyAll()
	})
}

// Close on the read side releases this reference; a pipe has no
// reader-count dependent behavior here, so there is no destroy callback.
func (f *PipeReadFile) Close() {
	f.Count.DecRef(nil)
}
