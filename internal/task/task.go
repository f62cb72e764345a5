// Package task implements the stackless cooperative executor (C3):
// a single global ready queue of Tasks multiplexed across harts, where
// each Task is a resumable computation captured as a State rather than
// an OS thread or goroutine stack.
//
// Grounded on gvisor.dev/gvisor/pkg/sentry/kernel/task_run.go's
// taskRunState: "a reified state in the task state machine... execute
// executes the code associated with this state ... and returns the
// following state." That file runs each reified state on a per-task
// goroutine; this package instead calls State.Poll directly from
// whichever hart dequeues the Task, which is what makes the task
// stackless: its only persisted state between suspension points is
// whatever the State implementation stores in its own fields.
package task

import (
	"sync/atomic"

	"github.com/rvkernel/core/internal/logging"
)

var log = logging.For("task")

// ID uniquely identifies a Task for its lifetime.
type ID uint64

// State is a reified suspend point, gVisor's taskRunState translated to
// stackless form (see package doc).
//
// Poll advances execution. If ready is false, the task is suspended:
// next must be the receiver, execution resumed by re-polling it once
// some Waker registered during this call fires. If ready is true and
// next is nil, the task has completed. If ready is true and next is
// non-nil, the executor makes the transition visible and re-polls next
// on the same timeslice (a tail-call, avoiding the overhead of
// round-tripping through the ready queue for state transitions that
// never block (mirrored from taskRunState's own tail-call note).
type State interface {
	Poll(t *Task) (next State, ready bool)
}

// Task is a unique id, a waker handle, a ready flag, and a pollable
// computation (§3 "Task").
type Task struct {
	id    ID
	state State

	// ready tracks the task's scheduling state, accessed atomically so
	// Wake from any hart or interrupt handler is safe without a lock:
	//
	//   0 (idle)         parked in some wait-list, not scheduled.
	//   1 (running)      enqueued on the executor's ready queue, or
	//                    currently being polled by a hart.
	//   2 (wake pending) a Wake arrived while running; the hart
	//                    currently polling this task must re-enqueue it
	//                    instead of parking when Poll returns not-ready
	//                    (otherwise that Wake would be lost, since it
	//                    raced the transition back to idle).
	ready int32

	// cancelled is observed at the next suspension point (§4.2
	// Cancellation).
	cancelled int32

	exec *Executor // weak: the executor that owns this task's lifecycle
}

// cancelledError is the concrete type behind ErrCancelled.
type cancelledError struct{}

func (cancelledError) Error() string { return "task cancelled" }

// ErrCancelled is the error value for a cancelled Task (§4.2). No
// suspension point in this tree returns it; a cancelled pipe read
// reports errno.EINTR instead.
var ErrCancelled error = cancelledError{}

// ID returns the task's identifier.
func (t *Task) ID() ID { return t.id }

// Cancel sets the cancellation flag observed at the next suspension
// point. Cooperative only: a task that never suspends cannot be
// cancelled (§4.2, §5).
func (t *Task) Cancel() {
	atomic.StoreInt32(&t.cancelled, 1)
}

// Cancelled reports whether Cancel has been called. Suspension points
// check it before parking (internal/pipe's read and ksync.Mutex's Lock).
func (t *Task) Cancelled() bool {
	return atomic.LoadInt32(&t.cancelled) != 0
}

// Waker is a small handle that, when invoked by any hart or interrupt
// handler, causes the associated task to become ready. Wakers are
// idempotent: multiple wakes between polls coalesce into one
// re-enqueue (§4.2 "Waker contract").
type Waker struct {
	t *Task
}

// Wake implements hal.Waker.
func (w *Waker) Wake() {
	t := w.t
	for {
		switch atomic.LoadInt32(&t.ready) {
		case 0: // idle: claim it and enqueue.
			if atomic.CompareAndSwapInt32(&t.ready, 0, 1) {
				t.exec.enqueue(t)
				return
			}
		case 1: // running: flag so the poller re-enqueues instead of parking.
			if atomic.CompareAndSwapInt32(&t.ready, 1, 2) {
				return
			}
		default: // 2, wake already pending: coalesce.
			return
		}
	}
}

// NewWaker returns a Waker bound to t. Suspension-point implementations
// call this once per parked wait and hand the Waker to whatever
// condition (mutex, dentry load, timer, I/O) will eventually signal it.
func (t *Task) NewWaker() *Waker {
	return &Waker{t: t}
}
