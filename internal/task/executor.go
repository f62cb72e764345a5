package task

import (
	"sync"
	"sync/atomic"
)

// Executor owns the single global ready queue and the per-hart idle
// loops that drain it (§4.2 "Scheduling model"). There is exactly one
// Executor per kernel instance; it is a process-wide singleton with
// explicit init-once lifecycle (§9 "Global mutable state").
type Executor struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*Task
	nextID   uint64
	stopping int32
}

// New creates an Executor. Call RunHart once per hart to join its idle
// loop to the shared ready queue.
func New() *Executor {
	e := &Executor{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Spawn creates a new task running initial and enqueues it, ready to be
// picked up by the next idle hart. This is the executor's only Task
// constructor: a Task's lifetime begins at Spawn and ends when its
// State chain returns (nil, true) (§3 "Task" lifetime).
func (e *Executor) Spawn(initial State) *Task {
	t := &Task{
		id:    ID(atomic.AddUint64(&e.nextID, 1)),
		state: initial,
		ready: 1,
		exec:  e,
	}
	e.enqueue(t)
	return t
}

func (e *Executor) enqueue(t *Task) {
	e.mu.Lock()
	e.queue = append(e.queue, t)
	e.mu.Unlock()
	e.cond.Signal()
}

// dequeue blocks the calling hart until a task is ready or the executor
// is stopped, in which case it returns (nil, false).
func (e *Executor) dequeue() (*Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) == 0 {
		if atomic.LoadInt32(&e.stopping) != 0 {
			return nil, false
		}
		e.cond.Wait()
	}
	t := e.queue[0]
	e.queue = e.queue[1:]
	return t, true
}

// RunHart is the per-hart idle loop (C2): dequeue a ready task and poll
// it, following tail-call State transitions on the same timeslice, until
// it completes (dropped) or suspends. A suspended task is re-enqueued
// here only when a Wake arrived during its poll; otherwise re-enqueueing
// it is the job of whichever Waker it registered. Returns when Stop is
// called and the queue has drained.
func (e *Executor) RunHart() {
	for {
		t, ok := e.dequeue()
		if !ok {
			return
		}
		e.pollOnce(t)
	}
}

func (e *Executor) pollOnce(t *Task) {
	for {
		atomic.StoreInt32(&t.ready, 1)
		next, ready := t.state.Poll(t)
		if !ready {
			// Suspended: try to park (running -> idle). If this loses,
			// ready must be 2 (wake pending): some Waker registered
			// during Poll already fired on another hart, racing this
			// transition, so re-enqueue instead of parking to avoid
			// dropping the wake.
			if atomic.CompareAndSwapInt32(&t.ready, 1, 0) {
				return
			}
			atomic.StoreInt32(&t.ready, 1)
			e.enqueue(t)
			return
		}
		if next == nil {
			// Completed (§3 Task lifetime: dropped here).
			return
		}
		// Tail-call: the transition cannot itself suspend re-entrantly,
		// so continue the timeslice with the next state instead of
		// round-tripping through the ready queue (taskRunState's own
		// documented optimization).
		t.state = next
	}
}

// Stop asks all hart loops to exit once the ready queue drains, and
// wakes any hart blocked in dequeue so it can observe the flag.
func (e *Executor) Stop() {
	atomic.StoreInt32(&e.stopping, 1)
	e.mu.Lock()
	e.cond.Broadcast()
	e.mu.Unlock()
}
