package task

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSpawnRunsToCompletion(t *testing.T) {
	e := New()
	go e.RunHart()
	defer e.Stop()

	done := make(chan struct{})
	e.Spawn(FromFunc(func(tk *Task) (State, bool) {
		close(done)
		return nil, true
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("spawned task never ran")
	}
}

func TestTailCallDoesNotRoundTripReadyQueue(t *testing.T) {
	e := New()
	go e.RunHart()
	defer e.Stop()

	var steps int32
	done := make(chan struct{})

	var third State
	third = FromFunc(func(tk *Task) (State, bool) {
		atomic.AddInt32(&steps, 1)
		close(done)
		return nil, true
	})
	var second State
	second = FromFunc(func(tk *Task) (State, bool) {
		atomic.AddInt32(&steps, 1)
		return third, true
	})
	first := FromFunc(func(tk *Task) (State, bool) {
		atomic.AddInt32(&steps, 1)
		return second, true
	})

	e.Spawn(first)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("chained tail-call states never completed")
	}
	if got := atomic.LoadInt32(&steps); got != 3 {
		t.Fatalf("steps = %d, want 3", got)
	}
}

func TestSuspendedTaskResumesOnWake(t *testing.T) {
	e := New()
	go e.RunHart()
	defer e.Stop()

	var waker *Waker
	parked := make(chan struct{})
	resumed := make(chan struct{})

	suspendOnce := FromFunc(func(tk *Task) (State, bool) {
		return nil, true
	})
	var susp State
	polled := false
	susp = FromFunc(func(tk *Task) (State, bool) {
		if !polled {
			polled = true
			waker = tk.NewWaker()
			close(parked)
			return susp, false
		}
		close(resumed)
		return suspendOnce, true
	})

	e.Spawn(susp)

	select {
	case <-parked:
	case <-time.After(time.Second):
		t.Fatal("task never reached its suspend point")
	}

	select {
	case <-resumed:
		t.Fatal("task resumed before being woken")
	case <-time.After(50 * time.Millisecond):
	}

	waker.Wake()

	select {
	case <-resumed:
	case <-time.After(time.Second):
		t.Fatal("task never resumed after Wake")
	}
}

func TestCancel(t *testing.T) {
	e := New()
	tk := e.Spawn(FromFunc(func(tk *Task) (State, bool) { return nil, true }))
	if tk.Cancelled() {
		t.Fatal("fresh task reports cancelled")
	}
	tk.Cancel()
	if !tk.Cancelled() {
		t.Fatal("Cancel did not set the cancellation flag")
	}
}
