package task

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWakeCoalescesMultipleCallsIntoOneEnqueue(t *testing.T) {
	e := New()
	go e.RunHart()
	defer e.Stop()

	var waker *Waker
	var polls int32
	parked := make(chan struct{})
	done := make(chan struct{})

	var s State
	first := true
	s = FromFunc(func(tk *Task) (State, bool) {
		n := atomic.AddInt32(&polls, 1)
		if first {
			first = false
			waker = tk.NewWaker()
			close(parked)
			return s, false
		}
		if n >= 2 {
			close(done)
			return nil, true
		}
		return s, false
	})

	e.Spawn(s)

	select {
	case <-parked:
	case <-time.After(time.Second):
		t.Fatal("task never reached its suspend point")
	}

	waker.Wake()
	waker.Wake()
	waker.Wake()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never completed after being woken")
	}
}

// TestWakeDuringPollIsNotLost pins the race the ready-state machine
// exists to close: a Waker firing on another hart after Poll has
// decided to suspend but before pollOnce records that as idle must
// still cause the task to run again, not park forever.
func TestWakeDuringPollIsNotLost(t *testing.T) {
	e := New()
	go e.RunHart()
	defer e.Stop()

	done := make(chan struct{})
	first := true
	var s State
	s = FromFunc(func(tk *Task) (State, bool) {
		if first {
			first = false
			// Simulate a Waker firing while this Poll call is still
			// in flight, i.e. before pollOnce transitions ready back
			// to idle.
			tk.NewWaker().Wake()
			return s, false
		}
		close(done)
		return nil, true
	})

	e.Spawn(s)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never resumed after a Wake that raced Poll's suspend decision")
	}
}

func TestIDIsStableAcrossPolls(t *testing.T) {
	e := New()
	var id1, id2 ID
	done := make(chan struct{})
	tk := e.Spawn(FromFunc(func(tk *Task) (State, bool) {
		id1 = tk.ID()
		return FromFunc(func(tk *Task) (State, bool) {
			id2 = tk.ID()
			close(done)
			return nil, true
		}), true
	}))
	if tk.ID() != id1 {
		t.Fatalf("Spawn-returned ID = %d, want %d", tk.ID(), id1)
	}
	go e.RunHart()
	defer e.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("chained state never ran")
	}
	if id1 != id2 {
		t.Fatalf("task ID changed across polls: %d then %d", id1, id2)
	}
}
