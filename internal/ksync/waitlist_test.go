package ksync

import "testing"

type countingWaker struct{ woken *int }

func (w countingWaker) Wake() { *w.woken++ }

func TestWaitListNotifyAllWakesEveryoneOnce(t *testing.T) {
	var l WaitList
	var a, b int
	l.Add(countingWaker{&a})
	l.Add(countingWaker{&b})

	l.NotifyAll()
	if a != 1 || b != 1 {
		t.Fatalf("after NotifyAll: a=%d b=%d, want 1, 1", a, b)
	}
	if !l.Empty() {
		t.Fatal("list should be empty after NotifyAll")
	}

	l.NotifyAll() // no-op, nothing parked
	if a != 1 || b != 1 {
		t.Fatalf("second NotifyAll woke a parked waker again: a=%d b=%d", a, b)
	}
}

func TestWaitListNotifyOneIsFIFO(t *testing.T) {
	var l WaitList
	var a, b int
	l.Add(countingWaker{&a})
	l.Add(countingWaker{&b})

	l.NotifyOne()
	if a != 1 || b != 0 {
		t.Fatalf("NotifyOne should wake the oldest first: a=%d b=%d", a, b)
	}
	l.NotifyOne()
	if b != 1 {
		t.Fatalf("second NotifyOne should wake b: b=%d", b)
	}
	if !l.Empty() {
		t.Fatal("list should be empty after draining both")
	}
}

func TestWaitListNotifyOneOnEmptyIsNoOp(t *testing.T) {
	var l WaitList
	l.NotifyOne() // must not panic
	if !l.Empty() {
		t.Fatal("an empty list should stay empty")
	}
}
