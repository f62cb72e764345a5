package task

import "time"

// yieldState is the State used by Yield: its first poll immediately
// wakes itself then reports not-ready, so the executor's tail-call rule
// (executor.go's pollOnce never re-polls a suspended State on the same
// timeslice) sends it through the ready queue behind whatever else is
// already waiting, instead of monopolizing the hart (§4.2 "explicit
// yield now call").
type yieldState struct {
	done bool
	then State
}

func (y *yieldState) Poll(t *Task) (State, bool) {
	if y.done {
		return y.then, true
	}
	y.done = true
	t.NewWaker().Wake()
	return y, false
}

// Yield returns a State that gives every other ready task a chance to
// run first, then continues with then. Used to implement "explicit
// yield now" suspension points (§4.2) without an actual wait condition.
func Yield(then State) State {
	return &yieldState{then: then}
}

// funcState adapts a plain poll function to State, for small one-off
// suspension points that don't need a named type.
type funcState struct {
	fn func(t *Task) (State, bool)
}

func (f *funcState) Poll(t *Task) (State, bool) { return f.fn(t) }

// FromFunc wraps fn as a State.
func FromFunc(fn func(t *Task) (State, bool)) State {
	return &funcState{fn: fn}
}

// timeoutState groups the three values a deadline race needs (§4.2,
// §9). WithTimeout below does not use this type; it keeps the same
// values in a FromFunc closure. Neither uses hal.Timer.
type timeoutState struct {
	inner    State
	deadline time.Time
	now      func() time.Time
}

// WithTimeout returns a State that polls inner until it completes or
// now() passes deadline, whichever comes first; in the latter case the
// result (communicated out-of-band by inner, e.g. into a
// pipe.ReadOutcome) is left however inner left it and the wrapped State
// completes having set *timedOut = true. No timer is armed: the deadline
// is checked only when the task is polled, so a task whose inner State
// is never woken is never timed out.
func WithTimeout(inner State, deadline time.Time, now func() time.Time, timedOut *bool) State {
	var self State
	self = FromFunc(func(t *Task) (State, bool) {
		if now().After(deadline) {
			*timedOut = true
			return nil, true
		}
		next, ready := inner.Poll(t)
		if ready {
			return next, true
		}
		// Not ready: by the State contract, next == inner (the
		// receiver). The composite stays not-ready too; it relies on
		// inner's own Waker to re-enqueue the task, at which point the
		// deadline is re-checked from the top.
		inner = next
		return self, false
	})
	return self
}
