// Package hart implements the per-hart runtime (C2): the idle loop that
// hands scheduled tasks to the trap pipeline's kernel→user primitive and
// back, the current-task pointer, and the kernel stack each hart owns.
//
// Grounded on gvisor.dev/gvisor/pkg/sentry/platform/ring0.CPU, which
// plays the same role (one struct per logical CPU, holding the active
// Frame-equivalent registers and the stack the hart's kernel code runs
// on) though ring0 targets amd64/arm64 hardware virtualization instead
// of a plain trap vector.
package hart

import (
	"sync/atomic"

	"github.com/rvkernel/core/internal/logging"
	"github.com/rvkernel/core/internal/task"
	"github.com/rvkernel/core/internal/trap"
)

var log = logging.For("hart")

// ID identifies a physical hart.
type ID uint32

// Hart owns a kernel stack, a pointer to the currently scheduled task
// (if any), and a scratch slot holding the user Frame address while
// user code runs (§3 "Hart context").
type Hart struct {
	id ID

	// current is the task this hart is presently running, nil while
	// idle. Only this hart ever writes it; other harts may read it for
	// diagnostics (stack dumps), hence atomic.Pointer-style access via
	// the accessor below.
	current atomic.Value // holds *task.Task or nil

	// userFrame is the hart-scratch-resident trap frame address
	// (sscratch, §4.1 Rationale): valid only while this hart is
	// executing user code for current.
	userFrame *trap.Frame

	exec *task.Executor
}

// New constructs a Hart bound to the given executor's ready queue.
func New(id ID, exec *task.Executor) *Hart {
	h := &Hart{id: id, exec: exec}
	h.current.Store((*task.Task)(nil))
	return h
}

// ID returns the hart's identifier.
func (h *Hart) ID() ID { return h.id }

// Current returns the task this hart is presently running, or nil.
func (h *Hart) Current() *task.Task {
	t, _ := h.current.Load().(*task.Task)
	return t
}

// Idle runs this hart's idle loop (§4.2 "each hart has an idle loop
// that dequeues a ready task, polls it once..."). It blocks until the
// executor is stopped. The actual poll-once step is delegated to
// task.Executor.RunHart; Idle itself only logs entry and exit. Current()
// is set only while ResumeUser runs, which owns the trap-frame handoff
// when a polled computation resumes user execution.
func (h *Hart) Idle() {
	log.WithField("hart", h.id).Info("entering idle loop")
	h.exec.RunHart()
	log.WithField("hart", h.id).Info("idle loop exiting")
}

// ResumeUser hands f to the trap pipeline's kernel→user primitive,
// installing f as this hart's scratch-resident frame for the duration
// (§4.1 "Kernel → user", §3 Hart context "a scratch location holding
// the user trap frame address while user code runs"). It returns the
// scause that ended the resumed user execution; the caller (a
// syscall-return State, or a fault handler) decides what that means.
func (h *Hart) ResumeUser(t *task.Task, f *trap.Frame) uint64 {
	h.current.Store(t)
	h.userFrame = f
	defer func() {
		h.userFrame = nil
		h.current.Store((*task.Task)(nil))
	}()
	return trap.RunUser(f)
}
