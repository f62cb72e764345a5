package trap

// This file declares the assembly entry points that implement §4.1's
// two directions. Exactly like ring0/entry_amd64.go, these are Go
// function declarations with no body; the implementation lives in
// entry_riscv64.s. Build tooling for actually compiling and linking the
// assembly is explicitly out of scope (§1); see DESIGN.md.

// userTrapVector is installed as stvec for user-mode execution. On any
// exception or interrupt taken in user mode, it swaps the user sp for
// the pre-installed kernel trap-frame pointer via sscratch, saves the
// user's general-purpose registers (x1, x3..x31), sepc and sstatus,
// and the user sp into the Frame, then reloads the kernel-side
// callee-saved registers, fp, tp, ra and finally sp from the same
// Frame before returning to whichever runUser call is resuming
// (§4.1 "User → kernel").
func userTrapVector()

// runUser is the kernel→user half: given a pointer to the Frame of the
// task to resume, it stores the kernel's own sp/ra/s0..s11/fp/tp into
// that frame, installs the frame pointer into sscratch, restores
// sstatus, sepc, and the general-purpose registers (finally the user
// sp) from the frame, and executes sret (§4.1 "Kernel → user").
//
// runUser returns (via the paired userTrapVector entry, on the next
// trap) the scause value that interrupted user execution.
func runUser(f *Frame) (scause uint64)

// RunUser is the exported seam internal/hart uses to invoke runUser
// without internal/hart needing to know the trap frame is ultimately
// resumed by an assembly routine.
func RunUser(f *Frame) uint64 {
	return runUser(f)
}

// kernelTrapVector is installed as stvec while running in supervisor
// mode. It is distinct from userTrapVector: kernel-mode exceptions save
// only caller-saved registers on the current kernel stack (no Frame
// swap, no sscratch dance) and call kernelTrapHandler, then restore and
// sret (§4.1 "Kernel→kernel traps").
func kernelTrapVector()

// kernelTrapHandler is the handler invoked by kernelTrapVector, called
// with interrupts disabled and the faulting scause/stval available via
// the CPU CSRs. It is declared without a body, and no implementation of
// it exists in this repository. The probe in probe.go uses its own
// vector instead of this one (§4.1 "User memory access probe").
func kernelTrapHandler()
