// Package trap implements the trap/exception pipeline and per-hart
// user↔kernel context switch (C1+C2), the handoff structure being
// Frame (§3 "Trap frame").
//
// Grounded on gvisor.dev/gvisor/pkg/sentry/platform/ring0: Go functions
// declared with no body and a "this is an assembly function" comment,
// whose actual bodies live in a paired .s file (ring0/entry_amd64.go +
// entry_amd64.s). entry_riscv64.s holds this package's assembly
// counterpart; see DESIGN.md for why it is present but not wired into
// the build.
package trap

// Frame is the 50-word register-save block bridging a user trap to the
// kernel and back (§3 "Trap frame"). Field order matches the save
// sequence described in §4.1: x1, x3..x31 (skipping x2/sp, swapped via
// sscratch, and x4/tp, saved separately), sepc, sstatus, the user sp,
// then the kernel-side callee-saved block the run-user primitive needs
// to resume the kernel after the next user→kernel entry.
type Frame struct {
	// General-purpose registers x1, x3..x31 (x0 is hardwired zero and
	// not saved; x2 is the stack pointer, swapped via sscratch on entry
	// and restored last; x4 is the thread pointer, saved in TP below).
	X [31]uint64 // indexed by register number, X[2] and X[4] unused

	Sepc    uint64 // saved supervisor exception PC
	Sstatus uint64 // saved supervisor status
	UserSP  uint64 // saved user stack pointer (x2)

	// Kernel-side state the run-user primitive stashes here so the next
	// user→kernel trap entry can restore it without touching any other
	// kernel memory before the stack switch (§4.1 Rationale).
	KernelSP uint64
	KernelRA uint64
	S        [12]uint64 // callee-saved s0..s11 minus fp, which is S0 by convention; kept distinct per §3's "twelve callee-saved registers, a frame pointer"
	FP       uint64
	TP       uint64
}

// PC returns the frame's saved program counter (sepc).
func (f *Frame) PC() uint64 { return f.Sepc }

// SetPC overwrites the frame's resume address, used by signal delivery
// setup and by try_read_user/try_write_user's fault handler to advance
// past the faulting instruction.
func (f *Frame) SetPC(pc uint64) { f.Sepc = pc }

// Arg returns the n'th syscall argument per the RISC-V Linux calling
// convention (a0..a5 map to x10..x15); n must be in [0,6).
func (f *Frame) Arg(n int) uint64 {
	return f.X[10+n]
}

// SetReturn stores a syscall return value into a0 (x10), per the
// Linux riscv64 ABI.
func (f *Frame) SetReturn(v uint64) {
	f.X[10] = v
}

// SyscallNumber returns the syscall number from a7 (x17).
func (f *Frame) SyscallNumber() uint64 {
	return f.X[17]
}
