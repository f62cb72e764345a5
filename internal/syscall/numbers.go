// Package syscall implements the Linux-compatible riscv64 syscall
// dispatcher (§4.8, C10): a fixed handler table indexed by syscall
// number, decoding arguments from a trap.Frame per the riscv64 calling
// convention (a0..a5 = x10..x15, a7 = x17) and mapping every result to
// a non-negative success value or -errno at the boundary (§6, §7).
//
// Grounded on gvisor.dev/gvisor/pkg/sentry/syscalls/linux's table-driven
// dispatch (a fixed-size array of Syscall descriptors indexed by
// syscall number) and arch.SyscallArguments' role decoding raw
// registers into typed arguments before a handler ever sees them.
package syscall

// Linux riscv64 syscall numbers for the subset §6 names
// ("Linux-compatible numbers for at minimum: ..."), taken from the
// generic Linux syscall table riscv64 shares with arm64.
const (
	SysGetcwd     = 17
	SysDup        = 23
	SysDup3       = 24
	SysMkdirat    = 34
	SysUnlinkat   = 35
	SysLinkat     = 37
	SysUmount2    = 39
	SysMount      = 40
	SysChdir      = 49
	SysOpenat     = 56
	SysClose      = 57
	SysPipe2      = 59
	SysGetdents64 = 61
	SysLseek      = 62
	SysRead       = 63
	SysWrite      = 64
	SysFstatat    = 79
	SysFstat      = 80
)
