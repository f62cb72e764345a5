package trap

import "github.com/rvkernel/core/internal/logging"

var log = logging.For("trap")

// FaultCode is the scause-derived status a probe returns on a failed
// user-memory access. 0 means success; any nonzero value is the
// supervisor-mode scause that was taken (§4.1).
type FaultCode uint64

const faultNone FaultCode = 0

// probeVector is the specialized vectored trap handler installed only
// for the duration of a probe: a short, cheap load (or load+store) at
// the target address, with the recovery path advancing sepc past the
// faulting instruction and returning instead of propagating the fault
// (§4.1). It has no Go body, and unlike userTrapVector/kernelTrapVector
// entry_riscv64.s holds no assembly for it; it is also scoped to a single hart for a handful of
// instructions, so its declaration is deliberately not in entry.go;
// keeping it beside the Go-level probe functions that install and
// remove it documents the lifetime together.
func probeVector()

// installProbe and restoreVector are the hooks probeVector's generated
// fault path needs: swap stvec to probeVector, run the access, then
// restore whatever vector (user or kernel) was active before. Declared
// here as the narrow seam between Go and the CSR-manipulating assembly;
// a real build provides them via the same .s file as probeVector.
func installProbe() (prevVector uintptr)
func restoreVector(prevVector uintptr)
func loadByte(addr uintptr) (b byte, fault FaultCode)
func loadStoreByte(addr uintptr, b byte) (fault FaultCode)

// TryReadUser attempts a single byte load at addr using the
// MMU-translated mapping currently active (the calling task's address
// space). It returns (the loaded byte, faultNone) on success, or the
// nonzero scause as its FaultCode if a fault was taken; it never panics
// (§4.1, §7 "recoverable").
//
// This is the kernel's sole mechanism for validating a user pointer
// before a syscall handler dereferences it: every read of user memory
// in internal/syscall goes through this first.
func TryReadUser(addr uintptr) (byte, FaultCode) {
	prev := installProbe()
	defer restoreVector(prev)
	b, fault := loadByte(addr)
	if fault != faultNone {
		log.WithField("addr", addr).WithField("scause", uint64(fault)).
			Debug("try_read_user: fault")
	}
	return b, fault
}

// TryWriteUser attempts a single byte load-then-store at addr (the load
// detects an unmapped or read-protected page before risking a partial
// write; the store detects a read-only mapping). It returns faultNone
// on success.
func TryWriteUser(addr uintptr, b byte) FaultCode {
	prev := installProbe()
	defer restoreVector(prev)
	fault := loadStoreByte(addr, b)
	if fault != faultNone {
		log.WithField("addr", addr).WithField("scause", uint64(fault)).
			Debug("try_write_user: fault")
	}
	return fault
}
