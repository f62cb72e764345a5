// Package errno defines the flat Linux-style error taxonomy the core
// uses at every fallible boundary (§7).
//
// Grounded on gvisor.dev/gvisor/pkg/errors/linuxerr: named package-level
// values of a single comparable type rather than wrapped errors, so a
// syscall handler can compare a returned error directly against a
// sentinel and so the dispatcher can map it to -errno with a single
// field access, not a type switch chain.
package errno

import "fmt"

// Errno is a flat kernel error code. Two Errno values are equal iff they
// are the same package-level sentinel (pointer identity), not merely two
// values carrying the same number; Errno implements error so it can be
// returned and compared like any other Go error.
type Errno struct {
	num int32
	msg string
}

func (e *Errno) Error() string {
	return e.msg
}

// Num returns the positive errno number (as in <errno.h>), suitable for
// negation at the syscall boundary.
func (e *Errno) Num() int32 { return e.num }

func newErrno(num int32, msg string) *Errno {
	return &Errno{num: num, msg: msg}
}

// The errno taxonomy required by §7, plus EINTR (a cancelled pipe read),
// EACCES, EFAULT and ENXIO.
var (
	EPERM   = newErrno(1, "operation not permitted")
	ENOENT  = newErrno(2, "no such file or directory")
	EINTR   = newErrno(4, "interrupted system call")
	EIO     = newErrno(5, "input/output error")
	ENXIO   = newErrno(6, "no such device or address")
	EBADF   = newErrno(9, "bad file descriptor")
	EAGAIN  = newErrno(11, "resource temporarily unavailable")
	ENOMEM  = newErrno(12, "out of memory")
	EACCES  = newErrno(13, "permission denied")
	EFAULT  = newErrno(14, "bad address")
	EEXIST  = newErrno(17, "file exists")
	ENOTDIR = newErrno(20, "not a directory")
	EISDIR  = newErrno(21, "is a directory")
	EINVAL  = newErrno(22, "invalid argument")
	EMFILE  = newErrno(24, "too many open files")
	ENOSPC  = newErrno(28, "no space left on device")
	EPIPE   = newErrno(32, "broken pipe")
	ENOTTY  = newErrno(25, "inappropriate ioctl for device")
	ENOSYS  = newErrno(38, "function not implemented")
)

// byNum supports FromNum's round-trip from a raw errno number, e.g.
// when a backing filesystem library hands back a bare int.
var byNum = map[int32]*Errno{
	EPERM.num: EPERM, ENOENT.num: ENOENT, EINTR.num: EINTR, EIO.num: EIO,
	ENXIO.num: ENXIO, EBADF.num: EBADF, EAGAIN.num: EAGAIN, ENOMEM.num: ENOMEM,
	EACCES.num: EACCES, EFAULT.num: EFAULT, EEXIST.num: EEXIST,
	ENOTDIR.num: ENOTDIR, EISDIR.num: EISDIR, EINVAL.num: EINVAL,
	EMFILE.num: EMFILE, ENOSPC.num: ENOSPC, EPIPE.num: EPIPE,
	ENOTTY.num: ENOTTY, ENOSYS.num: ENOSYS,
}

// FromNum looks up the Errno for a raw positive errno number, falling
// back to EIO for anything this kernel doesn't enumerate (mirrors
// linuxerr's "unknown errors become EIO" convention for library errors
// that don't map cleanly onto the taxonomy).
func FromNum(num int32) *Errno {
	if e, ok := byNum[num]; ok {
		return e
	}
	return EIO
}

// ToLinux returns the negative value a syscall handler returns to mean
// "failed with this errno", per §6 ("a negative errno as a
// two's-complement small integer").
func ToLinux(e *Errno) int64 {
	if e == nil {
		return 0
	}
	return -int64(e.num)
}

// Is reports whether err is exactly this Errno. Provided so callers can
// use errors.Is-style code without pulling in the stdlib errors package's
// wrapping machinery, which this flat taxonomy deliberately avoids.
func (e *Errno) Is(err error) bool {
	other, ok := err.(*Errno)
	return ok && other == e
}

// Wrap produces a human-readable diagnostic that still compares unequal
// to any Errno (it is a different concrete type); used only for log
// lines, never returned across a syscall boundary.
func Wrap(e *Errno, context string) error {
	return fmt.Errorf("%s: %w", context, e)
}
