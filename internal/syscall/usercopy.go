package syscall

import (
	"github.com/rvkernel/core/internal/errno"
	"github.com/rvkernel/core/internal/trap"
)

// CopyInUser fills buf by probing addr byte-by-byte through
// trap.TryReadUser, returning EFAULT at the first faulting byte without
// touching the rest (§8 "try_read_user of an unmapped user address
// returns the fault code; no panic").
func CopyInUser(addr uintptr, buf []byte) *errno.Errno {
	for i := range buf {
		b, fault := trap.TryReadUser(addr + uintptr(i))
		if fault != 0 {
			return errno.EFAULT
		}
		buf[i] = b
	}
	return nil
}

// CopyOutUser writes buf to addr byte-by-byte through trap.TryWriteUser.
func CopyOutUser(addr uintptr, buf []byte) *errno.Errno {
	for i, b := range buf {
		if fault := trap.TryWriteUser(addr+uintptr(i), b); fault != 0 {
			return errno.EFAULT
		}
	}
	return nil
}

// CopyInString reads a NUL-terminated string at addr, up to maxLen
// bytes, via CopyInUser one byte at a time.
func CopyInString(addr uintptr, maxLen int) (string, *errno.Errno) {
	buf := make([]byte, 0, 64)
	for i := 0; i < maxLen; i++ {
		var b [1]byte
		if err := CopyInUser(addr+uintptr(i), b[:]); err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, b[0])
	}
	return string(buf), nil
}
