// Package hal declares the hardware/firmware interfaces the core treats
// as collaborators (§6 "Collaborator contracts"): the page-table
// and frame allocator, the block device contract backing filesystems,
// and the timer that drives blocking-timeout composition. None of these
// are implemented here, only the interface the core programs against,
// the same way gvisor.dev/gvisor/pkg/sentry/platform.Platform is an
// interface the sentry core depends on without owning an implementation.
package hal

import "time"

// SectorSize is the fixed block size every BlockDevice speaks, per
// §6.
const SectorSize = 512

// BlockDevice is the synchronous block-I/O contract a backing
// filesystem (FAT or ext) is built on. Implementations live outside the
// core (real hardware driver, or internal/blockdev/fileblk for
// dev/test); errors are plain Go errors, and internal/fs.DeviceReader
// reports any of them as EIO.
type BlockDevice interface {
	// ReadSectors reads len(buf)/SectorSize sectors starting at sector
	// into buf. len(buf) must be a multiple of SectorSize.
	ReadSectors(sector uint64, buf []byte) error
	// WriteSectors writes len(buf)/SectorSize sectors starting at sector
	// from buf. len(buf) must be a multiple of SectorSize.
	WriteSectors(sector uint64, buf []byte) error
	// SectorCount returns the device's total capacity in sectors.
	SectorCount() uint64
}

// Frame is an opaque physical frame handle.
type Frame uintptr

// FrameAllocator hands out zeroed physical frames. Implemented by the
// recycle_allocator collaborator; out of scope for this repo.
type FrameAllocator interface {
	Alloc() (Frame, error)
	Free(Frame)
}

// Perm is a page permission mask (read/write/execute/user), left
// abstract since its bit layout is a PageTable implementation detail.
type Perm uint8

const (
	PermRead Perm = 1 << iota
	PermWrite
	PermExec
	PermUser
)

// PageTable is the MMU contract. Out of scope for this repo; declared so
// internal/trap's try_read_user/try_write_user probe can be described in
// terms of it without depending on a concrete MMU package.
type PageTable interface {
	Map(va, pa uintptr, perm Perm) error
	Unmap(va uintptr) error
	Translate(va uintptr) (pa uintptr, ok bool)
	Activate(root uintptr)
}

// UART is the minimal byte-oriented console contract the boot console
// (internal/console) is built on; out of scope for this repo beyond the
// interface, the same way PageTable and FrameAllocator are.
type UART interface {
	ReadByte() (byte, error)
	WriteByte(b byte) error
}

// Waker transitions a single suspended Task from waiting to ready. It is
// the hardware-adjacent half of the contract; internal/task defines the
// kernel-side counterpart that satisfies it.
type Waker interface {
	Wake()
}

// Timer fires a Waker once at or after deadline. Implemented by the
// timer collaborator; out of scope for this repo beyond this contract.
// No package here calls it: task.WithTimeout compares a caller-supplied
// clock against its deadline on each poll instead.
type Timer interface {
	Set(deadline time.Time, w Waker)
	Cancel()
}
