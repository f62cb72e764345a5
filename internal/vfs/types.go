// Package vfs implements the polymorphic tree of superblocks, inodes,
// dentries, and open-file objects (C5), the path resolver (C6), and the
// file-descriptor table (C7) depends on the File type defined here.
//
// Grounded throughout on gvisor.dev/gvisor/pkg/sentry/fsimpl/kernfs,
// whose Dentry bundles a children map + mutex with an embedded Inode
// capability interface, the closest collaborator-contract analogue to this kernel's
// "dentry has an inode" classic-VFS shape, as opposed to vfs.Dentry
// proper, which deliberately does not reference an Inode at all (see
// §4.3 and DESIGN.md for why kernfs, not vfs, is the
// grounding source for this package).
package vfs

import "time"

// InodeType enumerates the polymorphic file types Inode projects onto
// (§4.3.2).
type InodeType int

const (
	TypeRegular InodeType = iota
	TypeDirectory
	TypeSymlink
	TypeFIFO
	TypeSocket
	TypeCharDevice
	TypeBlockDevice
)

// InodeState is the three-state lifecycle from §3 invariant 4:
// Init → Synced (after load_dir or first read), Synced ↔ Dirty (on
// write/flush).
type InodeState int32

const (
	StateInit InodeState = iota
	StateSynced
	StateDirty
)

// Mode packs the file type and permission bits, mirroring Linux's
// combined st_mode field (§6 "stat").
type Mode struct {
	Type InodeType
	Perm uint16
}

// TimeSpec is a (seconds, nanoseconds) pair, per §6.
type TimeSpec struct {
	Sec  int64
	Nsec int64
}

// FromTime converts a time.Time to the wire TimeSpec layout.
func FromTime(t time.Time) TimeSpec {
	return TimeSpec{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// Stat is the POSIX-like attribute structure get_attr() returns, field
// order matching §6 exactly.
type Stat struct {
	Dev     uint64
	Ino     uint64
	Mode    uint32
	Nlink   uint32
	UID     uint32
	GID     uint32
	Rdev    uint64
	Size    uint64
	Blksize uint32
	Blocks  uint64
	Atime   TimeSpec
	Mtime   TimeSpec
	Ctime   TimeSpec
}

// StatFS mirrors the 11 declared fields + 4-element spare of §6
// "statfs", f_type encoding the concrete filesystem.
type StatFS struct {
	Type    uint64
	Bsize   int64
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Files   uint64
	Ffree   uint64
	FSID    [2]int32
	NameLen int64
	Frsize  int64
	Flags   int64
	Spare   [4]int64
}

// Filesystem magic numbers for StatFS.Type (§6).
const (
	MagicFAT12 = 0x01
	MagicFAT16 = 0x04
	MagicFAT32 = 0x0c
	MagicExt4  = 0xEF53
)

// DirEntry is one record returned by getdents64 (§6).
type DirEntry struct {
	Ino  uint64
	Off  uint64
	Type InodeType
	Name string
}

// OpenFlags are the open(2) flags enumerated in §6, given the actual
// Linux riscv64 ABI bit values (the generic <asm-generic/fcntl.h>
// layout riscv64 shares with most architectures other than
// alpha/sparc/mips/parisc) so a syscall handler can cast a raw a2
// argument straight into an OpenFlags without a translation table.
type OpenFlags uint32

// OAccmode masks the low two bits Linux packs the access mode into:
// O_RDONLY is the all-zero case, not a set bit, so it cannot be tested
// with Has like the other flags (see Accmode).
const OAccmode OpenFlags = 0x3

const (
	ORDONLY OpenFlags = 0x0
	OWRONLY OpenFlags = 0x1
	ORDWR   OpenFlags = 0x2

	OCREAT     OpenFlags = 0x40
	OEXCL      OpenFlags = 0x80
	OTRUNC     OpenFlags = 0x200
	OAPPEND    OpenFlags = 0x400
	ONONBLOCK  OpenFlags = 0x800
	ODIRECTORY OpenFlags = 0x10000
	OCLOEXEC   OpenFlags = 0x80000
)

func (f OpenFlags) Has(bit OpenFlags) bool { return f&bit != 0 }

// Accmode returns the access-mode bits (ORDONLY, OWRONLY, or ORDWR).
func (f OpenFlags) Accmode() OpenFlags { return f & OAccmode }

// Writable reports whether the open mode permits writes (OWRONLY or
// ORDWR); ORDONLY is the zero value of Accmode, so this cannot be
// spelled as a Has check.
func (f OpenFlags) Writable() bool { return f.Accmode() != ORDONLY }

// SeekWhence selects the origin for File.Seek (§4.3.4).
type SeekWhence int

const (
	SeekStart SeekWhence = iota
	SeekCurrent
	SeekEnd
)

// PollEvents is a bitmask of POLLIN/POLLOUT-style readiness flags
// (§4.3.4 poll()).
type PollEvents uint32

const (
	PollIn PollEvents = 1 << iota
	PollOut
)
