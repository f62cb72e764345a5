package vfs

import (
	"sync"
	"time"

	"github.com/rvkernel/core/internal/errno"
)

// InodeMeta is the metadata block every concrete Inode embeds (§3
// "Inode"). Grounded on kernfs.Dentry's split between an immutable
// identity (ino, sb) and a mutex-guarded mutable inner (size, times,
// state), here collapsed into one struct since, unlike kernfs, this
// package's Inode is not itself reference-counted (its File and Dentry
// owners are; see internal/refcount and DESIGN.md).
type InodeMeta struct {
	Ino uint64
	SB  *SuperBlock // upward reference: plain pointer, not strong-owned (§9)

	mu     sync.Mutex
	size   uint64
	state  InodeState
	atime  time.Time
	mtime  time.Time
	ctime  time.Time
	mode   Mode
	nlink  uint32
}

// InitInodeMeta populates a fresh InodeMeta at the Init state (§3
// invariant 4).
func InitInodeMeta(ino uint64, sb *SuperBlock, mode Mode) InodeMeta {
	now := time.Now()
	return InodeMeta{
		Ino: ino, SB: sb, mode: mode, nlink: 1,
		state: StateInit, atime: now, mtime: now, ctime: now,
	}
}

// Size returns the current size under the inner lock.
func (m *InodeMeta) Size() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// SetSize updates size and bumps mtime/ctime, used by writes that
// extend a file (§4.3.4 "Writes that extend the file update the inode
// size atomically relative to the write").
func (m *InodeMeta) SetSize(n uint64) {
	m.mu.Lock()
	m.size = n
	now := time.Now()
	m.mtime, m.ctime = now, now
	m.mu.Unlock()
}

// State returns the current lifecycle state (§3 invariant 4).
func (m *InodeMeta) State() InodeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetState transitions the lifecycle state. Callers are responsible for
// only making valid transitions (Init→Synced, Synced↔Dirty); this is a
// plain setter, not a validator, matching the base spec's own
// permissiveness (no transition table is enforced in the source).
func (m *InodeMeta) SetState(s InodeState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Mode returns the file type and permission bits.
func (m *InodeMeta) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// GetAttr fills in the POSIX-like stat structure (§4.3.2). dev is the
// superblock's device identifier and blksize the backend's block size;
// st_blocks is size rounded up to whole blksize blocks, and st_nlink is
// the count last set by SetNlink (1 from InitInodeMeta).
func (m *InodeMeta) GetAttr(dev uint64, blksize uint32) Stat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stat{
		Dev:     dev,
		Ino:     m.Ino,
		Mode:    sIfmt(m.mode.Type) | uint32(m.mode.Perm),
		Nlink:   m.nlink,
		Size:    m.size,
		Blksize: blksize,
		Blocks:  (m.size + uint64(blksize) - 1) / uint64(blksize),
		Atime:   FromTime(m.atime),
		Mtime:   FromTime(m.mtime),
		Ctime:   FromTime(m.ctime),
	}
}

// sIfmt maps an InodeType to its Linux S_IFMT nibble (st_mode bits
// 12-15), per §6's Linux-compatible stat. This package's InodeType
// ordinals (types.go) do not match S_IFMT order, so the mapping is
// table-driven rather than a shift of the raw enum value.
func sIfmt(t InodeType) uint32 {
	switch t {
	case TypeFIFO:
		return 0o010000
	case TypeCharDevice:
		return 0o020000
	case TypeDirectory:
		return 0o040000
	case TypeBlockDevice:
		return 0o060000
	case TypeRegular:
		return 0o100000
	case TypeSymlink:
		return 0o120000
	case TypeSocket:
		return 0o140000
	default:
		return 0
	}
}

// SetNlink overrides the reported hard-link count. Neither backend in
// this tree calls it, so every inode reports st_nlink=1 (§4.7).
func (m *InodeMeta) SetNlink(n uint32) {
	m.mu.Lock()
	m.nlink = n
	m.mu.Unlock()
}

// Inode is the capability-polymorphic interface every concrete inode
// (FAT file, FAT directory, ext inode, pipe inode, tty inode) must
// satisfy at minimum (§4.3.2). Directory-specific and symlink-specific
// operations live in separate capability interfaces below, type-asserted
// at the call site, the same "inodeDirectory"/"inodeSymlink" split
// kernfs.go uses.
type Inode interface {
	Meta() *InodeMeta
	GetAttr() Stat
	Type() InodeType
}

// DirectoryInode is the capability a Dentry's concrete Inode must
// implement to back base_lookup/base_create/base_unlink/base_rmdir/
// base_new_child (§4.3.3). Directories implement this; regular files,
// symlinks, pipes, and device nodes do not.
type DirectoryInode interface {
	Inode
	// LoadDir materializes all immediate children into the dentry tree
	// (via d.InsertChild); File.BaseLoadDir then transitions this
	// inode's state to Synced (§4.3.4 base_load_dir).
	LoadDir(d *Dentry) *errno.Errno
}

// LookupableInode is the capability a concrete directory inode exposes
// for base_lookup (§4.3.3): search the backing directory for name,
// returning (nil, nil) on a miss so the caller can synthesize and cache
// a negative dentry, or (inode, nil) on a hit. Implemented by both
// internal/fs/fat.DirInode and internal/fs/ext4.DirInode.
type LookupableInode interface {
	DirectoryInode
	Lookup(name string) (Inode, *errno.Errno)
}

// CreatableInode is the capability a concrete directory inode exposes
// for base_create (§4.3.3): create a regular file or directory under
// this directory named name, per mode.Type.
type CreatableInode interface {
	DirectoryInode
	Create(name string, mode Mode) (Inode, *errno.Errno)
}

// RemovableInode is the capability a concrete directory inode exposes
// for base_unlink/base_rmdir (§4.3.3): delete name from the backing
// directory. The type guard (EISDIR/ENOTDIR) lives in Dentry.BaseUnlink
// /BaseRmdir, not here.
type RemovableInode interface {
	DirectoryInode
	Remove(name string) *errno.Errno
}

// RegularFileInode is the capability backing File.base_read_at /
// base_write_at for ordinary files (§4.3.4).
type RegularFileInode interface {
	Inode
	ReadAt(off uint64, buf []byte) (int, *errno.Errno)
	WriteAt(off uint64, buf []byte) (int, *errno.Errno)
	Flush() *errno.Errno
}
