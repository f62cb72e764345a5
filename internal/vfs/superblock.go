package vfs

import (
	"sync"

	"github.com/google/btree"

	"github.com/rvkernel/core/internal/errno"
	"github.com/rvkernel/core/internal/hal"
	"github.com/rvkernel/core/internal/ksync"
)

// dirtyItem orders dirtyInodes by inode number so SyncFS writes back in
// a deterministic, cache-friendly order rather than Go's randomized map
// iteration (§4.3.1 sync_fs). google/btree is a real runsc dependency
// (vendored for its own generated ordered containers, even though no
// single file imports the package directly); here it is put to its
// straightforward intended use, an ordered set keyed by inode number.
type dirtyItem struct {
	ino   uint64
	inode Inode
}

func (a dirtyItem) Less(than btree.Item) bool {
	return a.ino < than.(dirtyItem).ino
}

// SuperBlock represents one mounted filesystem instance (§3, §4.3.1).
// Grounded on kernfs.Filesystem (back-reference to its FilesystemType,
// a root Dentry, and the inode bookkeeping a concrete backend needs to
// sync), simplified to a plain struct since this kernel has exactly one
// concrete SuperBlock shape shared by FAT and ext (their divergence
// lives entirely in the Inode/Dentry capability implementations).
type SuperBlock struct {
	FSType *FileSystemType // back-reference (§3 "SuperBlock")
	Device hal.BlockDevice // optional: nil for synthetic filesystems (pipefs, devfs)

	rootOnce ksync.Once
	root     *Dentry

	mu          sync.Mutex
	allInodes   []Inode
	dirtyInodes *btree.BTree

	// StatFunc is supplied by the concrete backend; StatFS calls it and
	// wraps I/O failures as errno.EIO (§4.3.1 stat_fs).
	StatFunc func() (StatFS, *errno.Errno)

	// SyncFunc writes out dirty inodes; wait=false permits an async
	// implementation (§4.3.1 sync_fs).
	SyncFunc func(wait bool) *errno.Errno
}

// NewSuperBlock constructs an empty, rootless SuperBlock bound to fst
// and dev (dev may be nil).
func NewSuperBlock(fst *FileSystemType, dev hal.BlockDevice) *SuperBlock {
	return &SuperBlock{
		FSType:      fst,
		Device:      dev,
		dirtyInodes: btree.New(32),
	}
}

// Root returns the superblock's root dentry, or nil if SetRootDentry
// has not yet been called.
func (sb *SuperBlock) Root() *Dentry {
	return sb.root
}

// SetRootDentry installs the root dentry. Called once per superblock;
// idempotent thereafter (§4.3.1): a second call is a silent no-op
// rather than an error, matching the base spec's own description.
func (sb *SuperBlock) SetRootDentry(d *Dentry) {
	if sb.rootOnce.Fire() {
		sb.root = d
	}
}

// PushInode records a newly created inode in the superblock's live-inode
// list (§4.3.1 push_inode).
func (sb *SuperBlock) PushInode(i Inode) {
	sb.mu.Lock()
	sb.allInodes = append(sb.allInodes, i)
	sb.mu.Unlock()
}

// MarkDirty records i as needing sync_fs to write back.
func (sb *SuperBlock) MarkDirty(i Inode) {
	i.Meta().SetState(StateDirty)
	sb.mu.Lock()
	sb.dirtyInodes.ReplaceOrInsert(dirtyItem{ino: i.Meta().Ino, inode: i})
	sb.mu.Unlock()
}

// StatFS returns capacity/usage statistics, failing with EIO on device
// failure (§4.3.1).
func (sb *SuperBlock) StatFS() (StatFS, *errno.Errno) {
	if sb.StatFunc == nil {
		return StatFS{}, errno.EIO
	}
	return sb.StatFunc()
}

// SyncFS writes out dirty inodes; wait=false may be asynchronous
// (§4.3.1 sync_fs).
func (sb *SuperBlock) SyncFS(wait bool) *errno.Errno {
	sb.mu.Lock()
	dirty := make([]Inode, 0, sb.dirtyInodes.Len())
	sb.dirtyInodes.Ascend(func(it btree.Item) bool {
		dirty = append(dirty, it.(dirtyItem).inode)
		return true
	})
	sb.mu.Unlock()

	if sb.SyncFunc == nil {
		for _, i := range dirty {
			i.Meta().SetState(StateSynced)
		}
		sb.mu.Lock()
		sb.dirtyInodes = btree.New(32)
		sb.mu.Unlock()
		return nil
	}
	if err := sb.SyncFunc(wait); err != nil {
		return err
	}
	sb.mu.Lock()
	sb.dirtyInodes = btree.New(32)
	sb.mu.Unlock()
	return nil
}
