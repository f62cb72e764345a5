package vfs

import (
	"sync"

	"github.com/rvkernel/core/internal/errno"
	"github.com/rvkernel/core/internal/hal"
)

// FileSystemType names a mountable filesystem driver (FAT, ext4, pipefs,
// ...) and tracks every SuperBlock it has produced, keyed by the path it
// was mounted at (§4.3.1, §4.3.5). Grounded on
// gvisor.dev/gvisor/pkg/sentry/vfs.FilesystemType, trimmed to this
// package's single-mount-table-per-type shape.
type FileSystemType struct {
	Name string

	// MountFunc constructs a fresh SuperBlock + root Inode for a new
	// mount of dev (nil for synthetic filesystems); the concrete backend
	// supplies this (internal/fs/fat, internal/fs/ext4, internal/pipe).
	MountFunc func(dev hal.BlockDevice) (*SuperBlock, Inode, *errno.Errno)

	mu          sync.Mutex
	superblocks map[string]*SuperBlock // keyed by mount path
}

// NewFileSystemType constructs a named, empty FileSystemType.
func NewFileSystemType(name string, mountFn func(dev hal.BlockDevice) (*SuperBlock, Inode, *errno.Errno)) *FileSystemType {
	return &FileSystemType{
		Name:        name,
		MountFunc:   mountFn,
		superblocks: make(map[string]*SuperBlock),
	}
}

// Mount constructs a new SuperBlock for dev, builds its root dentry, and
// covers mountAt (the Dentry of the existing directory being mounted
// over) so the path resolver crosses into the new filesystem from that
// point on (§4.3.5 base_mount, §4.4 mount-crossing
// expansion). mountPath is purely a bookkeeping key for later umount2
// lookups; it carries no resolution semantics of its own.
func (fst *FileSystemType) Mount(mountPath string, mountAt *Dentry, dev hal.BlockDevice) (*SuperBlock, *errno.Errno) {
	sb, rootInode, err := fst.MountFunc(dev)
	if err != nil {
		return nil, err
	}
	root := NewDentry("/", sb)
	root.setInode(rootInode)
	sb.SetRootDentry(root)

	if mountAt != nil {
		mountAt.MountHere(root)
	}

	fst.mu.Lock()
	fst.superblocks[mountPath] = sb
	fst.mu.Unlock()
	return sb, nil
}

// Unmount drops the SuperBlock registered at mountPath and clears the
// covered dentry's mount-point link, if any (§4.3.5 base_unmount,
// invoked by the umount2 syscall, C10).
func (fst *FileSystemType) Unmount(mountPath string, mountAt *Dentry) *errno.Errno {
	fst.mu.Lock()
	sb, ok := fst.superblocks[mountPath]
	if ok {
		delete(fst.superblocks, mountPath)
	}
	fst.mu.Unlock()
	if !ok {
		return errno.EINVAL
	}
	if err := sb.SyncFS(true); err != nil {
		return err
	}
	if mountAt != nil {
		mountAt.MountHere(nil)
	}
	return nil
}

// SuperBlockAt returns the SuperBlock mounted at mountPath, or nil.
func (fst *FileSystemType) SuperBlockAt(mountPath string) *SuperBlock {
	fst.mu.Lock()
	defer fst.mu.Unlock()
	return fst.superblocks[mountPath]
}
