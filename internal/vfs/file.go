package vfs

import (
	"sync/atomic"

	"github.com/rvkernel/core/internal/errno"
	"github.com/rvkernel/core/internal/refcount"
)

// File is an open-file description (§3, §4.3.4). Grounded on
// gvisor.dev/gvisor/pkg/sentry/vfs.FileDescription's shape (dentry +
// offset + flags) but bound directly to this package's own Dentry/Inode
// rather than going through a separate FileDescriptionImpl capability
// split, since §4.3.4 specifies File's operations directly.
type File struct {
	refcount.Count

	dentry *Dentry // strong ownership (§3 Ownership)
	inode  Inode   // strong ownership, == dentry.Inode() at open time (invariant 3)
	flags  OpenFlags

	offset int64 // atomically mutable (§3 "File")
}

func newFile(d *Dentry, i Inode, flags OpenFlags) *File {
	d.IncRef()
	f := &File{dentry: d, inode: i, flags: flags}
	f.Count.Init()
	return f
}

// Dentry returns the dentry this File was opened against. Later rename
// or unlink may detach it, but the File's reference remains valid
// (invariant 3).
func (f *File) Dentry() *Dentry { return f.dentry }

// Inode returns the inode captured at open time.
func (f *File) Inode() Inode { return f.inode }

// Flags returns the open-time flags.
func (f *File) Flags() OpenFlags { return f.flags }

// Close drops File's ownership of its dentry. Safe to call more than
// once only through the fd table, which ensures a single Close per
// reference (§4.5).
func (f *File) Close() {
	f.Count.DecRef(func() {
		f.dentry.Count.DecRef(nil)
	})
}

// BaseReadAt reads into buf at offset, delegating to the backing
// RegularFileInode; directories fail with EISDIR (§4.3.4).
func (f *File) BaseReadAt(offset uint64, buf []byte) (int, *errno.Errno) {
	if f.inode.Type() == TypeDirectory {
		return 0, errno.EISDIR
	}
	rf, ok := f.inode.(RegularFileInode)
	if !ok {
		return 0, errno.EINVAL
	}
	return rf.ReadAt(offset, buf)
}

// BaseWriteAt writes buf at offset, delegating to the backing
// RegularFileInode. Writes that begin past end-of-file are expected to
// zero-fill the gap (the concrete backend's responsibility, §4.3.4);
// writes that extend the file update size via InodeMeta.SetSize.
func (f *File) BaseWriteAt(offset uint64, buf []byte) (int, *errno.Errno) {
	if f.inode.Type() == TypeDirectory {
		return 0, errno.EISDIR
	}
	rf, ok := f.inode.(RegularFileInode)
	if !ok {
		return 0, errno.EINVAL
	}
	n, err := rf.WriteAt(offset, buf)
	if err != nil {
		return n, err
	}
	if end := offset + uint64(n); end > f.inode.Meta().Size() {
		f.inode.Meta().SetSize(end)
	}
	return n, nil
}

// Read reads at the file's current offset and advances it, the
// convenience path most syscalls use (read(2), not pread(2)).
func (f *File) Read(buf []byte) (int, *errno.Errno) {
	off := atomic.LoadInt64(&f.offset)
	n, err := f.BaseReadAt(uint64(off), buf)
	if err != nil {
		return n, err
	}
	atomic.AddInt64(&f.offset, int64(n))
	return n, nil
}

// Write writes at the file's current offset and advances it.
func (f *File) Write(buf []byte) (int, *errno.Errno) {
	off := atomic.LoadInt64(&f.offset)
	if f.flags.Has(OAPPEND) {
		off = int64(f.inode.Meta().Size())
	}
	n, err := f.BaseWriteAt(uint64(off), buf)
	if err != nil {
		return n, err
	}
	atomic.AddInt64(&f.offset, int64(n))
	return n, nil
}

// BaseReadDir returns one page of directory entries without mutating
// the dentry tree (§4.3.4 base_read_dir): a snapshot of the positive
// children already cached in the dentry tree, suitable for getdents64.
// The backing store is not read here; BaseLoadDir populates the cache.
func (f *File) BaseReadDir() ([]DirEntry, *errno.Errno) {
	if f.inode.Type() != TypeDirectory {
		return nil, errno.ENOTDIR
	}
	names := f.dentry.sortedChildNames()
	entries := make([]DirEntry, 0, len(names))
	for i, name := range names {
		c := f.dentry.GetChild(name)
		if c == nil || c.IsNegative() {
			continue
		}
		entries = append(entries, DirEntry{
			Ino:  c.Inode().Meta().Ino,
			Off:  uint64(i + 1),
			Type: c.Inode().Type(),
			Name: name,
		})
	}
	return entries, nil
}

// BaseLoadDir materializes all of the backing directory's immediate
// children into the dentry tree and marks the directory inode Synced
// (§4.3.4 base_load_dir, §3 invariant 4).
func (f *File) BaseLoadDir() *errno.Errno {
	if f.inode.Type() != TypeDirectory {
		return errno.ENOTDIR
	}
	di, ok := f.inode.(DirectoryInode)
	if !ok {
		return errno.EINVAL
	}
	if f.inode.Meta().State() != StateInit {
		return nil
	}
	if err := di.LoadDir(f.dentry); err != nil {
		return err
	}
	f.inode.Meta().SetState(StateSynced)
	return nil
}

// Flush flushes any buffered writes, delegating to RegularFileInode
// where present; a no-op for directories and synthetic files (§4.3.4).
func (f *File) Flush() *errno.Errno {
	if rf, ok := f.inode.(RegularFileInode); ok {
		return rf.Flush()
	}
	return nil
}

// Ioctl's default implementation returns ENOTTY (§4.3.4); concrete
// files (tty, pipe) override by implementing ioctlFile below.
type ioctlFile interface {
	Ioctl(cmd uint64, arg uintptr) (uintptr, *errno.Errno)
}

func (f *File) Ioctl(cmd uint64, arg uintptr) (uintptr, *errno.Errno) {
	if io, ok := f.inode.(ioctlFile); ok {
		return io.Ioctl(cmd, arg)
	}
	return 0, errno.ENOTTY
}

// Poll's default implementation returns whichever of POLLIN/POLLOUT the
// caller requested (§4.3.4), i.e. "always ready", the base spec's
// documented default for files with no real readiness model.
type pollFile interface {
	Poll(events PollEvents) PollEvents
}

func (f *File) Poll(events PollEvents) PollEvents {
	if p, ok := f.inode.(pollFile); ok {
		return p.Poll(events)
	}
	return events
}

// Seek interprets Start/Current/End with a size lookup and is
// thread-safe via the atomic offset field (§4.3.4).
func (f *File) Seek(pos int64, whence SeekWhence) (int64, *errno.Errno) {
	var base int64
	switch whence {
	case SeekStart:
		base = 0
	case SeekCurrent:
		base = atomic.LoadInt64(&f.offset)
	case SeekEnd:
		base = int64(f.inode.Meta().Size())
	default:
		return 0, errno.EINVAL
	}
	newOff := base + pos
	if newOff < 0 {
		return 0, errno.EINVAL
	}
	atomic.StoreInt64(&f.offset, newOff)
	return newOff, nil
}
