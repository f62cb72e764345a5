package vfs

import (
	"github.com/rvkernel/core/internal/errno"
)

// fakeDirInode is an in-memory directory backing store implementing
// LookupableInode, CreatableInode, and RemovableInode, used to exercise
// Dentry's base_* operations without a real FAT/ext4 backend.
type fakeDirInode struct {
	meta     InodeMeta
	children map[string]Inode
}

func newFakeDirInode(sb *SuperBlock) *fakeDirInode {
	return &fakeDirInode{
		meta:     InitInodeMeta(1, sb, Mode{Type: TypeDirectory, Perm: 0o755}),
		children: make(map[string]Inode),
	}
}

func (f *fakeDirInode) Meta() *InodeMeta { return &f.meta }
func (f *fakeDirInode) Type() InodeType  { return TypeDirectory }
func (f *fakeDirInode) GetAttr() Stat    { return f.meta.GetAttr(0, 512) }

func (f *fakeDirInode) LoadDir(d *Dentry) *errno.Errno {
	for name, child := range f.children {
		cd := NewChildDentry(d, name)
		cd.SetInode(child)
		d.InsertChild(name, cd)
	}
	return nil
}

func (f *fakeDirInode) Lookup(name string) (Inode, *errno.Errno) {
	i, ok := f.children[name]
	if !ok {
		return nil, nil
	}
	return i, nil
}

func (f *fakeDirInode) Create(name string, mode Mode) (Inode, *errno.Errno) {
	if _, exists := f.children[name]; exists {
		return nil, errno.EEXIST
	}
	var i Inode
	if mode.Type == TypeDirectory {
		i = newFakeDirInode(f.meta.SB)
	} else {
		i = newFakeFileInode(f.meta.SB)
	}
	f.children[name] = i
	return i, nil
}

func (f *fakeDirInode) Remove(name string) *errno.Errno {
	if _, ok := f.children[name]; !ok {
		return errno.ENOENT
	}
	delete(f.children, name)
	return nil
}

// fakeFileInode is an in-memory regular file implementing
// RegularFileInode.
type fakeFileInode struct {
	meta InodeMeta
	data []byte
}

func newFakeFileInode(sb *SuperBlock) *fakeFileInode {
	return &fakeFileInode{meta: InitInodeMeta(2, sb, Mode{Type: TypeRegular, Perm: 0o644})}
}

func (f *fakeFileInode) Meta() *InodeMeta { return &f.meta }
func (f *fakeFileInode) Type() InodeType  { return TypeRegular }
func (f *fakeFileInode) GetAttr() Stat    { return f.meta.GetAttr(0, 512) }

func (f *fakeFileInode) ReadAt(off uint64, buf []byte) (int, *errno.Errno) {
	if off >= uint64(len(f.data)) {
		return 0, nil
	}
	n := copy(buf, f.data[off:])
	return n, nil
}

func (f *fakeFileInode) WriteAt(off uint64, buf []byte) (int, *errno.Errno) {
	end := off + uint64(len(buf))
	if end > uint64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[off:end], buf)
	return len(buf), nil
}

func (f *fakeFileInode) Flush() *errno.Errno { return nil }
