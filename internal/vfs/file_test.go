package vfs

import (
	"bytes"
	"testing"

	"github.com/rvkernel/core/internal/errno"
)

func TestFileReadWriteRoundTrip(t *testing.T) {
	sb := NewSuperBlock(NewFileSystemType("fake", nil), nil)
	d := NewDentry("f", sb)
	fi := newFakeFileInode(sb)
	d.SetInode(fi)

	f, err := d.BaseOpen(ORDWR)
	if err != nil {
		t.Fatalf("BaseOpen returned error: %v", err)
	}

	n, werr := f.Write([]byte("hello"))
	if werr != nil || n != 5 {
		t.Fatalf("Write() = %d, %v, want 5, nil", n, werr)
	}
	if got := fi.Meta().Size(); got != 5 {
		t.Fatalf("size after write-extend = %d, want 5", got)
	}

	if _, err := f.Seek(0, SeekStart); err != nil {
		t.Fatalf("Seek returned error: %v", err)
	}
	buf := make([]byte, 5)
	n, rerr := f.Read(buf)
	if rerr != nil || n != 5 || !bytes.Equal(buf, []byte("hello")) {
		t.Fatalf("Read() = %d, %q, %v, want 5, %q, nil", n, buf, rerr, "hello")
	}
}

func TestFileReadAtOnDirectoryFails(t *testing.T) {
	sb := NewSuperBlock(NewFileSystemType("fake", nil), nil)
	d := NewDentry("dir", sb)
	d.SetInode(newFakeDirInode(sb))

	f, err := d.BaseOpen(ORDONLY)
	if err != nil {
		t.Fatalf("BaseOpen returned error: %v", err)
	}
	if _, rerr := f.Read(make([]byte, 1)); rerr != errno.EISDIR {
		t.Fatalf("Read() on a directory = %v, want EISDIR", rerr)
	}
}

func TestFileAppendAlwaysWritesAtEnd(t *testing.T) {
	sb := NewSuperBlock(NewFileSystemType("fake", nil), nil)
	d := NewDentry("f", sb)
	fi := newFakeFileInode(sb)
	d.SetInode(fi)

	f, _ := d.BaseOpen(OWRONLY | OAPPEND)
	f.Write([]byte("abc"))
	f.Seek(0, SeekStart) // seeking back must not matter under O_APPEND
	f.Write([]byte("def"))

	if got := string(fi.data); got != "abcdef" {
		t.Fatalf("data after two appends = %q, want %q", got, "abcdef")
	}
}

func TestFileBaseLoadDirThenReadDir(t *testing.T) {
	sb := NewSuperBlock(NewFileSystemType("fake", nil), nil)
	root := NewDentry("/", sb)
	ri := newFakeDirInode(sb)
	root.SetInode(ri)
	ri.children["a"] = newFakeFileInode(sb)
	ri.children["b"] = newFakeDirInode(sb)

	f, err := root.BaseOpen(ORDONLY | ODIRECTORY)
	if err != nil {
		t.Fatalf("BaseOpen returned error: %v", err)
	}
	if lerr := f.BaseLoadDir(); lerr != nil {
		t.Fatalf("BaseLoadDir returned error: %v", lerr)
	}
	if fi := f.Inode().Meta().State(); fi != StateSynced {
		t.Fatalf("directory state after load_dir = %v, want StateSynced", fi)
	}

	entries, derr := f.BaseReadDir()
	if derr != nil {
		t.Fatalf("BaseReadDir returned error: %v", derr)
	}
	if len(entries) != 2 {
		t.Fatalf("BaseReadDir returned %d entries, want 2", len(entries))
	}
	if entries[0].Name != "a" || entries[1].Name != "b" {
		t.Fatalf("entries not sorted by name: %+v", entries)
	}
}

func TestFileSeekRejectsNegativeResult(t *testing.T) {
	sb := NewSuperBlock(NewFileSystemType("fake", nil), nil)
	d := NewDentry("f", sb)
	d.SetInode(newFakeFileInode(sb))
	f, _ := d.BaseOpen(ORDONLY)

	if _, err := f.Seek(-1, SeekStart); err != errno.EINVAL {
		t.Fatalf("Seek to a negative offset = %v, want EINVAL", err)
	}
}

func TestFileDefaultIoctlIsENOTTY(t *testing.T) {
	sb := NewSuperBlock(NewFileSystemType("fake", nil), nil)
	d := NewDentry("f", sb)
	d.SetInode(newFakeFileInode(sb))
	f, _ := d.BaseOpen(ORDONLY)

	if _, err := f.Ioctl(0, 0); err != errno.ENOTTY {
		t.Fatalf("Ioctl on a plain file = %v, want ENOTTY", err)
	}
}
