// Package console implements the boot console as an ordinary
// vfs.RegularFileInode backed by a hal.UART, so fds 0/1/2 go through
// the exact same File.Read/File.Write path every other open file does
// rather than a special-cased tty type in internal/fd (§4.5 "Index
// 0/1/2 at construction are bound to the tty device").
package console

import (
	"github.com/rvkernel/core/internal/errno"
	"github.com/rvkernel/core/internal/hal"
	"github.com/rvkernel/core/internal/vfs"
)

// Inode wraps a hal.UART as a character device (§4.3.2 TypeCharDevice).
type Inode struct {
	meta vfs.InodeMeta
	uart hal.UART
}

// New constructs a console Inode bound to sb and backed by uart.
func New(sb *vfs.SuperBlock, uart hal.UART) *Inode {
	return &Inode{
		meta: vfs.InitInodeMeta(0, sb, vfs.Mode{Type: vfs.TypeCharDevice, Perm: 0o666}),
		uart: uart,
	}
}

func (i *Inode) Meta() *vfs.InodeMeta { return &i.meta }
func (i *Inode) Type() vfs.InodeType  { return vfs.TypeCharDevice }

func (i *Inode) GetAttr() vfs.Stat {
	return i.meta.GetAttr(0, 1)
}

// ReadAt ignores off: a console has no real position, every read just
// drains the next available bytes from the UART.
func (i *Inode) ReadAt(off uint64, buf []byte) (int, *errno.Errno) {
	for n := range buf {
		b, err := i.uart.ReadByte()
		if err != nil {
			if n == 0 {
				return 0, errno.EIO
			}
			return n, nil
		}
		buf[n] = b
	}
	return len(buf), nil
}

// WriteAt ignores off for the same reason ReadAt does.
func (i *Inode) WriteAt(off uint64, buf []byte) (int, *errno.Errno) {
	for n, b := range buf {
		if err := i.uart.WriteByte(b); err != nil {
			return n, errno.EIO
		}
	}
	return len(buf), nil
}

func (i *Inode) Flush() *errno.Errno { return nil }

// NewFile constructs a positive, unparented Dentry around a fresh
// console Inode and opens it read-write, ready to install at fds 0/1/2
// via fd.New (§4.5).
func NewFile(sb *vfs.SuperBlock, uart hal.UART) (*vfs.File, *errno.Errno) {
	d := vfs.NewDentry("console", sb)
	d.SetInode(New(sb, uart))
	return d.BaseOpen(vfs.ORDWR)
}
