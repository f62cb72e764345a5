package syscall

import (
	"encoding/binary"

	"github.com/rvkernel/core/internal/errno"
	"github.com/rvkernel/core/internal/fd"
	"github.com/rvkernel/core/internal/pipe"
	"github.com/rvkernel/core/internal/task"
	"github.com/rvkernel/core/internal/trap"
	"github.com/rvkernel/core/internal/vfs"
)

const pathMax = 4096

// atRemoveDir is unlinkat's AT_REMOVEDIR flag (§6 unlinkat): when set,
// a2 selects rmdir semantics instead of unlink.
const atRemoveDir = 0x200

// sysGetcwd copies proc.Cwd's absolute path into the user buffer at a0,
// sized a1, returning the number of bytes written including the
// trailing NUL, matching Linux's getcwd(2) (§6 getcwd).
func sysGetcwd(proc *Process, f *trap.Frame) (task.State, bool) {
	p := proc.Cwd.Path()
	buf := append([]byte(p), 0)
	if len(buf) > int(f.Arg(1)) {
		return retErr(f, errno.EINVAL)
	}
	if err := CopyOutUser(uintptr(f.Arg(0)), buf); err != nil {
		return retErr(f, err)
	}
	return ret(f, int64(len(buf)))
}

// sysChdir resolves a0 as a path and updates proc.Cwd (§6 chdir).
func sysChdir(proc *Process, f *trap.Frame) (task.State, bool) {
	path, err := CopyInString(uintptr(f.Arg(0)), pathMax)
	if err != nil {
		return retErr(f, err)
	}
	d, rerr := proc.resolve(path)
	if rerr != nil {
		return retErr(f, rerr)
	}
	if d.IsNegative() {
		return retErr(f, errno.ENOENT)
	}
	if d.Inode().Type() != vfs.TypeDirectory {
		return retErr(f, errno.ENOTDIR)
	}
	proc.Cwd = d
	return ret(f, 0)
}

// sysOpenat resolves a1 (relative paths against proc.Cwd; the directory
// fd in a0 is not consulted), applying O_CREAT/O_EXCL/O_DIRECTORY, and
// installs the resulting File at the smallest free fd (§6 openat).
// O_TRUNC is not applied: an existing file keeps its contents.
func sysOpenat(proc *Process, f *trap.Frame) (task.State, bool) {
	path, err := CopyInString(uintptr(f.Arg(1)), pathMax)
	if err != nil {
		return retErr(f, err)
	}
	flags := vfs.OpenFlags(f.Arg(2))

	d, rerr := proc.resolve(path)
	if rerr != nil {
		return retErr(f, rerr)
	}
	if d.IsNegative() {
		if !flags.Has(vfs.OCREAT) {
			return retErr(f, errno.ENOENT)
		}
		parent := d.Parent()
		if parent == nil {
			return retErr(f, errno.EINVAL)
		}
		ci, ok := parent.Inode().(vfs.CreatableInode)
		if !ok {
			return retErr(f, errno.ENOSYS)
		}
		mode := vfs.Mode{Type: vfs.TypeRegular, Perm: uint16(f.Arg(3))}
		created, cerr := parent.BaseCreate(d.Name, mode, genericNewChild, ci.Create)
		if cerr != nil {
			return retErr(f, cerr)
		}
		d = created
	} else if flags.Has(vfs.OEXCL) && flags.Has(vfs.OCREAT) {
		return retErr(f, errno.EEXIST)
	}
	if flags.Has(vfs.ODIRECTORY) && d.Inode().Type() != vfs.TypeDirectory {
		return retErr(f, errno.ENOTDIR)
	}

	file, oerr := d.BaseOpen(flags)
	if oerr != nil {
		return retErr(f, oerr)
	}
	fdn := proc.Fds.Alloc(file, fd.Flags{CloseOnExec: flags.Has(vfs.OCLOEXEC)})
	return ret(f, int64(fdn))
}

// sysClose closes the fd in a0 (§6 close).
func sysClose(proc *Process, f *trap.Frame) (task.State, bool) {
	if err := proc.Fds.Close(int(f.Arg(0))); err != nil {
		return retErr(f, err)
	}
	return ret(f, 0)
}

// sysDup duplicates a0 at the smallest free slot (dup(2)).
func sysDup(proc *Process, f *trap.Frame) (task.State, bool) {
	nfd, err := proc.Fds.Dup(int(f.Arg(0)))
	if err != nil {
		return retErr(f, err)
	}
	return ret(f, int64(nfd))
}

// sysDup3 installs a fresh reference to a0's file at exactly a1 (§6
// dup3). Per §8's invariant, get(new).inode == get(old).inode
// afterward.
func sysDup3(proc *Process, f *trap.Frame) (task.State, bool) {
	if err := proc.Fds.DupAt(int(f.Arg(0)), int(f.Arg(1))); err != nil {
		return retErr(f, err)
	}
	return ret(f, int64(f.Arg(1)))
}

// sysPipe2 creates a connected pipe and installs both ends via a0, an
// int[2] user buffer, applying a1's O_CLOEXEC to both ends and its
// O_NONBLOCK to the read end (pipe writes never suspend) (§6 pipe2,
// §4.6).
func sysPipe2(proc *Process, f *trap.Frame) (task.State, bool) {
	flags := vfs.OpenFlags(f.Arg(1))
	r, w := pipe.NewPair(0)
	r.SetNonblock(flags.Has(vfs.ONONBLOCK))
	cloexec := fd.Flags{CloseOnExec: flags.Has(vfs.OCLOEXEC)}
	rfd := proc.Fds.Alloc(r, cloexec)
	wfd := proc.Fds.Alloc(w, cloexec)

	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(rfd))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(wfd))
	if err := CopyOutUser(uintptr(f.Arg(0)), buf[:]); err != nil {
		return retErr(f, err)
	}
	return ret(f, 0)
}

// sysRead dispatches to the fd's concrete type: a pipe's read is
// suspending (§4.6), a regular File's read is not (§4.3.4).
func sysRead(proc *Process, f *trap.Frame) (task.State, bool) {
	desc, err := proc.Fds.Get(int(f.Arg(0)))
	if err != nil {
		return retErr(f, err)
	}
	n := int(f.Arg(2))
	buf := make([]byte, n)

	switch d := desc.(type) {
	case *pipe.PipeReadFile:
		out := &pipe.ReadOutcome{}
		inner := d.Read(buf, out)
		return pipeReadContinuation(inner, out, buf, f), false
	case *vfs.File:
		readN, rerr := d.Read(buf)
		if rerr != nil {
			return retErr(f, rerr)
		}
		if cerr := CopyOutUser(uintptr(f.Arg(1)), buf[:readN]); cerr != nil {
			return retErr(f, cerr)
		}
		return ret(f, int64(readN))
	default:
		return retErr(f, errno.EBADF)
	}
}

// pipeReadContinuation wraps a pipe read's State so the syscall's
// return value is only finalized (copy-out + SetReturn) once the inner
// State completes; until then it just re-polls inner, matching the
// "next == receiver while not ready" contract (§4.2).
func pipeReadContinuation(inner task.State, out *pipe.ReadOutcome, buf []byte, f *trap.Frame) task.State {
	var self task.State
	self = task.FromFunc(func(t *task.Task) (task.State, bool) {
		next, ready := inner.Poll(t)
		if !ready {
			inner = next
			return self, false
		}
		if out.Err != nil {
			return retErr(f, out.Err)
		}
		if cerr := CopyOutUser(uintptr(f.Arg(1)), buf[:out.N]); cerr != nil {
			return retErr(f, cerr)
		}
		return ret(f, int64(out.N))
	})
	return self
}

// sysWrite dispatches similarly to sysRead; both pipe writes and
// regular-file writes are non-suspending (§4.6 "never suspends").
func sysWrite(proc *Process, f *trap.Frame) (task.State, bool) {
	desc, err := proc.Fds.Get(int(f.Arg(0)))
	if err != nil {
		return retErr(f, err)
	}
	n := int(f.Arg(2))
	buf := make([]byte, n)
	if cerr := CopyInUser(uintptr(f.Arg(1)), buf); cerr != nil {
		return retErr(f, cerr)
	}

	switch d := desc.(type) {
	case *pipe.PipeWriteFile:
		written, werr := d.Write(buf)
		if werr != nil {
			return retErr(f, werr)
		}
		return ret(f, int64(written))
	case *vfs.File:
		written, werr := d.Write(buf)
		if werr != nil {
			return retErr(f, werr)
		}
		return ret(f, int64(written))
	default:
		return retErr(f, errno.EBADF)
	}
}

// sysLseek repositions a regular File's offset (§4.3.4 seek).
func sysLseek(proc *Process, f *trap.Frame) (task.State, bool) {
	desc, err := proc.Fds.Get(int(f.Arg(0)))
	if err != nil {
		return retErr(f, err)
	}
	file, ok := desc.(*vfs.File)
	if !ok {
		return retErr(f, errno.EINVAL)
	}
	newOff, serr := file.Seek(int64(f.Arg(1)), vfs.SeekWhence(f.Arg(2)))
	if serr != nil {
		return retErr(f, serr)
	}
	return ret(f, newOff)
}

// sysMkdirat creates a directory at a1, a relative path being resolved
// against proc.Cwd; the directory fd in a0 is not consulted (§6
// mkdirat, §4.3.3 base_create with mode.type=directory).
func sysMkdirat(proc *Process, f *trap.Frame) (task.State, bool) {
	path, cerr := CopyInString(uintptr(f.Arg(1)), pathMax)
	if cerr != nil {
		return retErr(f, cerr)
	}
	d, rerr := proc.resolve(path)
	if rerr != nil {
		return retErr(f, rerr)
	}
	if !d.IsNegative() {
		return retErr(f, errno.EEXIST)
	}
	parent := d.Parent()
	if parent == nil {
		return retErr(f, errno.EINVAL)
	}
	ci, ok := parent.Inode().(vfs.CreatableInode)
	if !ok {
		return retErr(f, errno.ENOSYS)
	}
	mode := vfs.Mode{Type: vfs.TypeDirectory, Perm: uint16(f.Arg(2))}
	if _, err := parent.BaseCreate(d.Name, mode, genericNewChild, ci.Create); err != nil {
		return retErr(f, err)
	}
	return ret(f, 0)
}

// sysUnlinkat removes a non-directory entry, or a directory when a2
// carries AT_REMOVEDIR (§6 unlinkat, §4.3.3 base_unlink/base_rmdir).
func sysUnlinkat(proc *Process, f *trap.Frame) (task.State, bool) {
	return removeAt(proc, f, f.Arg(2)&atRemoveDir != 0)
}

func removeAt(proc *Process, f *trap.Frame, rmdir bool) (task.State, bool) {
	path, cerr := CopyInString(uintptr(f.Arg(1)), pathMax)
	if cerr != nil {
		return retErr(f, cerr)
	}
	idx := len(path)
	for idx > 0 && path[idx-1] != '/' {
		idx--
	}
	parentPath, name := path[:idx], path[idx:]
	if parentPath == "" {
		parentPath = "."
	}
	parent, rerr := proc.resolve(parentPath)
	if rerr != nil {
		return retErr(f, rerr)
	}
	ri, ok := parent.Inode().(vfs.RemovableInode)
	if !ok {
		return retErr(f, errno.ENOSYS)
	}
	li, ok := parent.Inode().(vfs.LookupableInode)
	if !ok {
		return retErr(f, errno.ENOSYS)
	}
	var err *errno.Errno
	if rmdir {
		err = parent.BaseRmdir(name, genericNewChild, li.Lookup, ri.Remove)
	} else {
		err = parent.BaseUnlink(name, genericNewChild, li.Lookup, ri.Remove)
	}
	if err != nil {
		return retErr(f, err)
	}
	return ret(f, 0)
}

// sysLinkat is not supported by either backing filesystem (FAT has no
// hard links; this ext4 wrapper does not implement link creation) and
// returns ENOSYS (§6 linkat, §4.7 "FAT has no hard links").
func sysLinkat(proc *Process, f *trap.Frame) (task.State, bool) {
	return retErr(f, errno.ENOSYS)
}

// sysMount and sysUmount2 are intentionally minimal: this kernel's
// mount table (internal/vfs.FileSystemType) is wired per-backend at
// boot by cmd/kernel from internal/bootcfg's mount list, not
// dynamically re-mountable from a
// syscall in this kernel's current scope; both return ENOSYS here,
// leaving the hook point documented for a fuller implementation.
func sysMount(proc *Process, f *trap.Frame) (task.State, bool) {
	return retErr(f, errno.ENOSYS)
}

func sysUmount2(proc *Process, f *trap.Frame) (task.State, bool) {
	return retErr(f, errno.ENOSYS)
}

// sysGetdents64 fills the user buffer at a1 with up to a2 bytes of
// Linux-layout dirent64 records for the directory fd in a0 (§6
// getdents64, §4.3.4 base_read_dir).
func sysGetdents64(proc *Process, f *trap.Frame) (task.State, bool) {
	desc, err := proc.Fds.Get(int(f.Arg(0)))
	if err != nil {
		return retErr(f, err)
	}
	file, ok := desc.(*vfs.File)
	if !ok {
		return retErr(f, errno.EBADF)
	}
	if lerr := file.BaseLoadDir(); lerr != nil {
		return retErr(f, lerr)
	}
	entries, derr := file.BaseReadDir()
	if derr != nil {
		return retErr(f, derr)
	}

	bufCap := int(f.Arg(2))
	out := make([]byte, 0, bufCap)
	for _, e := range entries {
		rec := encodeDirent(e)
		if len(out)+len(rec) > bufCap {
			break
		}
		out = append(out, rec...)
	}
	if cerr := CopyOutUser(uintptr(f.Arg(1)), out); cerr != nil {
		return retErr(f, cerr)
	}
	return ret(f, int64(len(out)))
}

// encodeDirent lays out one Linux dirent64: d_ino(u64) d_off(u64)
// d_reclen(u16) d_type(u8) name NUL padded to 8-byte alignment.
func encodeDirent(e vfs.DirEntry) []byte {
	nameBytes := append([]byte(e.Name), 0)
	reclen := 19 + len(nameBytes)
	reclen = (reclen + 7) &^ 7
	rec := make([]byte, reclen)
	binary.LittleEndian.PutUint64(rec[0:8], e.Ino)
	binary.LittleEndian.PutUint64(rec[8:16], e.Off)
	binary.LittleEndian.PutUint16(rec[16:18], uint16(reclen))
	rec[18] = direntType(e.Type)
	copy(rec[19:], nameBytes)
	return rec
}

func direntType(t vfs.InodeType) byte {
	switch t {
	case vfs.TypeDirectory:
		return 4
	case vfs.TypeRegular:
		return 8
	case vfs.TypeSymlink:
		return 10
	case vfs.TypeFIFO:
		return 1
	case vfs.TypeSocket:
		return 12
	case vfs.TypeCharDevice:
		return 2
	case vfs.TypeBlockDevice:
		return 6
	default:
		return 0
	}
}

// sysFstat writes the Linux stat layout for the fd in a0 to the buffer
// at a1 (§6 "stat").
func sysFstat(proc *Process, f *trap.Frame) (task.State, bool) {
	desc, err := proc.Fds.Get(int(f.Arg(0)))
	if err != nil {
		return retErr(f, err)
	}
	file, ok := desc.(*vfs.File)
	if !ok {
		return retErr(f, errno.EBADF)
	}
	st := file.Inode().GetAttr()
	if cerr := CopyOutUser(uintptr(f.Arg(1)), encodeStat(st)); cerr != nil {
		return retErr(f, cerr)
	}
	return ret(f, 0)
}

// sysFstatat resolves a1 (relative paths against proc.Cwd; the
// directory fd in a0 is not consulted) and writes its stat to a2 (§6
// fstatat).
func sysFstatat(proc *Process, f *trap.Frame) (task.State, bool) {
	path, cerr := CopyInString(uintptr(f.Arg(1)), pathMax)
	if cerr != nil {
		return retErr(f, cerr)
	}
	d, rerr := proc.resolve(path)
	if rerr != nil {
		return retErr(f, rerr)
	}
	if d.IsNegative() {
		return retErr(f, errno.ENOENT)
	}
	st := d.Inode().GetAttr()
	if werr := CopyOutUser(uintptr(f.Arg(2)), encodeStat(st)); werr != nil {
		return retErr(f, werr)
	}
	return ret(f, 0)
}

// encodeStat lays out §6's stat fields in declared order.
func encodeStat(st vfs.Stat) []byte {
	buf := make([]byte, 128)
	binary.LittleEndian.PutUint64(buf[0:8], st.Dev)
	binary.LittleEndian.PutUint64(buf[8:16], st.Ino)
	binary.LittleEndian.PutUint32(buf[16:20], st.Mode)
	binary.LittleEndian.PutUint32(buf[20:24], st.Nlink)
	binary.LittleEndian.PutUint32(buf[24:28], st.UID)
	binary.LittleEndian.PutUint32(buf[28:32], st.GID)
	binary.LittleEndian.PutUint64(buf[32:40], st.Rdev)
	// _pad: u64 at [40:48]
	binary.LittleEndian.PutUint64(buf[48:56], st.Size)
	binary.LittleEndian.PutUint32(buf[56:60], st.Blksize)
	// _pad2: u32 at [60:64]
	binary.LittleEndian.PutUint64(buf[64:72], st.Blocks)
	binary.LittleEndian.PutUint64(buf[72:80], uint64(st.Atime.Sec))
	binary.LittleEndian.PutUint64(buf[80:88], uint64(st.Atime.Nsec))
	binary.LittleEndian.PutUint64(buf[88:96], uint64(st.Mtime.Sec))
	binary.LittleEndian.PutUint64(buf[96:104], uint64(st.Mtime.Nsec))
	binary.LittleEndian.PutUint64(buf[104:112], uint64(st.Ctime.Sec))
	binary.LittleEndian.PutUint64(buf[112:120], uint64(st.Ctime.Nsec))
	// _unused: u64 at [120:128]
	return buf
}
