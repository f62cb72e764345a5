package syscall

import (
	"github.com/rvkernel/core/internal/errno"
	"github.com/rvkernel/core/internal/fd"
	"github.com/rvkernel/core/internal/pathwalk"
	"github.com/rvkernel/core/internal/pipe"
	"github.com/rvkernel/core/internal/task"
	"github.com/rvkernel/core/internal/trap"
	"github.com/rvkernel/core/internal/vfs"
)

// Process bundles the per-process state a syscall handler needs (§3
// "process has a private fd table", §4 Process entity):
// the open-file table, the filesystem root, and the current working
// directory. Mutating Cwd is itself not thread-safe across concurrent
// syscalls on the same process; callers serialize per-process syscall
// entry the way a single-threaded task naturally does.
type Process struct {
	Fds  *fd.Table
	Root *vfs.Dentry
	Cwd  *vfs.Dentry
}

// genericNewChild and genericLookup let internal/pathwalk stay
// filesystem-agnostic: any concrete directory inode implementing
// vfs.LookupableInode plugs in here without the dispatcher needing a
// separate closure per backend.
func genericNewChild(parent *vfs.Dentry, name string) *vfs.Dentry {
	return vfs.NewChildDentry(parent, name)
}

func genericLookup(parent *vfs.Dentry, name string) (vfs.Inode, *errno.Errno) {
	li, ok := parent.Inode().(vfs.LookupableInode)
	if !ok {
		return nil, errno.ENOTDIR
	}
	return li.Lookup(name)
}

// resolve walks rawPath from p.Root/p.Cwd per §4.4.
func (p *Process) resolve(rawPath string) (*vfs.Dentry, *errno.Errno) {
	pw := pathwalk.Path{
		Root: p.Root, Start: p.Cwd, Raw: rawPath,
		NewChild: genericNewChild, Lookup: genericLookup,
	}
	return pw.Resolve()
}

// Handler is one syscall's implementation: decode f's arguments, run
// the operation against proc (possibly suspending via the returned
// task.State), and leave the Linux-ABI return value set in f via
// f.SetReturn before signaling completion.
//
// Most handlers are non-suspending and return (nil, true) immediately;
// read(2) on a pipe is the one handler in this table that returns a
// non-nil State (§4.6 "Read... yields its task").
type Handler func(proc *Process, f *trap.Frame) (next task.State, ready bool)

// Table is the fixed dispatch table (§4.8), indexed by syscall number.
var Table = map[uint64]Handler{
	SysGetcwd:     sysGetcwd,
	SysDup:        sysDup,
	SysDup3:       sysDup3,
	SysMkdirat:    sysMkdirat,
	SysUnlinkat:   sysUnlinkat,
	SysLinkat:     sysLinkat,
	SysUmount2:    sysUmount2,
	SysMount:      sysMount,
	SysChdir:      sysChdir,
	SysOpenat:     sysOpenat,
	SysClose:      sysClose,
	SysPipe2:      sysPipe2,
	SysGetdents64: sysGetdents64,
	SysLseek:      sysLseek,
	SysRead:       sysRead,
	SysWrite:      sysWrite,
	SysFstatat:    sysFstatat,
	SysFstat:      sysFstat,
}

// Dispatch decodes f's syscall number (a7/x17) and runs the matching
// handler, returning ENOSYS for anything not in Table (§7 taxonomy).
func Dispatch(proc *Process, f *trap.Frame) (next task.State, ready bool) {
	h, ok := Table[f.SyscallNumber()]
	if !ok {
		f.SetReturn(uint64(errno.ToLinux(errno.ENOSYS)))
		return nil, true
	}
	return h(proc, f)
}

func ret(f *trap.Frame, val int64) (task.State, bool) {
	f.SetReturn(uint64(val))
	return nil, true
}

func retErr(f *trap.Frame, e *errno.Errno) (task.State, bool) {
	f.SetReturn(uint64(errno.ToLinux(e)))
	return nil, true
}
