// Package fd implements the per-process file-descriptor table (§4.5,
// C7): a dense array of (Descriptor, flags) slots with smallest-free-
// slot allocation.
//
// Grounded on gvisor.dev/gvisor/pkg/sentry/kernel.FDTable: a
// mutex-guarded descriptor table keyed by a dense integer, with
// CloseOnExec carried per slot rather than on the File itself. Trimmed
// to a plain slice (no sparse map) since this kernel's fd space is
// small and §4.5 describes array semantics directly ("Dense
// array", "extending the array if needed").
package fd

import (
	"sync"

	"github.com/rvkernel/core/internal/errno"
)

// Descriptor is anything a table slot can hold: an open vfs.File or
// either half of a pipe (internal/pipe). The table only needs IncRef
// (on install/dup) and Close (on removal); callers obtain the concrete
// type back from Get via a type assertion to invoke read/write/seek.
type Descriptor interface {
	IncRef()
	Close()
}

// Flags are the per-descriptor flags that survive independent of the
// underlying Descriptor's own open flags (§4.5).
type Flags struct {
	CloseOnExec bool
}

type slot struct {
	file  Descriptor
	flags Flags
}

// Table is a process's open file-descriptor table (§3 "process has a
// private fd table"). The zero value is not usable; construct with New.
type Table struct {
	mu    sync.Mutex
	slots []*slot // nil entry == free slot
}

// New constructs a table with fds 0/1/2 bound to tty, per §4.5 ("Index
// 0/1/2 at construction are bound to the tty device; closing them is
// allowed").
func New(tty Descriptor) *Table {
	t := &Table{slots: make([]*slot, 3)}
	for i := 0; i < 3; i++ {
		tty.IncRef()
		t.slots[i] = &slot{file: tty}
	}
	return t
}

// smallestFreeLocked returns the first free index at or above lower,
// extending t.slots if every existing slot at or above lower is taken
// (§4.5 alloc / dup_with_bound).
func (t *Table) smallestFreeLocked(lower int) int {
	for i := lower; i < len(t.slots); i++ {
		if t.slots[i] == nil {
			return i
		}
	}
	for len(t.slots) < lower {
		t.slots = append(t.slots, nil)
	}
	return len(t.slots)
}

// Alloc installs f at the smallest free slot (§4.5 alloc).
func (t *Table) Alloc(f Descriptor, flags Flags) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.smallestFreeLocked(0)
	if idx == len(t.slots) {
		t.slots = append(t.slots, nil)
	}
	f.IncRef()
	t.slots[idx] = &slot{file: f, flags: flags}
	return idx
}

// Get returns the Descriptor installed at fd, or EBADF if fd is out of
// range or free (§4.5 "All index lookups past the end yield EBADF").
func (t *Table) Get(fdn int) (Descriptor, *errno.Errno) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fdn < 0 || fdn >= len(t.slots) || t.slots[fdn] == nil {
		return nil, errno.EBADF
	}
	return t.slots[fdn].file, nil
}

// Close drops fd's reference and frees the slot.
func (t *Table) Close(fdn int) *errno.Errno {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fdn < 0 || fdn >= len(t.slots) || t.slots[fdn] == nil {
		return errno.EBADF
	}
	s := t.slots[fdn]
	t.slots[fdn] = nil
	s.file.Close()
	return nil
}

// Dup installs a fresh reference to old's file at the smallest free
// slot (dup(2)).
func (t *Table) Dup(old int) (int, *errno.Errno) {
	t.mu.Lock()
	var f Descriptor
	flags := Flags{}
	if old >= 0 && old < len(t.slots) && t.slots[old] != nil {
		f, flags = t.slots[old].file, t.slots[old].flags
	}
	t.mu.Unlock()
	if f == nil {
		return 0, errno.EBADF
	}
	flags.CloseOnExec = false // dup(2)/dup3(2) without O_CLOEXEC clear it
	return t.installAt(f, flags, 0), nil
}

// DupWithBound allocates the smallest free slot >= lower and installs a
// fresh reference to old's file there, padding with empty slots as
// needed (§4.5 dup_with_bound: the fcntl(F_DUPFD) primitive; dup3 uses
// DupAt).
func (t *Table) DupWithBound(old, lower int) (int, *errno.Errno) {
	t.mu.Lock()
	var f Descriptor
	flags := Flags{}
	if old >= 0 && old < len(t.slots) && t.slots[old] != nil {
		f, flags = t.slots[old].file, t.slots[old].flags
	}
	t.mu.Unlock()
	if f == nil {
		return 0, errno.EBADF
	}
	flags.CloseOnExec = false
	return t.installAt(f, flags, lower), nil
}

// DupAt installs a fresh reference to old's file at exactly newFd,
// closing whatever previously occupied newFd first (dup3(2)'s explicit
// "new" semantics, distinct from DupWithBound's "smallest >= lower").
func (t *Table) DupAt(old, newFd int) *errno.Errno {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old < 0 || old >= len(t.slots) || t.slots[old] == nil {
		return errno.EBADF
	}
	if newFd < 0 {
		return errno.EBADF
	}
	f, flags := t.slots[old].file, t.slots[old].flags
	flags.CloseOnExec = false
	for len(t.slots) <= newFd {
		t.slots = append(t.slots, nil)
	}
	if t.slots[newFd] != nil {
		t.slots[newFd].file.Close()
	}
	f.IncRef()
	t.slots[newFd] = &slot{file: f, flags: flags}
	return nil
}

func (t *Table) installAt(f Descriptor, flags Flags, lower int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.smallestFreeLocked(lower)
	if idx == len(t.slots) {
		t.slots = append(t.slots, nil)
	}
	f.IncRef()
	t.slots[idx] = &slot{file: f, flags: flags}
	return idx
}

// CloseOnExec clears every slot whose flags have CloseOnExec set
// (§4.5 close_on_exec, run at exec(2)).
func (t *Table) CloseOnExec() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.slots {
		if s != nil && s.flags.CloseOnExec {
			s.file.Close()
			t.slots[i] = nil
		}
	}
}

// Fork returns a new Table sharing every currently open Descriptor (a
// fresh reference per slot), the fork(2)/clone(2) fd-table-copy
// semantics (§5 "Fd table: per-process mutex; copied on fork").
func (t *Table) Fork() *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	nt := &Table{slots: make([]*slot, len(t.slots))}
	for i, s := range t.slots {
		if s == nil {
			continue
		}
		s.file.IncRef()
		nt.slots[i] = &slot{file: s.file, flags: s.flags}
	}
	return nt
}
