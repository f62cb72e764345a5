package fd

import (
	"testing"

	"github.com/rvkernel/core/internal/errno"
)

type countingDescriptor struct {
	refs   int
	closed int
}

func (d *countingDescriptor) IncRef() { d.refs++ }
func (d *countingDescriptor) Close()  { d.closed++ }

func TestNewBindsStdioToTty(t *testing.T) {
	tty := &countingDescriptor{}
	tbl := New(tty)

	for fdn := 0; fdn < 3; fdn++ {
		got, err := tbl.Get(fdn)
		if err != nil {
			t.Fatalf("Get(%d) returned error: %v", fdn, err)
		}
		if got != tty {
			t.Fatalf("fd %d is not bound to tty", fdn)
		}
	}
	if tty.refs != 3 {
		t.Fatalf("tty.refs = %d, want 3 (one per stdio slot)", tty.refs)
	}
}

func TestAllocPicksSmallestFreeSlot(t *testing.T) {
	tbl := New(&countingDescriptor{})
	tbl.Close(1)

	f := &countingDescriptor{}
	idx := tbl.Alloc(f, Flags{})
	if idx != 1 {
		t.Fatalf("Alloc() = %d, want 1 (the freed slot)", idx)
	}
}

func TestAllocExtendsTableWhenFull(t *testing.T) {
	tbl := New(&countingDescriptor{})
	f := &countingDescriptor{}
	idx := tbl.Alloc(f, Flags{})
	if idx != 3 {
		t.Fatalf("Alloc() on a full table = %d, want 3", idx)
	}
}

func TestGetOutOfRangeIsEBADF(t *testing.T) {
	tbl := New(&countingDescriptor{})
	if _, err := tbl.Get(99); err != errno.EBADF {
		t.Fatalf("Get(99) = %v, want EBADF", err)
	}
}

func TestCloseFreesSlotAndDropsRef(t *testing.T) {
	tbl := New(&countingDescriptor{})
	f := &countingDescriptor{}
	idx := tbl.Alloc(f, Flags{})

	if err := tbl.Close(idx); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if f.closed != 1 {
		t.Fatalf("Close() on the descriptor ran %d times, want 1", f.closed)
	}
	if _, err := tbl.Get(idx); err != errno.EBADF {
		t.Fatal("slot should be free again after Close")
	}
	if err := tbl.Close(idx); err != errno.EBADF {
		t.Fatalf("double Close = %v, want EBADF", err)
	}
}

func TestDupInstallsAtSmallestFreeSlotAndClearsCloexec(t *testing.T) {
	tbl := New(&countingDescriptor{})
	f := &countingDescriptor{}
	old := tbl.Alloc(f, Flags{CloseOnExec: true})

	newFd, err := tbl.Dup(old)
	if err != nil {
		t.Fatalf("Dup returned error: %v", err)
	}
	if newFd != 4 {
		t.Fatalf("Dup() = %d, want 4 (smallest free slot)", newFd)
	}
	if f.refs < 2 {
		t.Fatal("Dup should take a fresh reference on the descriptor")
	}

	tbl.CloseOnExec()
	if _, err := tbl.Get(newFd); err != nil {
		t.Fatal("dup'd fd should survive CloseOnExec since dup(2) clears the flag")
	}
}

func TestDupWithBoundRespectsLowerBound(t *testing.T) {
	tbl := New(&countingDescriptor{})
	f := &countingDescriptor{}
	old := tbl.Alloc(f, Flags{})

	newFd, err := tbl.DupWithBound(old, 10)
	if err != nil {
		t.Fatalf("DupWithBound returned error: %v", err)
	}
	if newFd != 10 {
		t.Fatalf("DupWithBound(_, 10) = %d, want 10", newFd)
	}
}

func TestDupAtClosesPreviousOccupant(t *testing.T) {
	tbl := New(&countingDescriptor{})
	oldFile := &countingDescriptor{}
	old := tbl.Alloc(oldFile, Flags{})
	victim := &countingDescriptor{}
	tbl.Alloc(victim, Flags{})
	victimFd := old + 1

	if err := tbl.DupAt(old, victimFd); err != nil {
		t.Fatalf("DupAt returned error: %v", err)
	}
	if victim.closed != 1 {
		t.Fatal("DupAt should close whatever previously occupied the target fd")
	}
	got, _ := tbl.Get(victimFd)
	if got != oldFile {
		t.Fatal("target fd should now refer to old's descriptor")
	}
}

func TestForkSharesDescriptorsWithFreshRefs(t *testing.T) {
	tbl := New(&countingDescriptor{})
	f := &countingDescriptor{}
	idx := tbl.Alloc(f, Flags{})
	refsBefore := f.refs

	child := tbl.Fork()

	got, err := child.Get(idx)
	if err != nil {
		t.Fatalf("forked table missing fd %d: %v", idx, err)
	}
	if got != f {
		t.Fatal("forked table should share the same underlying descriptor")
	}
	if f.refs <= refsBefore {
		t.Fatal("Fork should take a fresh reference per slot")
	}

	child.Close(idx)
	if f.closed != 0 {
		t.Fatal("closing the fd in the child should not affect the parent's table")
	}
}
