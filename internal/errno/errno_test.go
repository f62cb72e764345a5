package errno

import "testing"

func TestToLinux(t *testing.T) {
	tests := []struct {
		name string
		in   *Errno
		want int64
	}{
		{"nil is success", nil, 0},
		{"ENOENT", ENOENT, -2},
		{"EIO", EIO, -5},
		{"ENOSYS", ENOSYS, -38},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToLinux(tc.in); got != tc.want {
				t.Errorf("ToLinux(%v) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestFromNum(t *testing.T) {
	if got := FromNum(ENOENT.Num()); got != ENOENT {
		t.Errorf("FromNum(ENOENT.Num()) = %v, want ENOENT", got)
	}
	if got := FromNum(9999); got != EIO {
		t.Errorf("FromNum(unknown) = %v, want EIO (fallback)", got)
	}
}

func TestIs(t *testing.T) {
	if !EACCES.Is(EACCES) {
		t.Error("EACCES.Is(EACCES) should be true")
	}
	if EACCES.Is(EPERM) {
		t.Error("EACCES.Is(EPERM) should be false")
	}
	if EACCES.Is(nil) {
		t.Error("EACCES.Is(nil) should be false")
	}
}

func TestEqualityIsIdentity(t *testing.T) {
	// Two Errno values compare equal iff they are the same package-level
	// sentinel, not merely the same errno number under a fresh struct.
	other := newErrno(EACCES.Num(), EACCES.Error())
	if other == EACCES {
		t.Fatal("newErrno with the same fields produced the same pointer")
	}
	if other.Is(EACCES) {
		t.Error("a distinct *Errno with the same num should not satisfy Is")
	}
}
