package vfs

import "testing"

func TestGetAttrModeEncodesLinuxSIfmt(t *testing.T) {
	cases := []struct {
		typ  InodeType
		want uint32
	}{
		{TypeFIFO, 0o010000},
		{TypeCharDevice, 0o020000},
		{TypeDirectory, 0o040000},
		{TypeBlockDevice, 0o060000},
		{TypeRegular, 0o100000},
		{TypeSymlink, 0o120000},
		{TypeSocket, 0o140000},
	}
	for _, c := range cases {
		m := InitInodeMeta(1, nil, Mode{Type: c.typ, Perm: 0o644})
		st := m.GetAttr(0, 512)
		wantMode := c.want | 0o644
		if st.Mode != wantMode {
			t.Fatalf("GetAttr(%v).Mode = %#o, want %#o", c.typ, st.Mode, wantMode)
		}
	}
}
