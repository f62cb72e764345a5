package pathwalk

import (
	"testing"

	"github.com/rvkernel/core/internal/errno"
	"github.com/rvkernel/core/internal/vfs"
)

// memInode is a minimal in-memory LookupableInode/DirectoryInode used
// to exercise Resolve without a real filesystem backend.
type memInode struct {
	meta     vfs.InodeMeta
	children map[string]vfs.Inode
}

func newMemDir(sb *vfs.SuperBlock) *memInode {
	return &memInode{
		meta:     vfs.InitInodeMeta(1, sb, vfs.Mode{Type: vfs.TypeDirectory, Perm: 0o755}),
		children: make(map[string]vfs.Inode),
	}
}

func (m *memInode) Meta() *vfs.InodeMeta { return &m.meta }
func (m *memInode) Type() vfs.InodeType  { return vfs.TypeDirectory }
func (m *memInode) GetAttr() vfs.Stat    { return m.meta.GetAttr(0, 512) }

func (m *memInode) LoadDir(d *vfs.Dentry) *errno.Errno { return nil }

func (m *memInode) Lookup(name string) (vfs.Inode, *errno.Errno) {
	i, ok := m.children[name]
	if !ok {
		return nil, nil
	}
	return i, nil
}

func lookupFn(parent *vfs.Dentry, name string) (vfs.Inode, *errno.Errno) {
	di, ok := parent.Inode().(*memInode)
	if !ok {
		return nil, errno.ENOTDIR
	}
	return di.Lookup(name)
}

func buildTree() (*vfs.Dentry, *memInode, *memInode) {
	sb := vfs.NewSuperBlock(vfs.NewFileSystemType("mem", nil), nil)
	root := vfs.NewDentry("/", sb)
	rootInode := newMemDir(sb)
	root.SetInode(rootInode)

	sub := newMemDir(sb)
	rootInode.children["sub"] = sub

	return root, rootInode, sub
}

func TestResolveAbsolutePath(t *testing.T) {
	root, _, sub := buildTree()
	p := Path{Root: root, Start: root, Raw: "/sub", NewChild: vfs.NewChildDentry, Lookup: lookupFn}

	d, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if d.Inode() != sub {
		t.Fatal("Resolve did not land on the expected inode")
	}
}

func TestResolveDotIsNoOp(t *testing.T) {
	root, _, _ := buildTree()
	p := Path{Root: root, Start: root, Raw: "./.", NewChild: vfs.NewChildDentry, Lookup: lookupFn}

	d, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if d != root {
		t.Fatal("a path of only dots should resolve to the start dentry")
	}
}

func TestResolveDotDotGoesToParent(t *testing.T) {
	root, _, _ := buildTree()
	subDentry, err := (Path{Root: root, Start: root, Raw: "/sub", NewChild: vfs.NewChildDentry, Lookup: lookupFn}).Resolve()
	if err != nil {
		t.Fatalf("setup Resolve returned error: %v", err)
	}

	p := Path{Root: root, Start: subDentry, Raw: "..", NewChild: vfs.NewChildDentry, Lookup: lookupFn}
	d, rerr := p.Resolve()
	if rerr != nil {
		t.Fatalf("Resolve returned error: %v", rerr)
	}
	if d != root {
		t.Fatal("'..' from /sub should resolve back to root")
	}
}

func TestResolveDotDotPastRootIsENOENT(t *testing.T) {
	root, _, _ := buildTree()
	p := Path{Root: root, Start: root, Raw: "..", NewChild: vfs.NewChildDentry, Lookup: lookupFn}

	if _, err := p.Resolve(); err != errno.ENOENT {
		t.Fatalf("Resolve('..') past root = %v, want ENOENT", err)
	}
}

func TestResolveMissingIntermediateComponentIsENOENT(t *testing.T) {
	root, _, _ := buildTree()
	p := Path{Root: root, Start: root, Raw: "/nope/leaf", NewChild: vfs.NewChildDentry, Lookup: lookupFn}

	if _, err := p.Resolve(); err != errno.ENOENT {
		t.Fatalf("Resolve through a missing directory = %v, want ENOENT", err)
	}
}

func TestResolveFinalMissingComponentIsNegativeNotError(t *testing.T) {
	root, _, _ := buildTree()
	p := Path{Root: root, Start: root, Raw: "/sub/ghost", NewChild: vfs.NewChildDentry, Lookup: lookupFn}

	d, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve of a nonexistent leaf returned error: %v", err)
	}
	if !d.IsNegative() {
		t.Fatal("a nonexistent leaf component should resolve to a negative dentry, not error")
	}
}

func TestResolveCrossesMountPoint(t *testing.T) {
	root, rootInode, _ := buildTree()

	mountSb := vfs.NewSuperBlock(vfs.NewFileSystemType("mem", nil), nil)
	mountRoot := vfs.NewDentry("/", mountSb)
	mountRootInode := newMemDir(mountSb)
	mountRoot.SetInode(mountRootInode)
	target := newMemDir(mountSb)
	mountRootInode.children["inside"] = target

	mnt := vfs.NewChildDentry(root, "mnt")
	mntInode := newMemDir(root.SB)
	mnt.SetInode(mntInode)
	rootInode.children["mnt"] = mntInode
	root.InsertChild("mnt", mnt)
	mnt.MountHere(mountRoot)

	p := Path{Root: root, Start: root, Raw: "/mnt/inside", NewChild: vfs.NewChildDentry, Lookup: func(parent *vfs.Dentry, name string) (vfs.Inode, *errno.Errno) {
		if parent == mnt {
			return mntInode.Lookup(name)
		}
		return lookupFn(parent, name)
	}}

	d, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve across a mount point returned error: %v", err)
	}
	if d.Inode() != target {
		t.Fatal("path walk did not continue into the mounted filesystem's root")
	}
}
