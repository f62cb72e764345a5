package vfs

import (
	"sort"
	"sync"

	"github.com/rvkernel/core/internal/errno"
	"github.com/rvkernel/core/internal/refcount"
)

// Dentry is a node in the cached name tree (§3, §4.3.3 "the central
// abstraction"). Grounded directly on
// gvisor.dev/gvisor/pkg/sentry/fsimpl/kernfs.Dentry: a vfsd-equivalent
// identity, an embedded Inode, and a dirMu-style mutex guarding the
// children map, here named childMu to avoid the "dir" qualifier on a
// struct that also represents non-directory (negative, file, symlink)
// dentries.
type Dentry struct {
	refcount.Count

	Name   string // non-empty; "/" for a root (§3 invariant)
	SB     *SuperBlock
	parent *Dentry // weak: absent only for root (§3, §9)

	// mountedHere is set when a FileSystemType.Mount call inserted a
	// child superblock's root dentry at this node (§4.3.5 "mount point
	// coverage"); the path resolver (C6) follows it when a walk would
	// otherwise stop on this Dentry.
	mountedHere *Dentry

	childMu  sync.Mutex
	children map[string]*Dentry // ordered-by-name on read, via sortedNames()

	inodeMu sync.Mutex
	inode   Inode // nil => negative dentry
}

// NewDentry constructs a Dentry named name under sb, with no parent
// (used only for a filesystem's root; base_new_child constructs every
// other Dentry so its parent link is always set correctly).
func NewDentry(name string, sb *SuperBlock) *Dentry {
	d := &Dentry{Name: name, SB: sb, children: make(map[string]*Dentry)}
	d.Count.Init()
	return d
}

// NewChildDentry constructs a negative child of parent named name; a
// concrete filesystem's own base_new_child calls this to get a
// correctly-parented, correctly-superblocked Dentry shell before
// installing a filesystem-specific Inode into it (§4.3.3
// base_new_child: "constructs a negative child of the correct concrete
// type for this filesystem": the concrete type lives in the Inode this
// shell is later given, not in the Dentry shell itself).
func NewChildDentry(parent *Dentry, name string) *Dentry {
	d := &Dentry{Name: name, SB: parent.SB, parent: parent, children: make(map[string]*Dentry)}
	d.Count.Init()
	return d
}

// Parent returns d's parent, or nil at a superblock root.
func (d *Dentry) Parent() *Dentry { return d.parent }

// Inode returns d's inode, or nil if d is negative.
func (d *Dentry) Inode() Inode {
	d.inodeMu.Lock()
	defer d.inodeMu.Unlock()
	return d.inode
}

// IsNegative reports whether d names an absent file (§3 "Dentry",
// "Negative dentry" in the glossary).
func (d *Dentry) IsNegative() bool {
	return d.Inode() == nil
}

// setInode installs i as d's inode, making d positive. Used by
// base_create and by directory population during base_lookup/load_dir.
func (d *Dentry) setInode(i Inode) {
	d.inodeMu.Lock()
	d.inode = i
	d.inodeMu.Unlock()
}

// SetInode installs i as d's inode, making d positive. Exported for use
// by a concrete filesystem's base_load_dir (§4.3.4), which populates
// many children at once outside the single-name base_lookup/base_create
// path.
func (d *Dentry) SetInode(i Inode) { d.setInode(i) }

// InsertChild records child under name, for the same base_load_dir
// bulk-population use as SetInode.
func (d *Dentry) InsertChild(name string, child *Dentry) { d.insertChild(name, child) }

// ClearInode drops d's inode, turning d negative again (§4.3.3
// clear_inode, used by unlink/rmdir). Invariant 5: a dentry drops its
// inode only when explicitly cleared.
func (d *Dentry) ClearInode() {
	d.inodeMu.Lock()
	d.inode = nil
	d.inodeMu.Unlock()
}

// GetChild returns the already-cached child dentry named name, or nil
// if none is cached yet (§4.3.3 helper "get_child").
func (d *Dentry) GetChild(name string) *Dentry {
	d.childMu.Lock()
	defer d.childMu.Unlock()
	return d.children[name]
}

// insertChild records child under name; used by base_lookup (to cache
// both positive and negative results) and by base_create/base_new_child.
func (d *Dentry) insertChild(name string, child *Dentry) {
	d.childMu.Lock()
	d.children[name] = child
	d.childMu.Unlock()
}

func (d *Dentry) removeChildLocked(name string) {
	delete(d.children, name)
}

// GetChildOrCreate returns the cached child named name, constructing and
// caching a fresh negative child via BaseNewChild if none exists yet
// (§4.3.3 helper "get_child_or_create"). newChildFn is the concrete
// filesystem's base_new_child.
func (d *Dentry) GetChildOrCreate(name string, newChildFn func(parent *Dentry, name string) *Dentry) *Dentry {
	d.childMu.Lock()
	defer d.childMu.Unlock()
	if c, ok := d.children[name]; ok {
		return c
	}
	c := newChildFn(d, name)
	d.children[name] = c
	return c
}

// sortedChildNames returns the current children's names in sorted order
// (§3 "an ordered-by-name map of named children"), used by
// base_read_dir to produce stable getdents64 output.
func (d *Dentry) sortedChildNames() []string {
	d.childMu.Lock()
	defer d.childMu.Unlock()
	names := make([]string, 0, len(d.children))
	for n := range d.children {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MountHere records that a child superblock's root was mounted at d
// (§4.3.5). The path resolver follows MountedHere when walking through
// d, per §4.4's mount-crossing addition.
func (d *Dentry) MountHere(root *Dentry) { d.mountedHere = root }

// MountedHere returns the mounted-over root dentry, if any.
func (d *Dentry) MountedHere() *Dentry { return d.mountedHere }

// Path walks parents from d back to the first dentry with no parent,
// joining names with "/" (§4.3.3 helper "path()"). Every superblock
// root has no parent, including the root FileSystemType.Mount builds
// for a mounted filesystem, so for a dentry inside a mount the result
// is relative to that mount's root: Path does not cross mount points.
func (d *Dentry) Path() string {
	if d.parent == nil {
		return "/"
	}
	var parts []string
	cur := d
	for cur.parent != nil {
		parts = append([]string{cur.Name}, parts...)
		cur = cur.parent
	}
	joined := "/"
	for i, p := range parts {
		if i > 0 {
			joined += "/"
		}
		joined += p
	}
	return joined
}

// BaseOpen returns a new File bound to d, failing if d is negative
// (§4.3.3 base_open).
func (d *Dentry) BaseOpen(flags OpenFlags) (*File, *errno.Errno) {
	i := d.Inode()
	if i == nil {
		return nil, errno.ENOENT
	}
	return newFile(d, i, flags), nil
}

// BaseLookup searches the backing directory for name, returning a
// (possibly negative, cached-for-future-misses) child dentry; it fails
// only on real I/O errors (§4.3.3 base_lookup). The concrete filesystem
// supplies lookupFn, which must return (nil, nil) to mean "not found"
// (BaseLookup then synthesizes and caches the negative dentry itself)
// or (inode, nil) on a hit.
func (d *Dentry) BaseLookup(name string, newChildFn func(parent *Dentry, name string) *Dentry, lookupFn func(name string) (Inode, *errno.Errno)) (*Dentry, *errno.Errno) {
	if c := d.GetChild(name); c != nil {
		return c, nil
	}
	i, err := lookupFn(name)
	if err != nil {
		return nil, err
	}
	child := newChildFn(d, name)
	if i != nil {
		child.setInode(i)
	}
	d.insertChild(name, child)
	return child, nil
}

// BaseCreate creates a regular file or directory under d named name
// according to mode.Type, reusing an existing negative child if one is
// already cached (§4.3.3 base_create). createFn performs the concrete
// filesystem's on-disk/in-memory creation and returns the new Inode.
func (d *Dentry) BaseCreate(name string, mode Mode, newChildFn func(parent *Dentry, name string) *Dentry, createFn func(name string, mode Mode) (Inode, *errno.Errno)) (*Dentry, *errno.Errno) {
	child := d.GetChildOrCreate(name, newChildFn)
	if !child.IsNegative() {
		return nil, errno.EEXIST
	}
	i, err := createFn(name, mode)
	if err != nil {
		return nil, err
	}
	child.setInode(i)
	return child, nil
}

// BaseUnlink removes a non-directory child (§4.3.3 base_unlink):
// EISDIR if the target is a directory. name is resolved via BaseLookup
// rather than GetChild alone, so an entry nothing has looked up yet
// (no cached dentry) is still found instead of spuriously ENOENT.
func (d *Dentry) BaseUnlink(name string, newChildFn func(parent *Dentry, name string) *Dentry, lookupFn func(name string) (Inode, *errno.Errno), removeFn func(name string) *errno.Errno) *errno.Errno {
	child, err := d.BaseLookup(name, newChildFn, lookupFn)
	if err != nil {
		return err
	}
	if child.IsNegative() {
		return errno.ENOENT
	}
	if child.Inode().Type() == TypeDirectory {
		return errno.EISDIR
	}
	if err := removeFn(name); err != nil {
		return err
	}
	child.ClearInode()
	d.childMu.Lock()
	d.removeChildLocked(name)
	d.childMu.Unlock()
	return nil
}

// BaseRmdir removes a directory child (§4.3.3 base_rmdir): ENOTDIR if
// the target is not a directory. Like BaseUnlink, name is resolved via
// BaseLookup so an un-cached directory entry is still found.
func (d *Dentry) BaseRmdir(name string, newChildFn func(parent *Dentry, name string) *Dentry, lookupFn func(name string) (Inode, *errno.Errno), removeFn func(name string) *errno.Errno) *errno.Errno {
	child, err := d.BaseLookup(name, newChildFn, lookupFn)
	if err != nil {
		return err
	}
	if child.IsNegative() {
		return errno.ENOENT
	}
	if child.Inode().Type() != TypeDirectory {
		return errno.ENOTDIR
	}
	if err := removeFn(name); err != nil {
		return err
	}
	child.ClearInode()
	d.childMu.Lock()
	d.removeChildLocked(name)
	d.childMu.Unlock()
	return nil
}
