// Package pathwalk implements the component-by-component dentry walk
// (§4.4, C6) on top of internal/vfs's Dentry/base_lookup contract.
//
// Grounded on gvisor.dev/gvisor/pkg/sentry/vfs's own resolveComponent
// loop (a slash-split walk that calls getChild then falls back to
// Lookup on a cache miss), adapted to this module's Dentry type and to
// §4.4's exact three-branch component rule (".", "..",
// otherwise) plus its mount-crossing addition (§4.4).
package pathwalk

import (
	"strings"

	"github.com/rvkernel/core/internal/errno"
	"github.com/rvkernel/core/internal/vfs"
)

// Path describes one resolution request: root is the filesystem root
// (or the innermost mount's root once mount-crossing has occurred),
// start is the lookup's relative origin (the caller's cwd for a
// relative raw path), and raw is the unparsed path string (§4.4).
type Path struct {
	Root  *vfs.Dentry
	Start *vfs.Dentry
	Raw   string

	// NewChild and Lookup are the concrete filesystem's base_new_child
	// and base_lookup, threaded through so this package stays filesystem
	// agnostic (it never imports internal/fs/fat or internal/fs/ext4).
	NewChild func(parent *vfs.Dentry, name string) *vfs.Dentry
	Lookup   func(parent *vfs.Dentry, name string) (vfs.Inode, *errno.Errno)
}

// crossMounts follows d.MountedHere() repeatedly, as a path walk that
// lands on a mount point must continue into the mounted filesystem's
// root rather than stopping on the covered directory
// (§4.4 mount-crossing expansion).
func crossMounts(d *vfs.Dentry) *vfs.Dentry {
	for {
		m := d.MountedHere()
		if m == nil {
			return d
		}
		d = m
	}
}

// Resolve walks p.Raw component by component, returning the final
// dentry (possibly negative, per §4.4 step 4) or ENOENT if an
// intermediate component is negative or ".." is taken past a rootless
// parent.
func (p Path) Resolve() (*vfs.Dentry, *errno.Errno) {
	cur := p.Start
	if strings.HasPrefix(p.Raw, "/") {
		cur = p.Root
	}
	cur = crossMounts(cur)

	parts := strings.Split(p.Raw, "/")
	var comps []string
	for _, c := range parts {
		if c != "" {
			comps = append(comps, c)
		}
	}

	for i, c := range comps {
		last := i == len(comps)-1
		switch c {
		case ".":
			// no change
		case "..":
			if cur.Parent() == nil {
				return nil, errno.ENOENT
			}
			cur = cur.Parent()
		default:
			child := cur.GetChild(c)
			if child == nil {
				var lookupErr *errno.Errno
				child, lookupErr = cur.BaseLookup(c, p.NewChild, func(name string) (vfs.Inode, *errno.Errno) {
					return p.Lookup(cur, name)
				})
				if lookupErr != nil {
					return nil, lookupErr
				}
			}
			if child.IsNegative() && !last {
				return nil, errno.ENOENT
			}
			cur = crossMounts(child)
		}
	}
	return cur, nil
}
