// Package fuse binds the case-insensitive filesystem to the kernel
// through go-fuse's node API. Nodes are keyed by path; the host tree
// is re-consulted on every kernel request so the overlay tracks live
// changes underneath it.
package fuse

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/brettbedarf/fuzzyfs"
	"github.com/brettbedarf/fuzzyfs/config"
	"github.com/brettbedarf/fuzzyfs/filesystem"
	"github.com/brettbedarf/fuzzyfs/internal/util"
)

type Node struct {
	gofuse.Inode

	fsys   *filesystem.FileSystem
	cfg    *config.Config
	logger zerolog.Logger

	// path is the node's kernel-visible path, rooted at "/". Child
	// nodes keep the casing the kernel looked them up with; the
	// filesystem layer re-resolves per operation.
	path string
}

var (
	_ gofuse.NodeAccesser  = (*Node)(nil)
	_ gofuse.NodeLookuper  = (*Node)(nil)
	_ gofuse.NodeGetattrer = (*Node)(nil)
	_ gofuse.NodeOpendirer = (*Node)(nil)
	_ gofuse.NodeReaddirer = (*Node)(nil)
	_ gofuse.NodeOpener    = (*Node)(nil)
	_ gofuse.NodeStatfser  = (*Node)(nil)
)

// NewRoot returns the root node for a mount over fsys.
func NewRoot(fsys *filesystem.FileSystem, cfg *config.Config) *Node {
	return &Node{
		fsys:   fsys,
		cfg:    cfg,
		logger: util.GetLogger("Node"),
		path:   "/",
	}
}

func (n *Node) childPath(name string) string {
	if n.path == "/" {
		return "/" + name
	}
	return n.path + "/" + name
}

// Access reports every permission as granted; the host enforces real
// permissions when operations reach it.
func (n *Node) Access(ctx context.Context, mask uint32) syscall.Errno {
	return 0
}

func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	path := n.childPath(name)
	fi, err := n.fsys.Getattr(path)
	if err != nil {
		return nil, n.errnoOf(path, err)
	}

	fillAttr(fi, &out.Attr)
	out.SetAttrTimeout(secondsDuration(n.cfg.AttrTimeout))
	out.SetEntryTimeout(secondsDuration(n.cfg.EntryTimeout))

	child := &Node{fsys: n.fsys, cfg: n.cfg, logger: n.logger, path: path}
	return n.NewInode(ctx, child, stableOf(&out.Attr)), 0
}

func (n *Node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	fi, err := n.fsys.Getattr(n.path)
	if err != nil {
		return n.errnoOf(n.path, err)
	}
	fillAttr(fi, &out.Attr)
	out.SetTimeout(secondsDuration(n.cfg.AttrTimeout))
	return 0
}

func (n *Node) Opendir(ctx context.Context) syscall.Errno {
	fi, err := n.fsys.Getattr(n.path)
	if err != nil {
		return n.errnoOf(n.path, err)
	}
	if !fi.IsDir() {
		return syscall.ENOTDIR
	}
	return 0
}

func (n *Node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	h, err := n.fsys.OpenDir(n.path)
	if err != nil {
		return nil, n.errnoOf(n.path, err)
	}
	entries, err := n.fsys.ReadDir(h)
	if err != nil {
		_ = n.fsys.ReleaseDir(h)
		return nil, n.errnoOf(n.path, err)
	}
	return &dirStream{fsys: n.fsys, handle: h, entries: entries, logger: n.logger}, 0
}

func (n *Node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	h, err := n.fsys.OpenFile(n.path, int(flags))
	if err != nil {
		return nil, 0, n.errnoOf(n.path, err)
	}
	return &fileHandle{fsys: n.fsys, handle: h}, 0, 0
}

// Statfs forwards the host filesystem's usage figures, taken at the
// overlay root.
func (n *Node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	var st unix.Statfs_t
	if err := unix.Statfs(filesystem.CurrentDir, &st); err != nil {
		return gofuse.ToErrno(err)
	}
	out.Blocks = st.Blocks
	out.Bfree = st.Bfree
	out.Bavail = st.Bavail
	out.Files = st.Files
	out.Ffree = st.Ffree
	out.Bsize = uint32(st.Bsize)
	out.NameLen = uint32(st.Namelen)
	out.Frsize = uint32(st.Frsize)
	return 0
}

// errnoOf maps an operation error to a kernel errno. Inconsistency
// between a directory listing and a follow-up access is the one case
// that must not read as a missing file, so it logs and reports EIO.
func (n *Node) errnoOf(path string, err error) syscall.Errno {
	var inc *fuzzyfs.InconsistencyError
	if errors.As(err, &inc) {
		n.logger.Error().Str("path", path).Str("resolved", inc.Resolved).Err(inc.Err).
			Msg("Host changed between resolution and retry")
		return syscall.EIO
	}
	return gofuse.ToErrno(err)
}

func secondsDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// fillAttr copies host stat data into a FUSE attr. Sizes and times
// come straight from the host so the overlay is indistinguishable from
// the tree beneath it.
func fillAttr(fi os.FileInfo, out *fuse.Attr) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		out.Mode = uint32(fi.Mode().Perm())
		if fi.IsDir() {
			out.Mode |= syscall.S_IFDIR
		} else {
			out.Mode |= syscall.S_IFREG
		}
		out.Size = uint64(fi.Size())
		out.SetTimes(nil, ptrTime(fi.ModTime()), nil)
		return
	}
	out.Ino = st.Ino
	out.Size = uint64(st.Size)
	out.Blocks = uint64(st.Blocks)
	out.Blksize = uint32(st.Blksize)
	out.Atime = uint64(st.Atim.Sec)
	out.Atimensec = uint32(st.Atim.Nsec)
	out.Mtime = uint64(st.Mtim.Sec)
	out.Mtimensec = uint32(st.Mtim.Nsec)
	out.Ctime = uint64(st.Ctim.Sec)
	out.Ctimensec = uint32(st.Ctim.Nsec)
	out.Mode = uint32(st.Mode)
	out.Nlink = uint32(st.Nlink)
	out.Owner = fuse.Owner{Uid: st.Uid, Gid: st.Gid}
	out.Rdev = uint32(st.Rdev)
}

func stableOf(attr *fuse.Attr) gofuse.StableAttr {
	return gofuse.StableAttr{Mode: attr.Mode & syscall.S_IFMT, Ino: attr.Ino}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
