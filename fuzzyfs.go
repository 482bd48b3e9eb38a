// Package fuzzyfs exposes an existing directory tree through a
// case-insensitive overlay: a request for /Foo/BAR.txt is transparently
// redirected to the actual entry /foo/Bar.TXT when no exact-case match
// exists. The overlay is read-only and holds no state of its own; every
// request is answered against the live host filesystem.
package fuzzyfs

import (
	"io"
	"os"
)

// Host is the slice of the underlying filesystem the resolver and the
// operation adapters depend on. All paths are relative to the configured
// root; the root itself is named ".".
//
// Implementations must surface directory entries in the host's own
// enumeration order. The resolver's tie-break between multiple
// case-insensitive matches is defined as "first in enumeration order",
// which makes it host-dependent, not sorted.
type Host interface {
	// Lstat reports on the entry exactly as named, without following
	// a trailing symbolic link.
	Lstat(name string) (os.FileInfo, error)

	// ListNames returns the directory's entry names in host
	// enumeration order, excluding "." and "..".
	ListNames(name string) ([]string, error)

	// List returns the directory's entries in host enumeration order,
	// each with its inode number and type-derived mode populated.
	List(name string) ([]DirEntry, error)

	// OpenFile opens the named file with the given open(2) flags.
	OpenFile(name string, flags int) (File, error)
}

// File is one open host file. Reads are purely positional; there is no
// implicit seek state.
type File interface {
	io.ReaderAt
	io.Closer
}

// DirEntry is a single directory entry as surfaced to callers. Mode
// carries the entry's type bits only; permission bits are a fixed
// pattern and must not be relied upon.
type DirEntry struct {
	Name string
	Ino  uint64
	Mode uint32
}
