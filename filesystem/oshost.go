package filesystem

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/brettbedarf/fuzzyfs"
)

// OSHost serves host filesystem access through the os package. The zero
// value resolves paths against the process working directory, which the
// server points at the overlay root before mounting.
type OSHost struct {
	// Dir optionally anchors all paths under a directory instead of the
	// working directory. Used by tests to avoid chdir.
	Dir string
}

var _ fuzzyfs.Host = OSHost{}

func (h OSHost) join(name string) string {
	if h.Dir == "" {
		return name
	}
	return filepath.Join(h.Dir, name)
}

func (h OSHost) Lstat(name string) (os.FileInfo, error) {
	return os.Lstat(h.join(name))
}

// ListNames returns the directory's entry names in the order the host
// reports them. os.ReadDir sorts, which would discard that order, so
// this reads the raw stream instead.
func (h OSHost) ListNames(name string) ([]string, error) {
	d, err := os.Open(h.join(name))
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Readdirnames(-1)
}

func (h OSHost) List(name string) ([]fuzzyfs.DirEntry, error) {
	d, err := os.Open(h.join(name))
	if err != nil {
		return nil, err
	}
	defer d.Close()

	dirents, err := d.ReadDir(-1)
	if err != nil {
		return nil, err
	}

	entries := make([]fuzzyfs.DirEntry, 0, len(dirents))
	for _, ent := range dirents {
		e := fuzzyfs.DirEntry{
			Name: ent.Name(),
			Mode: typeMode(ent.Type()),
		}
		if fi, err := ent.Info(); err == nil {
			if st, ok := fi.Sys().(*syscall.Stat_t); ok {
				e.Ino = st.Ino
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (h OSHost) OpenFile(name string, flags int) (fuzzyfs.File, error) {
	return os.OpenFile(h.join(name), flags, 0)
}

// typeMode maps an os.FileMode type to the S_IFMT bits a FUSE dirent
// carries.
func typeMode(m os.FileMode) uint32 {
	switch m & os.ModeType {
	case os.ModeDir:
		return syscall.S_IFDIR
	case os.ModeSymlink:
		return syscall.S_IFLNK
	case os.ModeNamedPipe:
		return syscall.S_IFIFO
	case os.ModeSocket:
		return syscall.S_IFSOCK
	case os.ModeCharDevice | os.ModeDevice:
		return syscall.S_IFCHR
	case os.ModeDevice:
		return syscall.S_IFBLK
	default:
		return syscall.S_IFREG
	}
}
