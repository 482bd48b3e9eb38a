package filesystem

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/fuzzyfs"
)

// DirHandle identifies an open directory snapshot.
type DirHandle uint64

// FileHandle identifies an open host file.
type FileHandle uint64

// dirState is the listing captured when a directory was opened. Reads
// against the handle replay this snapshot.
type dirState struct {
	entries []fuzzyfs.DirEntry
}

// handleTable issues process-unique handles and maps them to open
// state. Handles are never reused within a process.
type handleTable struct {
	lastID atomic.Uint64
	dirs   *xsync.Map[DirHandle, *dirState]
	files  *xsync.Map[FileHandle, fuzzyfs.File]
}

func newHandleTable() *handleTable {
	return &handleTable{
		dirs:  xsync.NewMap[DirHandle, *dirState](),
		files: xsync.NewMap[FileHandle, fuzzyfs.File](),
	}
}

func (t *handleTable) putDir(st *dirState) DirHandle {
	h := DirHandle(t.lastID.Add(1))
	t.dirs.Store(h, st)
	return h
}

func (t *handleTable) putFile(f fuzzyfs.File) FileHandle {
	h := FileHandle(t.lastID.Add(1))
	t.files.Store(h, f)
	return h
}
