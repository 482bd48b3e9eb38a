// Package filesystem implements the case-insensitive view over a host
// directory tree. Operations try the path exactly as given first and
// fall back to case resolution only when the host reports it missing,
// so exact-case access never pays for a directory listing.
package filesystem

import (
	"errors"
	"io"
	"io/fs"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/brettbedarf/fuzzyfs"
	"github.com/brettbedarf/fuzzyfs/internal/metrics"
	"github.com/brettbedarf/fuzzyfs/internal/util"
)

type FileSystem struct {
	host     fuzzyfs.Host
	resolver *Resolver
	handles  *handleTable
	met      *metrics.Metrics
	logger   zerolog.Logger
}

func New(host fuzzyfs.Host, met *metrics.Metrics) *FileSystem {
	if met == nil {
		met = metrics.New(nil)
	}
	return &FileSystem{
		host:     host,
		resolver: NewResolver(host, met),
		handles:  newHandleTable(),
		met:      met,
		logger:   util.GetLogger("FileSystem"),
	}
}

// withFallback runs op against the normalized path, and on not-found
// resolves the case and retries once. Non-not-found errors from the
// first attempt propagate untouched, as does the original not-found
// when resolution finds no match. A retry that still comes back
// not-found means the host changed between the listing and the retry;
// that surfaces as a fuzzyfs.InconsistencyError rather than a
// not-found so callers can tell the two apart.
func withFallback[T any](fsys *FileSystem, path string, op func(name string) (T, error)) (T, error) {
	name := Normalize(path)
	v, err := op(name)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return v, err
	}

	fsys.met.Resolutions.Inc()
	resolved, rerr := fsys.resolver.Resolve(name)
	if rerr != nil {
		fsys.logger.Trace().Str("path", path).Err(rerr).Msg("No case-insensitive match")
		return v, err
	}
	fsys.logger.Trace().Str("path", path).Str("resolved", resolved).Msg("Retrying with resolved path")

	v, err = op(resolved)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		fsys.met.Inconsistencies.Inc()
		return v, &fuzzyfs.InconsistencyError{Path: name, Resolved: resolved, Err: err}
	}
	return v, err
}

// Getattr stats the path without following a final symlink.
func (fsys *FileSystem) Getattr(path string) (fs.FileInfo, error) {
	return withFallback(fsys, path, fsys.host.Lstat)
}

// OpenDir snapshots the directory's entries and returns a handle over
// the snapshot.
func (fsys *FileSystem) OpenDir(path string) (DirHandle, error) {
	return withFallback(fsys, path, func(name string) (DirHandle, error) {
		entries, err := fsys.host.List(name)
		if err != nil {
			return 0, err
		}
		return fsys.handles.putDir(&dirState{entries: entries}), nil
	})
}

// ReadDir returns the entries snapshotted when h was opened, in host
// enumeration order and with host casing.
func (fsys *FileSystem) ReadDir(h DirHandle) ([]fuzzyfs.DirEntry, error) {
	st, ok := fsys.handles.dirs.Load(h)
	if !ok {
		return nil, syscall.EBADF
	}
	return st.entries, nil
}

func (fsys *FileSystem) ReleaseDir(h DirHandle) error {
	if _, ok := fsys.handles.dirs.LoadAndDelete(h); !ok {
		return syscall.EBADF
	}
	return nil
}

// OpenFile opens the path with the given open(2) flags and returns a
// handle for positional reads.
func (fsys *FileSystem) OpenFile(path string, flags int) (FileHandle, error) {
	return withFallback(fsys, path, func(name string) (FileHandle, error) {
		f, err := fsys.host.OpenFile(name, flags)
		if err != nil {
			return 0, err
		}
		return fsys.handles.putFile(f), nil
	})
}

// ReadAt reads into dest at off, returning the bytes read. Reads at or
// past end of file return a short or empty result, not an error.
func (fsys *FileSystem) ReadAt(h FileHandle, dest []byte, off int64) (int, error) {
	f, ok := fsys.handles.files.Load(h)
	if !ok {
		return 0, syscall.EBADF
	}
	n, err := f.ReadAt(dest, off)
	if err == io.EOF {
		err = nil
	}
	return n, err
}

// Release closes the host file behind h and invalidates the handle.
func (fsys *FileSystem) Release(h FileHandle) error {
	f, ok := fsys.handles.files.LoadAndDelete(h)
	if !ok {
		return syscall.EBADF
	}
	return f.Close()
}
