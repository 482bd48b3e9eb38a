package fuse

import (
	"context"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/rs/zerolog"

	"github.com/brettbedarf/fuzzyfs"
	"github.com/brettbedarf/fuzzyfs/filesystem"
)

// dirStream replays a directory snapshot taken at Readdir time and
// releases the underlying handle when the kernel closes the stream.
type dirStream struct {
	fsys    *filesystem.FileSystem
	handle  filesystem.DirHandle
	entries []fuzzyfs.DirEntry
	next    int
	logger  zerolog.Logger
}

var _ gofuse.DirStream = (*dirStream)(nil)

func (s *dirStream) HasNext() bool {
	return s.next < len(s.entries)
}

func (s *dirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if s.next >= len(s.entries) {
		return fuse.DirEntry{}, syscall.EIO
	}
	e := s.entries[s.next]
	s.next++
	return fuse.DirEntry{Name: e.Name, Ino: e.Ino, Mode: e.Mode}, 0
}

func (s *dirStream) Close() {
	if err := s.fsys.ReleaseDir(s.handle); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to release directory handle")
	}
}

// fileHandle serves positional reads against an open host file.
type fileHandle struct {
	fsys   *filesystem.FileSystem
	handle filesystem.FileHandle
}

var (
	_ gofuse.FileReader   = (*fileHandle)(nil)
	_ gofuse.FileReleaser = (*fileHandle)(nil)
)

func (f *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := f.fsys.ReadAt(f.handle, dest, off)
	if err != nil {
		return nil, gofuse.ToErrno(err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (f *fileHandle) Release(ctx context.Context) syscall.Errno {
	return gofuse.ToErrno(f.fsys.Release(f.handle))
}
