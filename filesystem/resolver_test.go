package filesystem

import (
	"bytes"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/fuzzyfs"
)

// fakeHost is an in-memory Host whose directory listings keep insertion
// order, mirroring how a real kernel enumerates entries unsorted.
type fakeHost struct {
	dirs  map[string][]string // dir path -> child names in enumeration order
	files map[string][]byte

	// lstatErr forces Lstat failures for specific paths, used to
	// simulate the tree changing under the overlay.
	lstatErr map[string]error

	listCalls atomic.Int64
}

func (h *fakeHost) isDir(name string) bool {
	if name == CurrentDir || name == "" {
		_, ok := h.dirs[CurrentDir]
		return ok
	}
	_, ok := h.dirs[name]
	return ok
}

func (h *fakeHost) Lstat(name string) (os.FileInfo, error) {
	if err, ok := h.lstatErr[name]; ok {
		return nil, err
	}
	if h.isDir(name) {
		return fakeInfo{name: name, dir: true}, nil
	}
	if data, ok := h.files[name]; ok {
		return fakeInfo{name: name, size: int64(len(data))}, nil
	}
	return nil, &os.PathError{Op: "lstat", Path: name, Err: syscall.ENOENT}
}

func (h *fakeHost) ListNames(name string) ([]string, error) {
	h.listCalls.Add(1)
	names, ok := h.dirs[name]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: syscall.ENOTDIR}
	}
	return names, nil
}

func (h *fakeHost) List(name string) ([]fuzzyfs.DirEntry, error) {
	names, err := h.ListNames(name)
	if err != nil {
		return nil, err
	}
	entries := make([]fuzzyfs.DirEntry, 0, len(names))
	for i, n := range names {
		mode := uint32(syscall.S_IFREG)
		full := n
		if name != CurrentDir {
			full = name + "/" + n
		}
		if h.isDir(full) {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuzzyfs.DirEntry{Name: n, Ino: uint64(i + 1), Mode: mode})
	}
	return entries, nil
}

func (h *fakeHost) OpenFile(name string, flags int) (fuzzyfs.File, error) {
	data, ok := h.files[name]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: syscall.ENOENT}
	}
	return readerAtCloser{bytes.NewReader(data)}, nil
}

type readerAtCloser struct {
	*bytes.Reader
}

func (readerAtCloser) Close() error { return nil }

type fakeInfo struct {
	name string
	size int64
	dir  bool
}

func (fi fakeInfo) Name() string { return fi.name }
func (fi fakeInfo) Size() int64  { return fi.size }
func (fi fakeInfo) Mode() os.FileMode {
	if fi.dir {
		return os.ModeDir | 0o755
	}
	return 0o644
}
func (fi fakeInfo) ModTime() time.Time { return time.Time{} }
func (fi fakeInfo) IsDir() bool        { return fi.dir }
func (fi fakeInfo) Sys() any           { return nil }

func musicHost() *fakeHost {
	return &fakeHost{
		dirs: map[string][]string{
			CurrentDir:   {"Music", "notes.txt"},
			"Music":      {"Song.mp3", "Cover.jpg"},
			"Music/Deep": nil,
		},
		files: map[string][]byte{
			"Music/Song.mp3":  []byte("audio data"),
			"Music/Cover.jpg": []byte("jpeg"),
			"notes.txt":       []byte("hello"),
		},
	}
}

func TestResolver_ExactCase(t *testing.T) {
	host := musicHost()
	r := NewResolver(host, nil)

	got, err := r.Resolve("Music/Song.mp3")
	require.NoError(t, err)
	assert.Equal(t, "Music/Song.mp3", got)
	assert.EqualValues(t, 0, host.listCalls.Load(), "exact-case path must not list directories")
}

func TestResolver_CorrectsEverySegment(t *testing.T) {
	host := musicHost()
	r := NewResolver(host, nil)

	got, err := r.Resolve("MUSIC/song.MP3")
	require.NoError(t, err)
	assert.Equal(t, "Music/Song.mp3", got)
	assert.EqualValues(t, 2, host.listCalls.Load(), "one listing per corrected segment")

	// Resolution is repeatable while the host is unchanged
	again, err := r.Resolve("MUSIC/song.MP3")
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestResolver_Root(t *testing.T) {
	r := NewResolver(musicHost(), nil)
	got, err := r.Resolve(CurrentDir)
	require.NoError(t, err)
	assert.Equal(t, CurrentDir, got)
}

func TestResolver_NoMatch(t *testing.T) {
	r := NewResolver(musicHost(), nil)

	t.Run("MissingLeaf", func(t *testing.T) {
		_, err := r.Resolve("Music/missing.mp3")
		assert.ErrorIs(t, err, fuzzyfs.ErrNoMatch)
	})

	t.Run("MissingIntermediate", func(t *testing.T) {
		_, err := r.Resolve("videos/clip.mp4")
		assert.ErrorIs(t, err, fuzzyfs.ErrNoMatch)
	})

	t.Run("ParentIsFile", func(t *testing.T) {
		_, err := r.Resolve("notes.txt/extra")
		assert.ErrorIs(t, err, fuzzyfs.ErrNoMatch)
	})
}

func TestResolver_FirstMatchInEnumerationOrder(t *testing.T) {
	// Two entries differing only in case. Whichever the host
	// enumerates first wins.
	t.Run("UpperFirst", func(t *testing.T) {
		host := &fakeHost{
			dirs:  map[string][]string{CurrentDir: {"DATA", "data"}},
			files: map[string][]byte{},
		}
		host.dirs["DATA"] = nil
		host.dirs["data"] = nil

		got, err := NewResolver(host, nil).Resolve("Data")
		require.NoError(t, err)
		assert.Equal(t, "DATA", got)
	})

	t.Run("LowerFirst", func(t *testing.T) {
		host := &fakeHost{
			dirs:  map[string][]string{CurrentDir: {"data", "DATA"}},
			files: map[string][]byte{},
		}
		host.dirs["DATA"] = nil
		host.dirs["data"] = nil

		got, err := NewResolver(host, nil).Resolve("Data")
		require.NoError(t, err)
		assert.Equal(t, "data", got)
	})
}

func TestResolver_Concurrent(t *testing.T) {
	host := musicHost()
	r := NewResolver(host, nil)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Resolve("music/COVER.jpg")
			assert.NoError(t, err)
			assert.Equal(t, "Music/Cover.jpg", got)
		}()
	}
	wg.Wait()
}
