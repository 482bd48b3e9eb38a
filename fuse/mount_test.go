package fuse

import (
	"os"
	"path/filepath"
	"testing"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/fuzzyfs/config"
	"github.com/brettbedarf/fuzzyfs/filesystem"
)

// fuseAvailable checks whether /dev/fuse is accessible. Mount tests
// skip on hosts without it (containers, CI without privileges).
func fuseAvailable(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/dev/fuse"); err != nil {
		t.Skip("skipping: /dev/fuse not available")
	}
}

// testMount seeds a host tree, mounts the overlay over it, and
// returns the mountpoint. The mount is torn down with the test.
func testMount(t *testing.T) string {
	t.Helper()
	fuseAvailable(t)

	hostDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(hostDir, "Music"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(hostDir, "Music", "Song.mp3"), []byte("audio data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(hostDir, "notes.txt"), []byte("hello"), 0o644))

	cfg := config.NewDefaultConfig()
	cfg.Root = hostDir
	fsys := filesystem.New(filesystem.OSHost{Dir: hostDir}, nil)
	root := NewRoot(fsys, cfg)

	mnt := t.TempDir()
	server, err := gofuse.Mount(mnt, root, &gofuse.Options{})
	if err != nil {
		t.Skipf("skipping: mount failed: %v", err)
	}
	t.Cleanup(func() {
		if err := server.Unmount(); err != nil {
			t.Logf("unmount: %v", err)
		}
	})
	return mnt
}

func TestMountReadWrongCase(t *testing.T) {
	mnt := testMount(t)

	exact, err := os.ReadFile(filepath.Join(mnt, "Music", "Song.mp3"))
	require.NoError(t, err)
	fuzzy, err := os.ReadFile(filepath.Join(mnt, "MUSIC", "song.MP3"))
	require.NoError(t, err)
	assert.Equal(t, exact, fuzzy)
	assert.Equal(t, "audio data", string(fuzzy))
}

func TestMountStatWrongCase(t *testing.T) {
	mnt := testMount(t)

	fi, err := os.Lstat(filepath.Join(mnt, "music", "SONG.mp3"))
	require.NoError(t, err)
	assert.EqualValues(t, 10, fi.Size())
	assert.False(t, fi.IsDir())
}

func TestMountDirListingKeepsHostCasing(t *testing.T) {
	mnt := testMount(t)

	entries, err := os.ReadDir(filepath.Join(mnt, "music"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Song.mp3", entries[0].Name())
}

func TestMountNotFound(t *testing.T) {
	mnt := testMount(t)

	_, err := os.Lstat(filepath.Join(mnt, "Music", "missing.mp3"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
