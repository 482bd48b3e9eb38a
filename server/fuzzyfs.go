// Package server wires the overlay together and manages the FUSE mount
// lifecycle.
package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/rs/zerolog"

	"github.com/brettbedarf/fuzzyfs/config"
	"github.com/brettbedarf/fuzzyfs/filesystem"
	ffuse "github.com/brettbedarf/fuzzyfs/fuse"
	"github.com/brettbedarf/fuzzyfs/internal/metrics"
	"github.com/brettbedarf/fuzzyfs/internal/util"
)

// FuzzyFs contains the core filesystem state and operations with
// abstractions over the underlying FUSE wire protocol implementation
type FuzzyFs struct {
	*filesystem.FileSystem
	cfg     *config.Config
	session string
	server  *fuse.Server
	logger  zerolog.Logger
}

// New creates a FuzzyFs instance given your config. met may be nil for
// unexported counters.
func New(cfg *config.Config, met *metrics.Metrics) *FuzzyFs {
	return &FuzzyFs{
		FileSystem: filesystem.New(filesystem.OSHost{}, met),
		cfg:        cfg,
		session:    uuid.New().String(),
		logger:     util.GetLogger("Server"),
	}
}

// Serve mounts and serves the filesystem at the given mountPoint. The
// process working directory moves to the configured root so that every
// host path stays valid however the root was spelled; the mount point
// is made absolute first for the same reason.
func (fs *FuzzyFs) Serve(mountPoint string) error {
	mnt, err := filepath.Abs(mountPoint)
	if err != nil {
		return fmt.Errorf("failed to resolve mount point %q: %w", mountPoint, err)
	}
	if err := os.Chdir(fs.cfg.Root); err != nil {
		return fmt.Errorf("failed to enter root %q: %w", fs.cfg.Root, err)
	}

	root := ffuse.NewRoot(fs.FileSystem, fs.cfg)
	attrTimeout := secondsDuration(fs.cfg.AttrTimeout)
	entryTimeout := secondsDuration(fs.cfg.EntryTimeout)
	opts := fs.cfg.MountOptions

	srv, err := gofuse.Mount(mnt, root, &gofuse.Options{
		AttrTimeout:  &attrTimeout,
		EntryTimeout: &entryTimeout,
		MountOptions: fuse.MountOptions{
			Name:   opts.Name,
			FsName: opts.FsName,
			Debug:  opts.Debug || fs.cfg.LogLvl == util.TraceLevel,
			Logger: util.NewLogLogger("FuseServer", util.TraceLevel),
		},
	})
	if err != nil {
		return err
	}
	fs.server = srv

	fs.logger.Info().
		Str("session", fs.session).
		Str("root", fs.cfg.Root).
		Str("mount", mnt).
		Msg("Filesystem mounted")
	return nil
}

// ServeAsync mounts in the background and reports the mount result on
// the returned channel.
func (fs *FuzzyFs) ServeAsync(mountPoint string) <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- fs.Serve(mountPoint)
		close(done)
	}()

	return done
}

// Wait blocks until the filesystem is unmounted.
func (fs *FuzzyFs) Wait() {
	if fs.server == nil {
		return
	}
	fs.server.Wait()
}

// Unmount cleanly unmounts the filesystem.
func (fs *FuzzyFs) Unmount() error {
	if fs.server == nil {
		return nil
	}
	return fs.server.Unmount()
}

func secondsDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
