package main

import (
	"flag"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"

	"github.com/brettbedarf/fuzzyfs/config"
	"github.com/brettbedarf/fuzzyfs/internal/metrics"
	"github.com/brettbedarf/fuzzyfs/internal/util"
	"github.com/brettbedarf/fuzzyfs/server"
)

func main() {
	// Parse command line arguments
	var (
		configPath  string
		metricsAddr string
		verbose     int
		umount      bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config file (yaml or json)")
	flag.StringVar(&metricsAddr, "metrics", "", "Listen address for the prometheus endpoint, e.g. :9150")
	flag.BoolVar(&umount, "umount", false,
		"Unmount the fs first if needed before mounting again. Useful for debuggers that don't exit properly.")
	flag.BoolVar(&umount, "u", false, "--umount (shorthand)")
	flag.IntVar(&verbose, "verbose", 3, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", 3, "--verbose (shorthand)")
	flag.Parse()

	// Initialize logger
	if verbose < 1 {
		verbose = 1
	}
	if verbose > 5 {
		verbose = 5
	}
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	logLvl := logLvls[verbose-1]
	util.InitializeLogger(logLvl)
	logger := util.GetLogger("main")

	root := flag.Arg(0)
	mnt := flag.Arg(1)
	logger.Info().Int("verbose", verbose).Str("root", root).Str("mnt", mnt).Msg("FuzzyFS server initializing")
	if root == "" || mnt == "" {
		logger.Fatal().Msg("Usage: fuzzyfs [flags] <root> <mountpoint>")
	}

	// Try unmount if requested
	if umount { // send cli command
		cmd := exec.Command("fusermount", "-u", mnt)
		// we ignore error here if not already mounted
		cmd.Run() // nolint:errcheck
	}

	// Init config
	var cfg *config.Config
	if configPath != "" {
		var err error
		cfg, err = config.NewConfigFromFile(configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("config", configPath).Msg("Failed to load config file")
		}
	} else {
		cfg = config.NewDefaultConfig()
	}
	cfg.LogLvl = logLvl
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	resolved, err := config.ResolveRoot(root)
	if err != nil {
		logger.Fatal().Err(err).Str("root", root).Msg("Failed to resolve root directory")
	}
	cfg.Root = resolved

	unix.Umask(0)

	met := metrics.New(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr, prometheus.DefaultGatherer); err != nil {
				logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics endpoint failed")
			}
		}()
	}

	// Serve
	fs := server.New(cfg, met)
	if err := fs.Serve(mnt); err != nil {
		logger.Fatal().Err(err).Msg("Failed to mount filesystem")
	}

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	logger.Info().Str("mountpoint", mnt).Msg("Filesystem mounted successfully")

	// Wait for termination signal
	sig := <-signalChan
	logger.Info().Str("signal", sig.String()).Msg("Received signal, unmounting filesystem")

	// Unmount the filesystem
	if err := fs.Unmount(); err != nil {
		logger.Error().Err(err).Msg("Failed to unmount filesystem")
	} else {
		logger.Info().Msg("Filesystem unmounted successfully")
	}
}
