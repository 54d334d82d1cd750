package main

import (
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/brettbedarf/vostfs/adapters"
	"github.com/brettbedarf/vostfs/catalog"
	"github.com/brettbedarf/vostfs/internal/util"
	"github.com/brettbedarf/vostfs/server"
)

func main() {
	var a args
	arg.MustParse(&a)

	cfg, err := loadConfig(&a)
	// Logger comes up before reporting so config errors are formatted
	if err != nil {
		util.InitializeLogger(util.InfoLevel)
		logger := util.GetLogger("main")
		logger.Fatal().Err(err).Str("config", a.Config).Msg("Invalid configuration")
	}
	util.InitializeLogger(cfg.LogLvl)
	logger := util.GetLogger("main")

	mnt := a.MountPoint
	logger.Info().
		Str("mnt", mnt).
		Str("api", cfg.API).
		Str("quality", string(cfg.Quality)).
		Str("group", string(cfg.Group)).
		Int("limit", cfg.Limit).
		Bool("favorites", cfg.HasCredentials()).
		Msg("VostFS server initializing")

	// Try unmount if requested
	if a.Umount { // send cli command
		cmd := exec.Command("fusermount", "-u", mnt)
		// we ignore error here if not already mounted
		cmd.Run() // nolint:errcheck
	}

	deps := catalog.NewDeps(cfg, adapters.NewHTTPCatalog(cfg), adapters.NewHTTPProber(cfg))
	fs := server.New(cfg, catalog.NewRoot(deps))

	// Serve
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
		return
	}
	// let in-flight requests drain before exiting
	fs.Wait()
	logger.Info().Msg("Filesystem unmounted successfully")
}
