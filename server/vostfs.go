package server

import (
	"github.com/brettbedarf/vostfs/config"
	"github.com/brettbedarf/vostfs/filesystem"
	vfuse "github.com/brettbedarf/vostfs/fuse"
	"github.com/brettbedarf/vostfs/internal/util"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// VostFs contains the catalog namespace with abstractions over the
// underlying FUSE wire protocol implementation
type VostFs struct {
	*filesystem.FileSystem
	cfg    *config.Config
	server *fuse.Server
}

// New creates a VostFs serving the tree below root
func New(cfg *config.Config, root filesystem.Branch) *VostFs {
	return &VostFs{
		filesystem.NewFS(cfg, root),
		cfg,
		nil,
	}
}

// mountOptions translates the config into go-fuse options
func (fs *VostFs) mountOptions() *fuse.MountOptions {
	opts := fs.cfg.MountOptions
	return &fuse.MountOptions{
		Name:               opts.Name,
		FsName:             opts.FsName,
		AllowOther:         opts.AllowOther,
		SingleThreaded:     opts.SingleThreaded,
		DisableReadDirPlus: true,
		Debug:              opts.Debug || fs.cfg.LogLvl == util.TraceLevel,
		Logger:             util.NewLogLogger("FuseServer", util.TraceLevel),
	}
}

// Serve mounts and serves the filesystem at the given mountPoint.
// It returns once the kernel has acknowledged the mount.
func (fs *VostFs) Serve(mountPoint string) error {
	logger := util.GetLogger("Server")

	raw := vfuse.NewFuseRaw(fs.FileSystem, fs.cfg)
	srv, err := fuse.NewServer(raw, mountPoint, fs.mountOptions())
	if err != nil {
		return err
	}
	fs.server = srv

	go srv.Serve()
	if err := srv.WaitMount(); err != nil {
		return err
	}
	logger.Debug().Str("mountpoint", mountPoint).Msg("Mount ready")
	return nil
}

// Wait blocks until the filesystem is unmounted
func (fs *VostFs) Wait() {
	if fs.server != nil {
		fs.server.Wait()
	}
}

// Unmount cleanly unmounts the filesystem.
func (fs *VostFs) Unmount() error {
	if fs.server == nil {
		return nil
	}
	return fs.server.Unmount()
}
