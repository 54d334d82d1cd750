package main

import (
	"errors"
	"io/fs"

	"github.com/brettbedarf/vostfs/config"
)

const defaultConfigPath = "~/.vostfs.yaml"

type args struct {
	Quality        string  `arg:"positional,required" help:"preferred stream quality (std or hd)"`
	MountPoint     string  `arg:"positional,required" help:"directory to mount the catalog at"`
	Config         string  `arg:"-c,--config" default:"~/.vostfs.yaml" help:"path to a yaml or json config file"`
	API            *string `arg:"-a,--api" help:"catalog API base URL"`
	Limit          *int    `arg:"-l,--limit" help:"episodes per playlist directory before chunking"`
	Username       *string `arg:"-u,--username" help:"account name, required for favorites"`
	Password       *string `arg:"-p,--password" help:"account password, required for favorites"`
	Group          *string `arg:"-g,--group" help:"playlist grouping: single, all or each-to-last"`
	Sanitize       *string `arg:"-s,--sanitize" help:"filename escaping: simple, latin or extra"`
	Verbose        *int    `arg:"-v,--verbose" help:"log verbosity between 1 (error) and 5 (trace)"`
	Umount         bool    `arg:"--umount" help:"unmount the mountpoint first if needed. Useful for debuggers that don't exit properly"`
	AllowOther     bool    `arg:"--allow-other" help:"let other users browse the mount"`
	SingleThreaded bool    `arg:"--single-threaded" help:"serialize all FUSE calls"`
}

func (args) Description() string {
	return "vostfs mounts the online anime catalog as a read-only tree of m3u8 playlists"
}

// override returns the values given on the command line. Unset flags stay nil
// so the config file keeps precedence over defaults for them.
func (a *args) override() *config.ConfigOverride {
	o := &config.ConfigOverride{
		Quality:  &a.Quality,
		API:      a.API,
		Limit:    a.Limit,
		Username: a.Username,
		Password: a.Password,
		Group:    a.Group,
		Purity:   a.Sanitize,
		LogLvl:   a.Verbose,
	}
	if a.AllowOther {
		o.AllowOther = &a.AllowOther
	}
	if a.SingleThreaded {
		o.SingleThreaded = &a.SingleThreaded
	}
	return o
}

// loadConfig resolves defaults, then the config file, then the command line
func loadConfig(a *args) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	file, err := config.LoadConfigOverrideFile(config.ExpandHome(a.Config))
	switch {
	case err == nil:
		cfg.Merge(file)
	case errors.Is(err, fs.ErrNotExist) && a.Config == defaultConfigPath:
		// the default file is optional
	default:
		return nil, err
	}
	cfg.Merge(a.override())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
