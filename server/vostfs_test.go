package server

import (
	"testing"

	"github.com/brettbedarf/vostfs/config"
	"github.com/brettbedarf/vostfs/filesystem"
	"github.com/brettbedarf/vostfs/internal/util"
	"github.com/stretchr/testify/assert"
)

func TestVostFs_MountOptions(t *testing.T) {
	t.Parallel()

	cfg := config.NewDefaultConfig()
	cfg.AllowOther = true
	cfg.SingleThreaded = true
	fs := New(cfg, filesystem.NewDir(""))

	opts := fs.mountOptions()
	assert.Equal(t, config.DefaultName, opts.Name)
	assert.Equal(t, config.DefaultFsName, opts.FsName)
	assert.True(t, opts.AllowOther)
	assert.True(t, opts.SingleThreaded)
	assert.True(t, opts.DisableReadDirPlus)
	assert.False(t, opts.Debug)
	assert.NotNil(t, opts.Logger)

	cfg = config.NewDefaultConfig()
	cfg.LogLvl = util.TraceLevel
	assert.True(t, New(cfg, filesystem.NewDir("")).mountOptions().Debug)
}

func TestVostFs_UnmountBeforeServe(t *testing.T) {
	t.Parallel()

	fs := New(config.NewDefaultConfig(), filesystem.NewDir(""))
	assert.NoError(t, fs.Unmount())
	fs.Wait()
	assert.Equal(t, 1, fs.RegisteredNodes())
}
