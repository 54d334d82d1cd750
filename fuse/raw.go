package fuse

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/brettbedarf/vostfs/config"
	"github.com/brettbedarf/vostfs/filesystem"
	"github.com/brettbedarf/vostfs/internal/util"
	"github.com/dustin/go-humanize"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// unknownIno is reported for directory entries the kernel has not looked up yet
const unknownIno = 0xffffffff

// writeFlags are open flags that would modify a file
const writeFlags = syscall.O_WRONLY | syscall.O_RDWR | syscall.O_TRUNC | syscall.O_APPEND | syscall.O_CREAT

// NodeIDManager handles mapping between Fuse NodeIDs and namespace paths
type NodeIDManager interface {
	PathOf(nodeID uint64) (string, bool)
	EnsureNodeID(path string) uint64
	ForgetNodeID(nodeID, nlookup uint64)
}

// FileSystemOperator answers path based calls against the namespace
type FileSystemOperator interface {
	NodeIDManager
	Resolve(ctx context.Context, path string) (filesystem.Node, error)
	Entries(ctx context.Context, path string) ([]filesystem.Node, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// FuseRaw implements the low-level FUSE wire protocol
// It serves as protocol adapter between the FUSE and core filesystem
// See https://www.man7.org/linux//man-pages/man4/fuse.4.html
type FuseRaw struct {
	fuse.RawFileSystem
	fs           FileSystemOperator
	server       *fuse.Server
	attrTimeout  time.Duration
	entryTimeout time.Duration
	directIO     bool
	uid, gid     uint32
}

func NewFuseRaw(fs FileSystemOperator, cfg *config.Config) *FuseRaw {
	return &FuseRaw{
		RawFileSystem: fuse.NewDefaultRawFileSystem(),
		fs:            fs,
		attrTimeout:   seconds(cfg.AttrTimeout),
		entryTimeout:  seconds(cfg.EntryTimeout),
		directIO:      cfg.DirectIO,
		uid:           uint32(os.Getuid()),
		gid:           uint32(os.Getgid()),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (r *FuseRaw) Init(s *fuse.Server) {
	logger := util.GetLogger("Fuse.Init")
	logger.Debug().Msg("FUSE initialized")
	r.server = s
}

func (r *FuseRaw) OnUnmount() {
	logger := util.GetLogger("Fuse.OnUnmount")
	logger.Info().Msg("FUSE unmounted")
}

func (r *FuseRaw) String() string {
	return "vostfs"
}

// Access called when the kernel wants to know if the user has permission to access the node.
// If the 'default_permissions' mount option is given, this method is not called.
//
// Everything is world readable; writes are refused at Open.
func (r *FuseRaw) Access(cancel <-chan struct{}, input *fuse.AccessIn) fuse.Status {
	return fuse.OK
}

// Lookup is called by the kernel when the VFS wants to know
// about a file inside a directory. Many lookup calls can
// occur in parallel, but only one call happens for each (dir,
// name) pair.
func (r *FuseRaw) Lookup(cancel <-chan struct{}, header *fuse.InHeader, name string, out *fuse.EntryOut) fuse.Status {
	logger := util.GetLogger("Fuse.Lookup")
	logger.Trace().Uint64("parent", header.NodeId).Str("name", name).Msg("Lookup called")

	parent, ok := r.fs.PathOf(header.NodeId)
	if !ok {
		return fuse.ENOENT
	}
	ctx, stop := cancelContext(cancel)
	defer stop()

	path := filesystem.ChildPath(parent, name)
	node, err := r.fs.Resolve(ctx, path)
	if err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("Lookup failed")
		return toStatus(err)
	}

	id := r.fs.EnsureNodeID(path)
	out.NodeId = id
	r.fillAttr(&out.Attr, id, node.Attr())
	out.SetEntryTimeout(r.entryTimeout)
	out.SetAttrTimeout(r.attrTimeout)
	return fuse.OK
}

// Forget is called when the kernel discards entries from its
// dentry cache. This happens on unmount, and when the kernel
// is short on memory. Since it is not guaranteed to occur at
// any moment, and since there is no return value, Forget
// should not do I/O, as there is no channel to report back
// I/O errors.
func (r *FuseRaw) Forget(nodeid, nlookup uint64) {
	r.fs.ForgetNodeID(nodeid, nlookup)
}

func (r *FuseRaw) GetAttr(cancel <-chan struct{}, input *fuse.GetAttrIn, out *fuse.AttrOut) fuse.Status {
	path, ok := r.fs.PathOf(input.NodeId)
	if !ok {
		return fuse.ENOENT
	}
	ctx, stop := cancelContext(cancel)
	defer stop()

	node, err := r.fs.Resolve(ctx, path)
	if err != nil {
		return toStatus(err)
	}
	r.fillAttr(&out.Attr, input.NodeId, node.Attr())
	out.SetTimeout(r.attrTimeout)
	return fuse.OK
}

func (r *FuseRaw) Open(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	if input.Flags&writeFlags != 0 {
		return fuse.Status(syscall.EROFS)
	}
	path, ok := r.fs.PathOf(input.NodeId)
	if !ok {
		return fuse.ENOENT
	}
	ctx, stop := cancelContext(cancel)
	defer stop()

	node, err := r.fs.Resolve(ctx, path)
	if err != nil {
		return toStatus(err)
	}
	if _, ok := node.(filesystem.Leaf); !ok {
		return fuse.Status(syscall.EISDIR)
	}
	if r.directIO {
		out.OpenFlags |= fuse.FOPEN_DIRECT_IO
	}
	return fuse.OK
}

func (r *FuseRaw) Read(cancel <-chan struct{}, input *fuse.ReadIn, buf []byte) (fuse.ReadResult, fuse.Status) {
	logger := util.GetLogger("Fuse.Read")

	path, ok := r.fs.PathOf(input.NodeId)
	if !ok {
		return nil, fuse.ENOENT
	}
	ctx, stop := cancelContext(cancel)
	defer stop()

	content, err := r.fs.ReadFile(ctx, path)
	if err != nil {
		return nil, toStatus(err)
	}
	off := int(min(input.Offset, uint64(len(content))))
	end := min(off+int(input.Size), off+len(buf), len(content))
	logger.Trace().
		Str("path", path).
		Int("offset", off).
		Str("read", humanize.Bytes(uint64(end-off))).
		Str("size", humanize.Bytes(uint64(len(content)))).
		Msg("Read")
	return fuse.ReadResultData(content[off:end]), fuse.OK
}

func (r *FuseRaw) OpenDir(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	path, ok := r.fs.PathOf(input.NodeId)
	if !ok {
		return fuse.ENOENT
	}
	ctx, stop := cancelContext(cancel)
	defer stop()

	node, err := r.fs.Resolve(ctx, path)
	if err != nil {
		return toStatus(err)
	}
	if _, ok := node.(filesystem.Branch); !ok {
		return fuse.Status(syscall.ENOTDIR)
	}
	return fuse.OK
}

// ReadDir lists the directory starting at input.Offset, the index of the
// next entry to return with "." and ".." counted first.
func (r *FuseRaw) ReadDir(cancel <-chan struct{}, input *fuse.ReadIn, out *fuse.DirEntryList) fuse.Status {
	logger := util.GetLogger("Fuse.ReadDir")
	logger.Trace().Uint64("nodeID", input.NodeId).Uint64("offset", input.Offset).Msg("ReadDir called")

	path, ok := r.fs.PathOf(input.NodeId)
	if !ok {
		return fuse.ENOENT
	}
	ctx, stop := cancelContext(cancel)
	defer stop()

	children, err := r.fs.Entries(ctx, path)
	if err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("Listing failed")
		return toStatus(err)
	}

	dirMode := uint32(filesystem.DirAttr) | filesystem.DirPerms
	entries := make([]fuse.DirEntry, 0, len(children)+2)
	entries = append(entries,
		fuse.DirEntry{Name: ".", Mode: dirMode, Ino: input.NodeId},
		fuse.DirEntry{Name: "..", Mode: dirMode, Ino: unknownIno},
	)
	for _, child := range children {
		entries = append(entries, fuse.DirEntry{
			Name: child.Name(),
			Mode: child.Attr().Mode,
			Ino:  unknownIno,
		})
	}

	for i := int(min(input.Offset, uint64(len(entries)))); i < len(entries); i++ {
		if !out.AddDirEntry(entries[i]) {
			// The buffer is full; the kernel calls again with a new offset
			break
		}
	}
	return fuse.OK
}

func (r *FuseRaw) StatFs(cancel <-chan struct{}, input *fuse.InHeader, out *fuse.StatfsOut) fuse.Status {
	out.Bsize = filesystem.DirSize
	out.Frsize = filesystem.DirSize
	out.NameLen = 255
	return fuse.OK
}

func (r *FuseRaw) fillAttr(out *fuse.Attr, ino uint64, a filesystem.Attributes) {
	out.Ino = ino
	out.Mode = a.Mode
	out.Size = a.Size
	out.Blocks = (a.Size + 511) / 512
	out.Blksize = filesystem.DirSize
	out.Nlink = 1
	if a.IsDir() {
		out.Nlink = 2
	}
	out.Owner = fuse.Owner{Uid: r.uid, Gid: r.gid}
	out.SetTimes(&a.Mtime, &a.Mtime, &a.Mtime)
}

// toStatus maps namespace errors onto errno values
func toStatus(err error) fuse.Status {
	switch {
	case err == nil:
		return fuse.OK
	case errors.Is(err, filesystem.ErrNotFound):
		return fuse.ENOENT
	case errors.Is(err, filesystem.ErrNotDirectory):
		return fuse.Status(syscall.ENOTDIR)
	case errors.Is(err, filesystem.ErrIsDirectory):
		return fuse.Status(syscall.EISDIR)
	case errors.Is(err, context.Canceled):
		return fuse.Status(syscall.EINTR)
	case errors.Is(err, filesystem.ErrTransient):
		return fuse.Status(syscall.EAGAIN)
	default:
		return fuse.EIO
	}
}

// cancelContext returns a context cancelled when the kernel interrupts the call
func cancelContext(cancel <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, stop := context.WithCancel(context.Background())
	if cancel != nil {
		go func() {
			select {
			case <-cancel:
				stop()
			case <-ctx.Done():
			}
		}()
	}
	return ctx, stop
}
