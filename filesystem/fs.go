package filesystem

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/brettbedarf/vostfs/config"
	"github.com/brettbedarf/vostfs/internal/util"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/puzpuzpuz/xsync/v4"
)

// FileSystem answers path based calls against a lazily fetched node tree.
// It never mutates the tree. Kernel NodeIDs are handed out per path and every
// call re-resolves from the root so expired caches refresh on the way down.
type FileSystem struct {
	cfg        *config.Config
	root       Branch
	lastNodeID atomic.Uint64              // Last registry NodeID assigned; assigned on-demand for session only
	nodeIDs    *xsync.Map[uint64, *entry] // maps registry NodeIDs to paths
	paths      *xsync.Map[string, uint64] // reverse of nodeIDs
}

// entry is a registered path and the kernel's outstanding lookup count for it
type entry struct {
	path    string
	lookups atomic.Int64
}

func NewFS(cfg *config.Config, root Branch) *FileSystem {
	fs := FileSystem{
		cfg:     cfg,
		root:    root,
		nodeIDs: xsync.NewMap[uint64, *entry](),
		paths:   xsync.NewMap[string, uint64](),
	}
	fs.lastNodeID.Store(fuse.FUSE_ROOT_ID)
	// the root is never forgotten
	rootEntry := &entry{path: ""}
	rootEntry.lookups.Store(1)
	fs.nodeIDs.Store(fuse.FUSE_ROOT_ID, rootEntry)
	fs.paths.Store("", fuse.FUSE_ROOT_ID)
	return &fs
}

func (fs *FileSystem) Root() Branch {
	return fs.root
}

func (fs *FileSystem) Config() *config.Config {
	return fs.cfg
}

// Resolve returns the node at path, relative to the root
func (fs *FileSystem) Resolve(ctx context.Context, path string) (Node, error) {
	return Resolve(ctx, fs.root, strings.TrimPrefix(path, "/"))
}

// GetAttributes returns the attributes of the node at path
func (fs *FileSystem) GetAttributes(ctx context.Context, path string) (Attributes, error) {
	logger := util.GetLogger("FS.GetAttributes")
	logger.Trace().Str("path", path).Msg("GetAttributes called")

	node, err := fs.Resolve(ctx, path)
	if err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("Resolve failed")
		return Attributes{}, err
	}
	return node.Attr(), nil
}

// Entries returns the child nodes of the directory at path in listing order
func (fs *FileSystem) Entries(ctx context.Context, path string) ([]Node, error) {
	logger := util.GetLogger("FS.Entries")
	logger.Trace().Str("path", path).Msg("Entries called")

	node, err := fs.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	branch, ok := node.(Branch)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}
	children, err := branch.Children(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Listing failed")
		return nil, Transient(err)
	}
	return children, nil
}

// ListDirectory returns the entry names of the directory at path, led by the
// implicit "." and ".." entries
func (fs *FileSystem) ListDirectory(ctx context.Context, path string) ([]string, error) {
	children, err := fs.Entries(ctx, path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(children)+2)
	names = append(names, ".", "..")
	for _, child := range children {
		names = append(names, child.Name())
	}
	return names, nil
}

// ReadFile returns the full content of the file at path
func (fs *FileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	logger := util.GetLogger("FS.ReadFile")
	logger.Trace().Str("path", path).Msg("ReadFile called")

	node, err := fs.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	leaf, ok := node.(Leaf)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}
	return leaf.Content(), nil
}

/* NodeID registry */

// PathOf returns the path registered for nodeID
func (fs *FileSystem) PathOf(nodeID uint64) (string, bool) {
	e, ok := fs.nodeIDs.Load(nodeID)
	if !ok {
		return "", false
	}
	return e.path, true
}

// EnsureNodeID retrieves or allocates the NodeID of path and counts one
// kernel lookup against it.
//
// Counting and removal of an entry both run inside nodeIDs.Compute, so a
// lookup either lands before a concurrent forget drops the entry or sees it
// gone and allocates afresh.
func (fs *FileSystem) EnsureNodeID(path string) uint64 {
	for {
		// fast path
		if id, ok := fs.paths.Load(path); ok {
			_, live := fs.nodeIDs.Compute(id, func(e *entry, loaded bool) (*entry, xsync.ComputeOp) {
				if !loaded {
					return e, xsync.CancelOp
				}
				e.lookups.Add(1)
				return e, xsync.UpdateOp
			})
			if live {
				return id
			}
			// forgotten concurrently
			fs.dropPath(path, id)
			continue
		}
		// allocate a new one
		newID := fs.lastNodeID.Add(1)
		e := &entry{path: path}
		e.lookups.Store(1)
		fs.nodeIDs.Store(newID, e)
		// only one store per path wins
		if _, loaded := fs.paths.LoadOrStore(path, newID); !loaded {
			return newID
		}
		fs.nodeIDs.Delete(newID)
	}
}

// ForgetNodeID drops nlookup kernel references to nodeID and removes the
// registry entry once none remain
func (fs *FileSystem) ForgetNodeID(nodeID, nlookup uint64) {
	logger := util.GetLogger("FS.ForgetNodeID")
	logger.Trace().Uint64("id", nodeID).Uint64("nlookup", nlookup).Msg("ForgetNodeID called")

	if nodeID == fuse.FUSE_ROOT_ID {
		return
	}
	var forgotten *entry
	_, found := fs.nodeIDs.Compute(nodeID, func(e *entry, loaded bool) (*entry, xsync.ComputeOp) {
		if !loaded {
			return e, xsync.CancelOp
		}
		if e.lookups.Add(-int64(nlookup)) > 0 {
			return e, xsync.CancelOp
		}
		forgotten = e
		return e, xsync.DeleteOp
	})
	if forgotten == nil {
		if !found {
			logger.Debug().Uint64("id", nodeID).Msg("No node found")
		}
		return
	}
	fs.dropPath(forgotten.path, nodeID)
}

// dropPath removes the path mapping if it still points at nodeID
func (fs *FileSystem) dropPath(path string, nodeID uint64) {
	fs.paths.Compute(path, func(id uint64, loaded bool) (uint64, xsync.ComputeOp) {
		if loaded && id == nodeID {
			return id, xsync.DeleteOp
		}
		return id, xsync.CancelOp
	})
}

// RegisteredNodes returns the number of live NodeIDs, the root included
func (fs *FileSystem) RegisteredNodes() int {
	return fs.nodeIDs.Size()
}

// ChildPath joins a directory path and an entry name
func ChildPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
