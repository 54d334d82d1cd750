package filesystem

import (
	"context"
	"syscall"
	"time"
)

// Attributes is the host-independent view of a node's metadata
type Attributes struct {
	Mode  uint32 // file type bits and permissions
	Size  uint64
	Mtime time.Time
}

// IsDir reports whether the attributes describe a directory
func (a Attributes) IsDir() bool {
	return a.Mode&syscall.S_IFMT == uint32(DirAttr)
}

// DirAttributes returns the attributes every directory reports
func DirAttributes(mtime time.Time) Attributes {
	return Attributes{Mode: uint32(DirAttr) | DirPerms, Size: DirSize, Mtime: mtime}
}

// FileAttributes returns the attributes of a read-only file of size bytes
func FileAttributes(size int, mtime time.Time) Attributes {
	return Attributes{Mode: uint32(FileAttr) | FilePerms, Size: uint64(size), Mtime: mtime}
}

// Node is a unit of the namespace. Every Node is either a [Leaf] or a [Branch].
type Node interface {
	// Name is the purified display name used as the path segment
	Name() string
	Attr() Attributes
}

// Leaf is a file-like Node with byte content
type Leaf interface {
	Node
	Content() []byte
}

// Branch is a directory-like Node. The order of Children is the listing order.
type Branch interface {
	Node
	Children(ctx context.Context) ([]Node, error)
}

// Lookuper is implemented by branches that answer a name directly instead of
// by scanning their children, e.g. to create the child on first access.
type Lookuper interface {
	Branch
	Lookup(ctx context.Context, name string) (Node, error)
}

// DirBase carries the name and creation time of a Branch. Branch
// implementations embed it and add Children.
type DirBase struct {
	name    string
	created time.Time
}

func NewDirBase(name string) DirBase {
	return DirBase{name: name, created: time.Now()}
}

func (d DirBase) Name() string { return d.name }

func (d DirBase) Attr() Attributes { return DirAttributes(d.created) }

// Dir is a Branch with a fixed child list
type Dir struct {
	DirBase
	children []Node
}

func NewDir(name string, children ...Node) *Dir {
	return &Dir{DirBase: NewDirBase(name), children: children}
}

func (d *Dir) Children(context.Context) ([]Node, error) {
	return d.children, nil
}

// File is a Leaf whose content is fixed at construction
type File struct {
	name    string
	content []byte
	created time.Time
}

func NewFile(name string, content []byte) *File {
	return &File{name: name, content: content, created: time.Now()}
}

func (f *File) Name() string { return f.name }

func (f *File) Attr() Attributes { return FileAttributes(len(f.content), f.created) }

func (f *File) Content() []byte { return f.content }
