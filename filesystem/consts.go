package filesystem

import "syscall"

type SysAttrType uint32

const (
	DirAttr  SysAttrType = syscall.S_IFDIR
	FileAttr SysAttrType = syscall.S_IFREG
)

const (
	// Everything in the namespace is read-only
	DirPerms  = 0o555
	FilePerms = 0o444

	// Reported size of every directory
	DirSize = 4096
)
