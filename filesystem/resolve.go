package filesystem

import (
	"context"
	"fmt"
	"strings"
)

// Resolve walks path from root one segment at a time. An empty path resolves
// to root itself. Only branches whose own cache expired fetch remotely.
func Resolve(ctx context.Context, root Node, path string) (Node, error) {
	if path == "" {
		return root, nil
	}
	branch, ok := root.(Branch)
	if !ok {
		return nil, fmt.Errorf("%s: %w", root.Name(), ErrNotDirectory)
	}

	name, rest, _ := strings.Cut(path, "/")
	if name == "" {
		return Resolve(ctx, branch, rest)
	}
	child, err := ChildOf(ctx, branch, name)
	if err != nil {
		return nil, err
	}
	return Resolve(ctx, child, rest)
}

// ChildOf returns the child of b displayed as name
func ChildOf(ctx context.Context, b Branch, name string) (Node, error) {
	if l, ok := b.(Lookuper); ok {
		child, err := l.Lookup(ctx, name)
		return child, Transient(err)
	}

	children, err := b.Children(ctx)
	if err != nil {
		return nil, Transient(err)
	}
	for _, child := range children {
		if child.Name() == name {
			return child, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
}
