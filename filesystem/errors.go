package filesystem

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a path segment has no matching child
	ErrNotFound = errors.New("no such entry")
	// ErrNotDirectory means a path descends into a Leaf
	ErrNotDirectory = errors.New("not a directory")
	// ErrIsDirectory means file content was requested from a Branch
	ErrIsDirectory = errors.New("is a directory")
	// ErrTransient means a remote fetch failed or timed out. The affected
	// cache stays invalid so the next call retries.
	ErrTransient = errors.New("resource temporarily unavailable")
)

// Transient marks err as [ErrTransient] unless it already carries one of
// the namespace errors.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrNotDirectory, ErrIsDirectory, ErrTransient} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
