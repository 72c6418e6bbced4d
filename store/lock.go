package store

import (
	"fmt"

	"github.com/gofrs/flock"
)

// lockFile takes an advisory exclusive lock on path (created alongside the
// protected file) and returns a release function. This is §5's "Store
// files... writes use an advisory file lock to allow concurrent observers."
func lockFile(path string) (func(), error) {
	l := flock.New(path)
	if err := l.Lock(); err != nil {
		return nil, fmt.Errorf("store: acquiring lock on %s: %w", path, err)
	}
	return func() { _ = l.Unlock() }, nil
}
