// Package locate finds a named directory near a starting point, the way
// games and tools find their "assets" folder regardless of the directory
// they were launched from.
package locate

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/calvinalkan/assetcache/pkg/fs"
)

var (
	// ErrNotFound is returned when no directory with the requested name is
	// within reach of the search.
	ErrNotFound = errors.New("locate: folder not found")

	// ErrInvalidDepth is returned for negative search depths.
	ErrInvalidDepth = errors.New("locate: invalid depth")
)

// Folder searches for a directory called name.
//
// Parents are checked first: start itself, then up to parents ancestors of
// start, each for a direct child directory called name. If none matches,
// kids are searched breadth-first: directories below start down to kids
// levels deep, nearest first, siblings in name order.
//
// The returned path is absolute if start is absolute.
func Folder(fsys fs.FS, start, name string, parents, kids int) (string, error) {
	if parents < 0 || kids < 0 {
		return "", fmt.Errorf("%w: parents=%d kids=%d", ErrInvalidDepth, parents, kids)
	}

	start = filepath.Clean(start)

	dir := start
	for range parents + 1 {
		candidate := filepath.Join(dir, name)

		ok, err := isDir(fsys, candidate)
		if err != nil {
			return "", err
		}

		if ok {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	found, err := searchKids(fsys, start, name, kids)
	if err != nil {
		return "", err
	}

	if found != "" {
		return found, nil
	}

	return "", fmt.Errorf("%w: %q near %s (parents=%d, kids=%d)", ErrNotFound, name, start, parents, kids)
}

// searchKids does a breadth-first walk below root. Level 1 are root's direct
// children, which the parents phase already checked for a match by name, so
// matching starts with their children.
func searchKids(fsys fs.FS, root, name string, depth int) (string, error) {
	level := []string{root}

	for range depth {
		var next []string

		for _, dir := range level {
			entries, err := fsys.ReadDir(dir)
			if err != nil {
				// Unreadable directories are skipped, not fatal.
				continue
			}

			for _, e := range entries {
				if !e.IsDir() {
					continue
				}

				child := filepath.Join(dir, e.Name())
				next = append(next, child)
			}
		}

		for _, dir := range next {
			candidate := filepath.Join(dir, name)

			ok, err := isDir(fsys, candidate)
			if err != nil {
				return "", err
			}

			if ok {
				return candidate, nil
			}
		}

		level = next
	}

	return "", nil
}

func isDir(fsys fs.FS, path string) (bool, error) {
	exists, err := fsys.Exists(path)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}

	if !exists {
		return false, nil
	}

	info, err := fsys.Stat(path)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}

	return info.IsDir(), nil
}
