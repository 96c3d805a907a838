package fs

import (
	"bytes"
	"errors"
	"os"

	"github.com/natefinch/atomic"
)

// Real is the [FS] backed by the host filesystem. Reads and directory
// operations go straight to [os]; writes go through natefinch/atomic.
type Real struct{}

// NewReal returns a [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

// Open opens path read-only. The returned [File] is an [*os.File], so its
// descriptor can be mapped by the asset loader.
func (*Real) Open(path string) (File, error) {
	return os.Open(path)
}

func (*Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (*Real) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

func (*Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Exists reports whether path names a file or directory. A missing path is
// (false, nil); permission and I/O failures are returned.
func (*Real) Exists(path string) (bool, error) {
	_, err := os.Stat(path)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (*Real) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WriteFileAtomic writes data to a temp file in the directory of path and
// renames it over path. The directory must already exist; see [Real.MkdirAll].
func (*Real) WriteFileAtomic(path string, data []byte) error {
	return atomic.WriteFile(path, bytes.NewReader(data))
}

var _ FS = (*Real)(nil)
