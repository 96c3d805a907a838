// Package asset loads files from an asset directory into memory.
//
// [Loader] satisfies [lazycache.Loader] for *[Asset] values. Assets are
// either copied into the Go heap or, with [Options.Mmap], mapped read-only.
// Mapped assets hold an OS mapping until [Asset.Close] is called; the cache
// storing them never closes them, so the owner of the cache must.
package asset

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/calvinalkan/assetcache/pkg/fs"
)

var (
	// ErrInvalidKey is returned for keys that are empty, absolute, or that
	// escape the asset directory (for example "../secret").
	ErrInvalidKey = errors.New("asset: invalid key")

	// ErrNotRegular is returned when the key names a directory or other
	// non-regular file.
	ErrNotRegular = errors.New("asset: not a regular file")

	// ErrTooLarge is returned when a file is larger than [Options.MaxSize].
	ErrTooLarge = errors.New("asset: too large")
)

// Asset is a loaded file.
type Asset struct {
	Key     string
	Path    string
	ModTime time.Time

	// Data is the file content. For mapped assets it is only valid until
	// Close.
	Data []byte

	mu     sync.Mutex
	mapped bool
}

// Size returns len(Data).
func (a *Asset) Size() int {
	return len(a.Data)
}

// Mapped reports whether Data is backed by a memory mapping.
func (a *Asset) Mapped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.mapped
}

// Close releases the mapping behind a mapped asset and clears Data.
// For heap assets it only clears Data.
//
// Close is idempotent - calling it multiple times is safe and subsequent
// calls return nil.
func (a *Asset) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.mapped {
		a.Data = nil

		return nil
	}

	data := a.Data
	a.Data = nil
	a.mapped = false

	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("unmapping %s: %w", a.Path, err)
	}

	return nil
}

// Options configures a [Loader].
type Options struct {
	// Mmap maps files read-only instead of reading them into the heap.
	// Empty files are never mapped.
	Mmap bool

	// MaxSize rejects files larger than this many bytes. Zero means no limit.
	MaxSize int64
}

// Loader reads assets through an [fs.FS].
type Loader struct {
	fs   fs.FS
	opts Options
}

// NewLoader creates a Loader. Panics if fsys is nil.
func NewLoader(fsys fs.FS, opts Options) *Loader {
	if fsys == nil {
		panic("fs is nil")
	}

	return &Loader{fs: fsys, opts: opts}
}

// Load reads the file key relative to baseDir.
func (l *Loader) Load(baseDir, key string) (*Asset, error) {
	if key == "" || !filepath.IsLocal(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	path := filepath.Join(baseDir, key)

	file, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}

	size := info.Size()
	if l.opts.MaxSize > 0 && size > l.opts.MaxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrTooLarge, path, size, l.opts.MaxSize)
	}

	a := &Asset{
		Key:     key,
		Path:    path,
		ModTime: info.ModTime(),
	}

	if l.opts.Mmap && size > 0 {
		data, mmapErr := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
		if mmapErr != nil {
			return nil, fmt.Errorf("mmap %s: %w", path, mmapErr)
		}

		a.Data = data
		a.mapped = true

		return a, nil
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	a.Data = data

	return a, nil
}
