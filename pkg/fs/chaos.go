package fs

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/calvinalkan/assetcache/pkg/ring"
)

// ChaosConfig controls fault injection probabilities.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
//
// The zero value disables all fault injection.
type ChaosConfig struct {
	// OpenFailRate controls how often FS.Open fails. Returns EACCES, EIO,
	// EMFILE, ENFILE or ENOTDIR.
	OpenFailRate float64

	// ReadFailRate controls how often FS.ReadFile and File.Read fail,
	// returning no data and EIO.
	ReadFailRate float64

	// FileStatFailRate controls how often File.Stat fails on an open handle,
	// returning EIO. Distinct from StatFailRate, which covers FS.Stat.
	FileStatFailRate float64

	// StatFailRate controls how often FS.Stat and FS.Exists fail on a path.
	// Returns EACCES or EIO.
	StatFailRate float64

	// ReadDirFailRate controls how often FS.ReadDir fails, returning no
	// entries. Returns EACCES, EIO or ENOTDIR.
	ReadDirFailRate float64

	// WriteFailRate controls how often FS.WriteFileAtomic and FS.MkdirAll
	// fail before touching the target. Returns EIO, ENOSPC or EROFS.
	WriteFailRate float64

	// TraceCapacity is the number of recent operations kept for [Chaos.Trace].
	// Zero disables tracing.
	TraceCapacity int
}

// ChaosMode controls how [Chaos] behaves.
type ChaosMode uint8

const (
	// ChaosModeActive enables fault-rate injection.
	// This is the default mode for a new [Chaos].
	ChaosModeActive ChaosMode = iota

	// ChaosModeNoOp passes every operation directly to the underlying FS.
	ChaosModeNoOp
)

// ChaosStats contains counts of injected faults.
type ChaosStats struct {
	OpenFails     int64
	ReadFails     int64
	FileStatFails int64
	StatFails     int64
	ReadDirFails  int64
	WriteFails    int64
}

// Total returns the sum of all counts.
func (s ChaosStats) Total() int64 {
	return s.OpenFails + s.ReadFails + s.FileStatFails + s.StatFails + s.ReadDirFails + s.WriteFails
}

// chaosError marks an error as injected by [Chaos]. It wraps an
// [*fs.PathError] carrying a real [syscall.Errno], so errors.Is and
// os.IsPermission keep working.
type chaosError struct {
	Err error
}

func (e *chaosError) Error() string {
	return "chaos: " + e.Err.Error()
}

func (e *chaosError) Unwrap() error {
	return e.Err
}

// IsChaosErr reports whether err (or any wrapped error) was injected by [Chaos].
func IsChaosErr(err error) bool {
	var injected *chaosError

	return errors.As(err, &injected)
}

// Chaos wraps an [FS] and injects random failures for testing.
//
// Each call independently decides whether to inject; there is no per-path
// sticky state. Chaos never injects ENOENT, so any os.ErrNotExist comes from
// the wrapped FS.
type Chaos struct {
	fs     FS
	rng    *rand.Rand
	config ChaosConfig
	mode   atomic.Uint32
	trace  *ring.Shared[TraceEvent]
	seq    atomic.Uint64

	rngMu sync.Mutex

	openFails     atomic.Int64
	readFails     atomic.Int64
	fileStatFails atomic.Int64
	statFails     atomic.Int64
	readDirFails  atomic.Int64
	writeFails    atomic.Int64
}

// NewChaos creates a new [Chaos] filesystem wrapping the given [FS].
// The seed controls random fault injection for reproducibility.
// Panics if underlying is nil.
func NewChaos(underlying FS, seed int64, config ChaosConfig) *Chaos {
	if underlying == nil {
		panic("underlying fs is nil")
	}

	c := &Chaos{
		fs:     underlying,
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed))),
		config: config,
	}

	if config.TraceCapacity > 0 {
		// Capacity is positive, so NewShared cannot fail.
		c.trace, _ = ring.NewShared[TraceEvent](config.TraceCapacity)
	}

	return c
}

// SetMode updates [Chaos] behavior. Safe to call concurrently with
// filesystem operations.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// Stats returns the current fault injection counts.
func (c *Chaos) Stats() ChaosStats {
	return ChaosStats{
		OpenFails:     c.openFails.Load(),
		ReadFails:     c.readFails.Load(),
		FileStatFails: c.fileStatFails.Load(),
		StatFails:     c.statFails.Load(),
		ReadDirFails:  c.readDirFails.Load(),
		WriteFails:    c.writeFails.Load(),
	}
}

// TraceEvents returns the most recent operations, oldest first.
// Returns nil if tracing is disabled.
func (c *Chaos) TraceEvents() []TraceEvent {
	if c.trace == nil {
		return nil
	}

	events, err := c.trace.Samples()
	if err != nil {
		return nil
	}

	return events
}

// Trace returns [Chaos.TraceEvents] formatted one per line.
func (c *Chaos) Trace() string {
	events := c.TraceEvents()
	lines := make([]string, 0, len(events))

	for _, e := range events {
		lines = append(lines, e.String())
	}

	return strings.Join(lines, "\n")
}

func (c *Chaos) Open(path string) (File, error) {
	if c.should(c.config.OpenFailRate) {
		c.openFails.Add(1)

		return nil, c.inject("open", path, c.pick(syscall.EACCES, syscall.EIO, syscall.EMFILE, syscall.ENFILE, syscall.ENOTDIR))
	}

	file, err := c.fs.Open(path)
	c.record("open", path, err)

	if err != nil {
		return nil, err
	}

	return &chaosFile{File: file, chaos: c, path: path}, nil
}

func (c *Chaos) ReadFile(path string) ([]byte, error) {
	if c.should(c.config.ReadFailRate) {
		c.readFails.Add(1)

		return nil, c.inject("read", path, syscall.EIO)
	}

	data, err := c.fs.ReadFile(path)
	c.record("readfile", path, err)

	return data, err
}

func (c *Chaos) ReadDir(path string) ([]os.DirEntry, error) {
	if c.should(c.config.ReadDirFailRate) {
		c.readDirFails.Add(1)

		return nil, c.inject("readdir", path, c.pick(syscall.EACCES, syscall.EIO, syscall.ENOTDIR))
	}

	entries, err := c.fs.ReadDir(path)
	c.record("readdir", path, err)

	return entries, err
}

func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	if c.should(c.config.StatFailRate) {
		c.statFails.Add(1)

		return nil, c.inject("stat", path, c.pick(syscall.EACCES, syscall.EIO))
	}

	info, err := c.fs.Stat(path)
	c.record("stat", path, err)

	return info, err
}

func (c *Chaos) Exists(path string) (bool, error) {
	if c.should(c.config.StatFailRate) {
		c.statFails.Add(1)

		return false, c.inject("stat", path, c.pick(syscall.EACCES, syscall.EIO))
	}

	ok, err := c.fs.Exists(path)
	c.record("exists", path, err)

	return ok, err
}

func (c *Chaos) MkdirAll(path string, perm os.FileMode) error {
	if c.should(c.config.WriteFailRate) {
		c.writeFails.Add(1)

		return c.inject("mkdir", path, c.pick(syscall.EIO, syscall.ENOSPC, syscall.EROFS))
	}

	err := c.fs.MkdirAll(path, perm)
	c.record("mkdir", path, err)

	return err
}

func (c *Chaos) WriteFileAtomic(path string, data []byte) error {
	if c.should(c.config.WriteFailRate) {
		c.writeFails.Add(1)

		return c.inject("write", path, c.pick(syscall.EIO, syscall.ENOSPC, syscall.EROFS))
	}

	err := c.fs.WriteFileAtomic(path, data)
	c.record("write", path, err)

	return err
}

func (c *Chaos) should(rate float64) bool {
	if ChaosMode(c.mode.Load()) != ChaosModeActive || rate <= 0 {
		return false
	}

	c.rngMu.Lock()
	defer c.rngMu.Unlock()

	return c.rng.Float64() < rate
}

func (c *Chaos) pick(errnos ...syscall.Errno) syscall.Errno {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()

	return errnos[c.rng.IntN(len(errnos))]
}

func (c *Chaos) inject(op, path string, errno syscall.Errno) error {
	err := &chaosError{Err: &fs.PathError{Op: op, Path: path, Err: errno}}
	c.add(TraceEvent{Op: op, Path: path, Err: err, Injected: true})

	return err
}

func (c *Chaos) record(op, path string, err error) {
	c.add(TraceEvent{Op: op, Path: path, Err: err})
}

func (c *Chaos) add(e TraceEvent) {
	if c.trace == nil {
		return
	}

	e.Seq = c.seq.Add(1)
	_ = c.trace.Add(e)
}

// chaosFile wraps an open [File] and injects read and stat failures.
type chaosFile struct {
	File

	chaos *Chaos
	path  string
}

func (cf *chaosFile) Read(buf []byte) (int, error) {
	if cf.chaos.should(cf.chaos.config.ReadFailRate) {
		cf.chaos.readFails.Add(1)

		return 0, cf.chaos.inject("file.read", cf.path, syscall.EIO)
	}

	return cf.File.Read(buf)
}

func (cf *chaosFile) Stat() (os.FileInfo, error) {
	if cf.chaos.should(cf.chaos.config.FileStatFailRate) {
		cf.chaos.fileStatFails.Add(1)

		return nil, cf.chaos.inject("file.stat", cf.path, syscall.EIO)
	}

	return cf.File.Stat()
}

var _ FS = (*Chaos)(nil)

// TraceEvent records a single Chaos operation.
type TraceEvent struct {
	// Seq is the monotonically increasing sequence number.
	Seq uint64
	// Op is the operation name (e.g., "open", "file.read").
	Op string
	// Path is the filesystem path involved.
	Path string
	// Err is the error returned by the operation (nil for success).
	Err error
	// Injected is true if Chaos produced Err.
	Injected bool
}

func (e TraceEvent) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "#%d", e.Seq)

	if e.Injected {
		sb.WriteString(" [CHAOS]")
	}

	fmt.Fprintf(&sb, " %s path=%q", e.Op, e.Path)

	if e.Err != nil {
		fmt.Fprintf(&sb, " err=%v", e.Err)
	} else {
		sb.WriteString(" ok")
	}

	return sb.String()
}
