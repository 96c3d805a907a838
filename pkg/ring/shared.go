package ring

import "sync"

// Shared is a [Buffer] guarded by a mutex, for recording from many goroutines.
//
// Unlike [sync.Mutex], Shared remembers when a holder panicked mid-mutation
// inside [Shared.With]. From then on the handle is poisoned and every lock
// attempt returns [ErrPoisoned].
type Shared[T any] struct {
	mu       sync.Mutex
	buf      *Buffer[T]
	poisoned bool // guarded by mu
}

// NewShared returns a lock-guarded buffer holding at most capacity values.
func NewShared[T any](capacity int) (*Shared[T], error) {
	buf, err := New[T](capacity)
	if err != nil {
		return nil, err
	}

	return &Shared[T]{buf: buf}, nil
}

// Lock acquires the mutex and returns the guarded buffer. The caller must
// call [Shared.Unlock] when done, and must not keep the buffer afterwards.
//
// If the handle is poisoned, Lock releases the mutex again and returns
// [ErrPoisoned]; the caller must not call Unlock in that case.
//
// Lock does not detect panics between Lock and Unlock. Use [Shared.With] for
// mutations that may panic.
func (s *Shared[T]) Lock() (*Buffer[T], error) {
	s.mu.Lock()

	if s.poisoned {
		s.mu.Unlock()

		return nil, ErrPoisoned
	}

	return s.buf, nil
}

// Unlock releases the mutex acquired by a successful [Shared.Lock].
func (s *Shared[T]) Unlock() {
	s.mu.Unlock()
}

// With runs fn with the lock held. If fn panics, the handle is poisoned
// before the lock is released, and the panic keeps propagating.
func (s *Shared[T]) With(fn func(buf *Buffer[T])) error {
	buf, err := s.Lock()
	if err != nil {
		return err
	}

	completed := false

	defer func() {
		if !completed {
			s.poisoned = true
		}

		s.mu.Unlock()
	}()

	fn(buf)

	completed = true

	return nil
}

// Add records v under the lock.
func (s *Shared[T]) Add(v T) error {
	return s.With(func(buf *Buffer[T]) {
		buf.Add(v)
	})
}

// Samples returns a copy of the retained values from oldest to newest.
func (s *Shared[T]) Samples() ([]T, error) {
	var out []T

	err := s.With(func(buf *Buffer[T]) {
		out = buf.Samples()
	})

	return out, err
}

// Len returns the number of retained values.
func (s *Shared[T]) Len() (int, error) {
	var n int

	err := s.With(func(buf *Buffer[T]) {
		n = buf.Len()
	})

	return n, err
}

// Cap returns the fixed capacity. It never blocks.
func (s *Shared[T]) Cap() int {
	return s.buf.Cap()
}

// Poisoned reports whether a holder panicked inside [Shared.With].
func (s *Shared[T]) Poisoned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.poisoned
}
