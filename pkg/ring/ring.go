package ring

import (
	"fmt"
	"iter"
)

// Buffer is a fixed-capacity circular store of the last Cap() values added.
type Buffer[T any] struct {
	items  []T
	cursor int // next write position
	count  int // number of retained values, never above len(items)
}

// New returns an empty buffer holding at most capacity values.
func New[T any](capacity int) (*Buffer[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	return &Buffer[T]{items: make([]T, capacity)}, nil
}

// Add records v, discarding the oldest value if the buffer is full.
func (b *Buffer[T]) Add(v T) {
	b.items[b.cursor] = v
	b.cursor = (b.cursor + 1) % len(b.items)

	if b.count < len(b.items) {
		b.count++
	}
}

// Len returns the number of retained values.
func (b *Buffer[T]) Len() int {
	return b.count
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// All returns the retained values from oldest to newest.
//
// Each call to the returned sequence starts a fresh traversal of what is
// retained at that moment. Mutating the buffer during a traversal is not
// supported.
func (b *Buffer[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		start := b.oldest()

		for i := range b.count {
			if !yield(b.items[(start+i)%len(b.items)]) {
				return
			}
		}
	}
}

// Samples returns a copy of the retained values from oldest to newest.
// Returns nil if the buffer is empty.
func (b *Buffer[T]) Samples() []T {
	if b.count == 0 {
		return nil
	}

	out := make([]T, 0, b.count)
	for v := range b.All() {
		out = append(out, v)
	}

	return out
}

// oldest returns the slot index of the oldest retained value.
func (b *Buffer[T]) oldest() int {
	if b.count < len(b.items) {
		return 0
	}

	return b.cursor
}
