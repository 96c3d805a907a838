package ring

import "errors"

var (
	// ErrInvalidCapacity is returned by [New] and [NewShared] when the
	// requested capacity is not positive.
	//
	// This is a programming error.
	ErrInvalidCapacity = errors.New("ring: invalid capacity")

	// ErrPoisoned indicates a previous holder of a [Shared] lock panicked
	// while mutating the buffer. The buffer's cursor and count can no longer
	// be trusted.
	//
	// Recovery: none. Discard the buffer.
	ErrPoisoned = errors.New("ring: poisoned")
)
