// Package ring provides a fixed-capacity rolling sample buffer.
//
// A [Buffer] keeps the last N values added to it. Once full, every [Buffer.Add]
// overwrites the oldest retained value. Nothing is ever reallocated after
// [New] returns.
//
//	buf, err := ring.New[time.Duration](64)
//	if err != nil {
//	    return err
//	}
//
//	buf.Add(elapsed)
//
//	for d := range buf.All() {
//	    // oldest to newest
//	}
//
// # Concurrency
//
// [Buffer] is NOT safe for concurrent use. Wrap it in a [Shared] when several
// goroutines record into the same buffer. [Shared] serializes every mutation
// behind one mutex and tracks poisoning: if a mutation panics while the lock
// is held, the buffer may be half-updated and all later lock attempts fail
// with [ErrPoisoned].
package ring
