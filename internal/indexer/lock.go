package indexer

import "sync/atomic"

// IndexLock is a non-blocking try-lock built on an atomic flag. It keeps
// overlapping index runs on the same Indexer from interleaving.
type IndexLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to take the lock without blocking and reports
// whether it succeeded.
func (l *IndexLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock. Must only be called by the holder.
func (l *IndexLock) Release() {
	l.state.Store(0)
}
