// Package snapshot holds the live published snapshot and its persistent copies.
package snapshot

import (
	"sync/atomic"

	"github.com/pep299/subreddit-digest/internal/model"
)

// Live is the single published snapshot cell. Readers get a whole snapshot
// or nil; publishing swaps the pointer and never edits a snapshot in place.
type Live struct {
	current    atomic.Pointer[model.Snapshot]
	generation atomic.Uint64
}

// NewLive creates an empty live cell
func NewLive() *Live {
	return &Live{}
}

// Load returns the current snapshot, or nil if nothing has been published
func (l *Live) Load() *model.Snapshot {
	return l.current.Load()
}

// NextGeneration reserves the generation number for a new refresh cycle
func (l *Live) NextGeneration() uint64 {
	return l.generation.Add(1)
}

// Publish replaces the live snapshot unless a snapshot of the same or a
// newer generation is already live. It reports whether s was published.
func (l *Live) Publish(s *model.Snapshot) bool {
	for {
		cur := l.current.Load()
		if cur != nil && cur.Generation >= s.Generation {
			return false
		}
		if l.current.CompareAndSwap(cur, s) {
			return true
		}
	}
}

// Restore installs a previously persisted snapshot when nothing is live yet.
// Generations handed out afterwards are greater than the restored one.
func (l *Live) Restore(s *model.Snapshot) bool {
	if s == nil {
		return false
	}
	for {
		gen := l.generation.Load()
		if gen >= s.Generation || l.generation.CompareAndSwap(gen, s.Generation) {
			break
		}
	}
	return l.current.CompareAndSwap(nil, s)
}
