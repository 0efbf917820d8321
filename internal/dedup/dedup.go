// internal/dedup/dedup.go
package dedup

import "sync"

const defaultCapacity = 4096

// Deduplicator tracks which callback ids have already been handled, so a
// redelivered button press is a no-op. Memory is bounded by a FIFO ring of
// the most recent ids; once full, the oldest id is forgotten. State is never
// persisted — a restart simply starts with an empty set.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[string]struct{}
	ring []string
	next int
}

func New(capacity int) *Deduplicator {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Deduplicator{
		seen: make(map[string]struct{}, capacity),
		ring: make([]string, capacity),
	}
}

// ShouldProcess reports whether id is seen for the first time, marking it as
// processed. Every later call with the same id returns false (until the id
// ages out of the ring).
func (d *Deduplicator) ShouldProcess(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, dup := d.seen[id]; dup {
		return false
	}
	if old := d.ring[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.ring[d.next] = id
	d.next = (d.next + 1) % len(d.ring)
	d.seen[id] = struct{}{}
	return true
}
