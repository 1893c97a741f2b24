package game

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r2"
)

// RegistryEntry is one void as seen by spatial queries.
type RegistryEntry struct {
	ID       string
	Position r2.Vec
	Radius   float64
	IsPlayer bool
}

// Registry is the shared spatial table of live voids, keyed by id.
// Entries keep insertion order so every snapshot iterates the same way.
type Registry struct {
	mu      sync.RWMutex
	index   map[string]int
	entries []RegistryEntry
}

// NewRegistry creates an empty registry sized for capacity voids
func NewRegistry(capacity int) *Registry {
	if capacity < 0 {
		capacity = 0
	}
	return &Registry{
		index:   make(map[string]int, capacity),
		entries: make([]RegistryEntry, 0, capacity),
	}
}

// Upsert inserts id or overwrites its entry in place
func (r *Registry) Upsert(id string, pos r2.Vec, radius float64, isPlayer bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := RegistryEntry{ID: id, Position: pos, Radius: radius, IsPlayer: isPlayer}
	if i, ok := r.index[id]; ok {
		r.entries[i] = entry
		return
	}
	r.index[id] = len(r.entries)
	r.entries = append(r.entries, entry)
}

// Remove deletes id. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return
	}
	delete(r.index, id)
	copy(r.entries[i:], r.entries[i+1:])
	r.entries = r.entries[:len(r.entries)-1]
	for j := i; j < len(r.entries); j++ {
		r.index[r.entries[j].ID] = j
	}
}

// Get returns a copy of the entry for id
func (r *Registry) Get(id string) (RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return RegistryEntry{}, false
	}
	return r.entries[i], true
}

// Snapshot returns a point-in-time copy of all entries in insertion order.
func (r *Registry) Snapshot() []RegistryEntry {
	return r.SnapshotInto(nil)
}

// SnapshotInto appends the current entries to buf[:0] and returns it.
// The tick loop passes a reused buffer to avoid a per-tick allocation.
func (r *Registry) SnapshotInto(buf []RegistryEntry) []RegistryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	buf = buf[:0]
	return append(buf, r.entries...)
}

// Len returns the number of live entries
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear removes every entry
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.index)
	r.entries = r.entries[:0]
}
