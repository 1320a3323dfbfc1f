package auction

import "sync"

// lockArena hands out one mutex per item id. Entries are created lazily and
// reclaimed once the last holder releases, so the map stays bounded by the
// number of items with in-flight operations.
type lockArena struct {
	mu      sync.Mutex
	entries map[string]*arenaEntry
}

type arenaEntry struct {
	mu   sync.Mutex
	refs int
}

func newLockArena() *lockArena {
	return &lockArena{entries: make(map[string]*arenaEntry)}
}

// lock acquires the item's mutex and returns its release func.
func (a *lockArena) lock(id string) func() {
	a.mu.Lock()
	entry, ok := a.entries[id]
	if !ok {
		entry = &arenaEntry{}
		a.entries[id] = entry
	}
	entry.refs++
	a.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		a.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(a.entries, id)
		}
		a.mu.Unlock()
	}
}

// size reports the number of live entries; used by tests to verify reclamation.
func (a *lockArena) size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
