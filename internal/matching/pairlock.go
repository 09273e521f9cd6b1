package matching

import "sync"

// pairKey identifies an unordered user pair; Lo < Hi always holds.
type pairKey struct {
	Lo, Hi int64
}

func keyFor(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{Lo: a, Hi: b}
}

type pairEntry struct {
	mu   sync.Mutex
	refs int
}

// pairLocks hands out one mutex per unordered user pair so reciprocal-swipe
// resolution is serialized per pair without serializing unrelated pairs.
// Entries are refcounted and pruned once the last holder releases.
type pairLocks struct {
	mu    sync.Mutex
	locks map[pairKey]*pairEntry
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[pairKey]*pairEntry)}
}

// Lock blocks until the caller holds the pair's mutex.
func (p *pairLocks) Lock(a, b int64) {
	key := keyFor(a, b)

	p.mu.Lock()
	entry, ok := p.locks[key]
	if !ok {
		entry = &pairEntry{}
		p.locks[key] = entry
	}
	entry.refs++
	p.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the pair's mutex and prunes the entry when nobody else is
// holding or waiting on it.
func (p *pairLocks) Unlock(a, b int64) {
	key := keyFor(a, b)

	p.mu.Lock()
	entry := p.locks[key]
	entry.refs--
	if entry.refs == 0 {
		delete(p.locks, key)
	}
	p.mu.Unlock()

	entry.mu.Unlock()
}
