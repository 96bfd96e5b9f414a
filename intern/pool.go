// Package intern implements the process-wide, append-only string/address
// pool (component B). Entries are deduplicated by content hash and handed
// out as stable model.Ref values; the pool never removes an entry, so a
// Ref remains valid for the engine's entire lifetime.
package intern

import (
	"sync"

	"github.com/OneOfOne/xxhash"

	"github.com/sankooc/shark-go/model"
)

// Pool is a single-writer, content-addressed table. The zero value is
// ready to use. It is safe for concurrent use: writes take an exclusive
// lock and lookups (including Resolve) take the shared lock. Entries are
// never mutated once inserted, so a Ref always resolves to the same string.
type Pool struct {
	mu      sync.RWMutex
	byHash  map[uint64][]model.Ref
	entries []string
}

// New returns an empty, ready-to-use Pool.
func New() *Pool {
	return &Pool{byHash: make(map[uint64][]model.Ref)}
}

// Intern deduplicates s against the pool's content and returns a stable
// Ref. Two calls with byte-identical s always return the same Ref; a hash
// collision between distinct strings gets distinct Refs, chained off the
// same hash bucket.
func (p *Pool) Intern(s string) model.Ref {
	h := xxhash.ChecksumString64(s)

	if ref, ok := p.find(h, s); ok {
		return ref
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Re-check under the write lock: another writer may have interned the
	// same content while we waited for it.
	for _, ref := range p.byHash[h] {
		if p.entries[ref] == s {
			return ref
		}
	}

	if p.byHash == nil {
		p.byHash = make(map[uint64][]model.Ref)
	}
	ref := model.Ref(len(p.entries))
	p.entries = append(p.entries, s)
	p.byHash[h] = append(p.byHash[h], ref)
	return ref
}

func (p *Pool) find(h uint64, s string) (model.Ref, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ref := range p.byHash[h] {
		if p.entries[ref] == s {
			return ref, true
		}
	}
	return 0, false
}

// Resolve returns the original string behind a Ref. It never fails for a
// Ref this Pool produced.
func (p *Pool) Resolve(ref model.Ref) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.entries[ref]
}

// Len reports how many distinct strings have been interned so far.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}
