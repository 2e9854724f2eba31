// Package mempool defines the snapshot-of-unconfirmed-transactions contract
// the Template Builder scans. The mempool itself — admission policy,
// eviction, orphan handling, disk overflow — lives outside this module per
// spec.md section 1; this package names the contract and keeps the small
// fee/priority-delta data shape used when an entry is pulled into a
// template.
package mempool

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/prcycoin/blockforge/wire"
)

// Entry is a transaction plus the per-entry metadata the Template Builder's
// selection loop needs: a fee rate, a priority delta applied on top of the
// computed input-age priority, and the list of key images the transaction's
// inputs carry (duplicated here for a cheap uniqueness check without
// re-walking tx.TxIn on every heap operation).
type Entry struct {
	Tx         *wire.MsgTx
	Added      time.Time
	Height     int32
	Fee        int64
	FeeRate    int64 // base units per kilobyte
	KeyImages  []wire.KeyImage
	PriorDelta float64
	FeeDelta   int64
}

// Source is the snapshot-of-entries contract the Template Builder consults.
// Implementations must be safe for concurrent access; the builder calls
// Snapshot once per template build and holds no chain or mempool lock while
// it does.
type Source interface {
	// Snapshot returns every entry currently admitted to the pool, keyed
	// by transaction hash. The returned map is owned by the caller —
	// implementations must return a copy, not a live reference into
	// pool-internal storage, since the caller holds no lock once this
	// returns.
	Snapshot() map[chainhash.Hash]*Entry

	// ApplyDeltas adds any prioritise-transaction deltas registered for
	// hash on top of the given priority/fee, returning the adjusted
	// values.
	ApplyDeltas(hash chainhash.Hash, priority float64, fee int64) (float64, int64)

	// GetTransactionsUpdated returns a counter that increments every time
	// a transaction is added to or removed from the pool. The PoW loop
	// polls this to decide whether its template has gone stale.
	GetTransactionsUpdated() uint64
}

// Memory is a minimal in-memory Source reference implementation, used by
// this module's own tests and suitable as a starting point for a real
// mempool integration.
type Memory struct {
	mu      sync.Mutex
	entries map[chainhash.Hash]*Entry
	updated uint64
	deltas  map[chainhash.Hash]struct {
		priority float64
		fee      int64
	}
}

// NewMemory returns an empty in-memory mempool.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[chainhash.Hash]*Entry),
		deltas: make(map[chainhash.Hash]struct {
			priority float64
			fee      int64
		}),
	}
}

// Add inserts or replaces an entry and bumps the updated counter.
func (m *Memory) Add(hash chainhash.Hash, e *Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[hash] = e
	m.updated++
}

// Remove deletes an entry and bumps the updated counter.
func (m *Memory) Remove(hash chainhash.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[hash]; ok {
		delete(m.entries, hash)
		m.updated++
	}
}

// PrioritiseTransaction registers a standing priority/fee delta for hash,
// applied by every subsequent ApplyDeltas call.
func (m *Memory) PrioritiseTransaction(hash chainhash.Hash, priority float64, fee int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deltas[hash] = struct {
		priority float64
		fee      int64
	}{priority, fee}
}

func (m *Memory) Snapshot() map[chainhash.Hash]*Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[chainhash.Hash]*Entry, len(m.entries))
	for h, e := range m.entries {
		cp := *e
		out[h] = &cp
	}
	return out
}

func (m *Memory) ApplyDeltas(hash chainhash.Hash, priority float64, fee int64) (float64, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.deltas[hash]; ok {
		priority += d.priority
		fee += d.fee
	}
	return priority, fee
}

func (m *Memory) GetTransactionsUpdated() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updated
}
