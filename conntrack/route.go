package conntrack

import (
	"sync"

	"github.com/moraru210/rematcher/internal/ringmap"
)

// Table is conn_map: a fixed-capacity store of Reroute entries keyed by the
// observed Conn, one RWMutex guarding all operations (spec §5: per-key
// atomicity, no cross-key transactionality across a multi-key sequence like
// a rematch handoff).
type Table struct {
	mu sync.RWMutex
	m  *ringmap.Map[Conn, Reroute]
}

// NewTable returns a Table with room for capacity entries (spec §3:
// 2*MAX_CLIENTS).
func NewTable(capacity int) *Table {
	return &Table{m: ringmap.New[Conn, Reroute](capacity)}
}

// Lookup returns the Reroute installed for key, if any.
func (t *Table) Lookup(key Conn) (Reroute, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m.Get(key)
}

// Insert installs or overwrites the Reroute at key. Returns ringmap.ErrFull
// if key is new and the table is at capacity.
func (t *Table) Insert(key Conn, r Reroute) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.Insert(key, r)
}

// Delete removes the entry at key, if present, and reports whether it was.
func (t *Table) Delete(key Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.Delete(key)
}

// Len reports the number of installed routes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m.Len()
}

// Cap reports the table's fixed capacity.
func (t *Table) Cap() int {
	return t.m.Cap()
}
