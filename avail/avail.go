// Package avail owns available_map: for each backend server endpoint, a
// fixed vector of slots recording which client connections currently hold a
// claim on that server. The control plane stamps a slot valid when it
// assigns a backend; the core flips it invalid on teardown or handoff.
package avail

import (
	"errors"
	"sync"

	"github.com/moraru210/rematcher/conntrack"
	"github.com/moraru210/rematcher/internal/ringmap"
)

// MaxPerServer is the number of concurrent client bindings a single backend
// endpoint can hold (spec §3).
const MaxPerServer = 3

// ErrSlotOutOfRange is returned when an index outside [0, MaxPerServer) is
// used to address a Vector (spec §7 error kind 6).
var ErrSlotOutOfRange = errors.New("avail: slot index out of range")

// Slot is one binding within a server's availability vector.
type Slot struct {
	Conn  conntrack.Conn
	Valid bool
}

// Vector is the fixed-size slot array for one backend endpoint.
type Vector [MaxPerServer]Slot

// Table is available_map: a fixed-capacity store of Vectors keyed by server
// Endpoint, guarded by one RWMutex.
type Table struct {
	mu sync.RWMutex
	m  *ringmap.Map[conntrack.Endpoint, Vector]
}

// NewTable returns a Table with room for capacity server endpoints (spec
// §3: MAX_SERVERS).
func NewTable(capacity int) *Table {
	return &Table{m: ringmap.New[conntrack.Endpoint, Vector](capacity)}
}

// Stamp installs conn at index in server's vector and marks it valid. This
// is the control plane's entry point when admitting a client (spec §6); the
// core itself never calls Stamp.
func (t *Table) Stamp(server conntrack.Endpoint, index int, conn conntrack.Conn) error {
	if index < 0 || index >= MaxPerServer {
		return ErrSlotOutOfRange
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	vec, _ := t.m.Get(server)
	vec[index] = Slot{Conn: conn, Valid: true}
	return t.m.Insert(server, vec)
}

// IsValid reports whether the slot at index in server's vector is currently
// valid, and an error if index is out of range.
func (t *Table) IsValid(server conntrack.Endpoint, index int) (bool, error) {
	if index < 0 || index >= MaxPerServer {
		return false, ErrSlotOutOfRange
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	vec, ok := t.m.Get(server)
	if !ok {
		return false, nil
	}
	return vec[index].Valid, nil
}

// Invalidate flips the slot at index in server's vector to invalid. Freeing
// a slot that was never valid, or whose server has no vector, is a no-op.
func (t *Table) Invalidate(server conntrack.Endpoint, index int) error {
	if index < 0 || index >= MaxPerServer {
		return ErrSlotOutOfRange
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	vec, ok := t.m.Get(server)
	if !ok {
		return nil
	}
	vec[index].Valid = false
	return t.m.Insert(server, vec)
}

// Len reports the number of server endpoints with a recorded vector.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m.Len()
}

// Cap reports the table's fixed capacity.
func (t *Table) Cap() int {
	return t.m.Cap()
}
