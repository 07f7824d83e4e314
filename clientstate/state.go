// Package clientstate owns state_map: the per-client transactional phase
// that gates when a rematch handoff is allowed to complete, so a handoff
// never splits a half-delivered request/response.
package clientstate

import (
	"sync"

	"github.com/moraru210/rematcher/conntrack"
	"github.com/moraru210/rematcher/internal/ringmap"
)

// Phase is a client's transactional phase.
type Phase uint8

const (
	// PhaseRequestSent means the last payload observed on this client's
	// virtual connection travelled client → server.
	PhaseRequestSent Phase = 0
	// PhaseResponseReceived means the last payload observed travelled
	// server → client. A rematch may only complete in this phase.
	PhaseResponseReceived Phase = 1
)

// Table is state_map: a fixed-capacity store of Phase keyed by client
// Endpoint, guarded by one RWMutex.
type Table struct {
	mu sync.RWMutex
	m  *ringmap.Map[conntrack.Endpoint, Phase]
}

// NewTable returns a Table with room for capacity client endpoints (spec
// §3: MAX_CLIENTS).
func NewTable(capacity int) *Table {
	return &Table{m: ringmap.New[conntrack.Endpoint, Phase](capacity)}
}

// Get returns the phase recorded for client, if any.
func (t *Table) Get(client conntrack.Endpoint) (Phase, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m.Get(client)
}

// Set records phase for client.
func (t *Table) Set(client conntrack.Endpoint, phase Phase) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.Insert(client, phase)
}

// Len reports the number of clients with a recorded phase.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m.Len()
}

// Cap reports the table's fixed capacity.
func (t *Table) Cap() int {
	return t.m.Cap()
}
