package seqtrack

import (
	"errors"
	"sync"

	"github.com/moraru210/rematcher/conntrack"
	"github.com/moraru210/rematcher/internal/ringmap"
)

// Table is numbers_map: a fixed-capacity store of Numbers keyed by Conn,
// guarded by one RWMutex. The bookkeeper never writes to any other table
// (spec §4.4).
type Table struct {
	mu sync.RWMutex
	m  *ringmap.Map[conntrack.Conn, Numbers]
}

// NewTable returns a Table with room for capacity entries (spec §3:
// MAX_CLIENTS + MAX_SERVERS*MAX_PER_SERVER).
func NewTable(capacity int) *Table {
	return &Table{m: ringmap.New[conntrack.Conn, Numbers](capacity)}
}

// Read returns the Numbers recorded for conn, if any. Used directly by the
// rematch handoff to read both the old and new backend's numbers.
func (t *Table) Read(conn conntrack.Conn) (Numbers, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m.Get(conn)
}

// SeedFromClientAck records the connection-birth observation on the client
// side: the first ACK seen from the client before any route exists.
// init_seq/init_ack are captured here and never touched again outside a
// reset (spec §4.3 miss path, §4.4 contract).
func (t *Table) SeedFromClientAck(conn conntrack.Conn, seq, ack Value, eth conntrack.EthConn) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.Insert(conn, Numbers{
		SeqNo: seq, AckNo: ack,
		InitSeq: seq, InitAck: ack,
		Eth: eth,
	})
}

// SeedFromSynAck seeds the expected numbers for a SYN+ACK's own observed
// direction, using standard handshake arithmetic: seq_no is this segment's
// ack, and ack_no is this segment's seq plus one (spec §4.3 miss path,
// worked example in §8 scenario 1: a SYN+ACK from 10.0.0.50:4171 to
// 10.0.0.1:40000 seeds numbers_map at that same (backend→client) key, not
// its reverse).
func (t *Table) SeedFromSynAck(conn conntrack.Conn, segSeq, segAck Value, eth conntrack.EthConn) error {
	seq := segAck
	ack := Add(segSeq, 1)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.Insert(conn, Numbers{
		SeqNo: seq, AckNo: ack,
		InitSeq: seq, InitAck: ack,
		Eth: eth,
	})
}

// RestoreInitialForRST returns the init_seq/init_ack pair recorded at
// connection birth, for replay onto an outgoing RST, and reports whether an
// entry existed.
func (t *Table) RestoreInitialForRST(conn conntrack.Conn) (seq, ack Value, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.m.Get(conn)
	if !ok {
		return 0, 0, false
	}
	return n.InitSeq, n.InitAck, true
}

// ErrNoEntry is returned by operations that require a pre-existing Numbers
// entry (spec §7 error kind 4: missing dependent state).
var ErrNoEntry = errors.New("seqtrack: no numbers entry for key")

// AdvanceOnServerPSH updates seq_no/ack_no for conn following a PSH segment
// of payloadLen bytes: seq_no becomes the segment's ack, ack_no becomes the
// segment's seq plus payloadLen (spec §4.3 hit path). conn must already
// have an entry; this never seeds one.
func (t *Table) AdvanceOnServerPSH(conn conntrack.Conn, segSeq, segAck Value, payloadLen int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.m.Get(conn)
	if !ok {
		return ErrNoEntry
	}
	n.SeqNo = segAck
	n.AckNo = Add(segSeq, Size(payloadLen))
	return t.m.Insert(conn, n)
}

// SetNumbers overwrites seq_no/ack_no for conn directly, leaving init_seq/
// init_ack untouched. Used for the client-facing direction's update on a
// server PSH, whose formula (offset-adjusted) differs from the
// segment-derived one AdvanceOnServerPSH applies to the server-facing
// direction (spec §4.3 hit path). conn must already have an entry.
func (t *Table) SetNumbers(conn conntrack.Conn, seqNo, ackNo Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.m.Get(conn)
	if !ok {
		return ErrNoEntry
	}
	n.SeqNo = seqNo
	n.AckNo = ackNo
	return t.m.Insert(conn, n)
}

// Delete removes the entry at conn, the bookkeeper's response to an
// observed RST on that key.
func (t *Table) Delete(conn conntrack.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.Delete(conn)
}

// Len reports the number of recorded connections.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m.Len()
}

// Cap reports the table's fixed capacity.
func (t *Table) Cap() int {
	return t.m.Cap()
}
