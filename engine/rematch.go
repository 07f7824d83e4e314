package engine

import (
	"github.com/moraru210/rematcher/clientstate"
	"github.com/moraru210/rematcher/conntrack"
)

// maybeRematch implements the spec §4.3.1 handoff. r is the server-facing
// route entry matching the current packet (conn is its key); the handoff
// only fires when r.RematchFlag is set and the client has fully received a
// response (clientstate.PhaseResponseReceived). If the new backend's
// numbers haven't been seeded yet (no prior SYN+ACK observation), the
// handoff is deferred to a later packet rather than treated as an error:
// the control plane is free to set rematch_flag before the new backend has
// answered.
//
// Returns the updated Reroute and true if the handoff executed; the
// original r and false otherwise. abort is non-nil only when a
// table-capacity or slot-range failure interrupts an otherwise-eligible
// handoff.
func (e *Engine) maybeRematch(r conntrack.Reroute, conn conntrack.Conn, pktEth conntrack.EthConn) (conntrack.Reroute, bool, *Result) {
	clientEndpoint := conntrack.Endpoint{Addr: r.OriginalConn.Dst.Addr, Port: r.OriginalConn.Dst.Port}
	phase, ok := e.state.Get(clientEndpoint)
	if !ok || phase != clientstate.PhaseResponseReceived {
		return r, false, nil
	}

	old, ok := e.numbers.Read(conn)
	if !ok {
		return r, false, nil
	}
	newNum, ok := e.numbers.Read(r.NewConn)
	if !ok {
		return r, false, nil
	}

	cSeqOffset := int32(old.SeqNo) - int32(newNum.SeqNo)
	cAckOffset := int32(old.AckNo) - int32(newNum.AckNo)
	sSeqOffset := int32(newNum.AckNo) - int32(old.AckNo)
	sAckOffset := int32(newNum.SeqNo) - int32(old.SeqNo)

	// 1. Free the old backend's slot. The backend's own address is this
	// packet's own source endpoint: this is a server-facing entry, so
	// conn.Src was sent by the backend itself.
	if err := e.avail.Invalidate(conn.Src, r.OriginalIndex); err != nil {
		return r, false, &Result{Action: Aborted, Reason: ReasonSlotOutOfRange}
	}

	// 2-3. Old/new numbers already read and offsets computed above.

	// 4. Delete the stale reverse route.
	e.routes.Delete(r.OriginalConn.Reverse())

	// 6. Install the fresh reverse route before mutating r, since it
	// captures r.NewConn's pre-promotion value.
	freshKey := r.NewConn.Reverse()
	fresh := conntrack.Reroute{
		OriginalConn:  conn.Reverse(),
		OriginalEth:   pktEth.Reverse(),
		OriginalIndex: 0,
		SeqOffset:     sSeqOffset,
		AckOffset:     sAckOffset,
	}
	fresh.NewConn = fresh.OriginalConn
	fresh.NewEth = fresh.OriginalEth
	fresh.NewIndex = 0
	if err := e.routes.Insert(freshKey, fresh); err != nil {
		return r, false, &Result{Action: Aborted, Reason: ReasonTableFull}
	}

	// 5. Promote new_* into original_* on the entry the current packet
	// matched, store client-side offsets, clear the pending flag.
	r.OriginalConn = r.NewConn
	r.OriginalEth = r.NewEth
	r.OriginalIndex = r.NewIndex
	r.SeqOffset = cSeqOffset
	r.AckOffset = cAckOffset
	r.RematchFlag = false
	if err := e.routes.Insert(conn, r); err != nil {
		return r, false, &Result{Action: Aborted, Reason: ReasonTableFull}
	}

	return r, true, nil
}
