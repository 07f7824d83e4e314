package engine

import (
	"github.com/moraru210/rematcher/conntrack"
	"github.com/moraru210/rematcher/ipv4"
	"github.com/moraru210/rematcher/rewrite"
	"github.com/moraru210/rematcher/tcp"
)

// handleRST implements the spec §4.3 "RST from client" branch: restore the
// segment's seq/ack to the values the client originally saw, recompute
// checksums, tear down every table entry for this connection, and pass the
// rewritten RST onward. A RST before any numbers were seeded passes through
// unmodified, per spec §8 boundaries — it is not an error.
func (e *Engine) handleRST(r conntrack.Reroute, conn conntrack.Conn, ifrm ipv4.Frame, tfrm tcp.Frame) Result {
	seq, ack, ok := e.numbers.RestoreInitialForRST(conn)
	if !ok {
		return Result{Action: Pass}
	}

	tfrm.SetSeq(seq)
	tfrm.SetAck(ack)
	rewrite.IPv4HeaderChecksum(ifrm)
	rewrite.TCPChecksum(ifrm, tfrm)

	server := r.OriginalConn.ServerKey()
	if valid, err := e.avail.IsValid(server, r.OriginalIndex); err != nil {
		return Result{Action: Aborted, Reason: ReasonSlotOutOfRange}
	} else if valid {
		if err := e.avail.Invalidate(server, r.OriginalIndex); err != nil {
			return Result{Action: Aborted, Reason: ReasonSlotOutOfRange}
		}
	}

	e.numbers.Delete(conn)
	e.routes.Delete(conn)
	e.routes.Delete(r.OriginalConn.Reverse())

	return Result{Action: Pass}
}
