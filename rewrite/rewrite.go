package rewrite

import (
	"github.com/moraru210/rematcher/conntrack"
	"github.com/moraru210/rematcher/ethernet"
	"github.com/moraru210/rematcher/ipv4"
	"github.com/moraru210/rematcher/seqtrack"
	"github.com/moraru210/rematcher/tcp"
)

// Apply rewrites eth/ip/seg in place per r: subtracts r.SeqOffset/AckOffset
// from the TCP seq/ack, overwrites ports/addresses/MACs with r.OriginalConn/
// r.OriginalEth, and recomputes both checksums (spec §4.3 "Rewrite",
// §4.5).
func Apply(r conntrack.Reroute, eth ethernet.Frame, ip ipv4.Frame, seg tcp.Frame) {
	seg.SetSeq(seg.Seq().Sub(seqtrack.Offset(r.SeqOffset)))
	seg.SetAck(seg.Ack().Sub(seqtrack.Offset(r.AckOffset)))

	seg.SetSourcePort(r.OriginalConn.Src.Port)
	seg.SetDestinationPort(r.OriginalConn.Dst.Port)

	ip.SetSourceAddr(r.OriginalConn.Src.Addr)
	ip.SetDestinationAddr(r.OriginalConn.Dst.Addr)

	eth.SetHardwareAddrs(r.OriginalEth.Src, r.OriginalEth.Dst)

	IPv4HeaderChecksum(ip)
	TCPChecksum(ip, seg)
}
