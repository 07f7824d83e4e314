// Package rewrite applies a conntrack.Reroute to a decoded frame: MAC/IP/
// port overwrite, sequence/ack offset subtraction, and IPv4/TCP checksum
// recomputation. Nothing here mutates any table; callers pass in the
// decoded views and the Reroute to apply.
package rewrite

import (
	"github.com/moraru210/rematcher/ipv4"
	"github.com/moraru210/rematcher/tcp"
	"github.com/moraru210/rematcher/wire"
)

// IPv4HeaderChecksum recomputes and writes back ip's header checksum.
func IPv4HeaderChecksum(ip ipv4.Frame) {
	ip.SetCRC(0)
	ip.SetCRC(ip.CalculateHeaderCRC())
}

// TCPChecksum recomputes and writes back tcp's checksum over the pseudo-
// header plus the segment bytes actually present (header through the end of
// TotalLength), never a fixed iteration cap: the source bug this
// specification fixes (§9) used a static 1480-byte budget regardless of the
// segment's real length.
func TCPChecksum(ip ipv4.Frame, seg tcp.Frame) {
	seg.SetCRC(0)
	var crc wire.CRC791
	ip.CRCWriteTCPPseudo(&crc)
	segLen := int(ip.TotalLength()) - ip.HeaderLength()
	seg.SetCRC(crc.PayloadSum16(seg.RawData(), segLen))
}
