// Package tcp decodes and rewrites the fixed fields of a TCP segment header:
// ports, sequence/acknowledgment numbers and control flags. It has no notion
// of a connection or a state machine; sequencing and connection state live in
// seqtrack, conntrack and clientstate, which operate on the fields this
// package exposes.
package tcp

import "math/bits"

const sizeHeaderTCP = 20

// Flags is a TCP flags bit-mask, i.e. SYN, FIN, ACK.
type Flags uint16

const (
	FlagFIN Flags = 1 << iota // No more data from sender.
	FlagSYN                   // Synchronize sequence numbers.
	FlagRST                   // Reset the connection.
	FlagPSH                   // Push function.
	FlagACK                   // Acknowledgment field significant.
	FlagURG                   // Urgent pointer field significant.
	FlagECE                   // ECN-Echo.
	FlagCWR                   // Congestion Window Reduced.
	FlagNS                    // Nonce Sum (RFC 3540).
)

const flagMask = 0x01ff

// HasAll checks if mask bits are all set in the receiver flags.
func (flags Flags) HasAll(mask Flags) bool { return flags&mask == mask }

// HasAny checks if one or more mask bits are set in the receiver flags.
func (flags Flags) HasAny(mask Flags) bool { return flags&mask != 0 }

// Mask returns the flags with non-flag bits unset.
func (flags Flags) Mask() Flags { return flags & flagMask }

// String returns a human readable flag string, e.g. "[SYN,ACK]".
func (flags Flags) String() string {
	switch flags {
	case 0:
		return "[]"
	case FlagSYN | FlagACK:
		return "[SYN,ACK]"
	case FlagFIN | FlagACK:
		return "[FIN,ACK]"
	case FlagPSH | FlagACK:
		return "[PSH,ACK]"
	case FlagACK:
		return "[ACK]"
	case FlagSYN:
		return "[SYN]"
	case FlagFIN:
		return "[FIN]"
	case FlagRST:
		return "[RST]"
	}
	buf := make([]byte, 0, 2+3*bits.OnesCount16(uint16(flags)))
	buf = append(buf, '[')
	buf = flags.AppendFormat(buf)
	buf = append(buf, ']')
	return string(buf)
}

// AppendFormat appends a human readable flag string to b.
func (flags Flags) AppendFormat(b []byte) []byte {
	if flags == 0 {
		return b
	}
	const flaglen = 3
	const strflags = "FINSYNRSTPSHACKURGECECWRNS "
	var addcommas bool
	for flags != 0 {
		i := bits.TrailingZeros16(uint16(flags))
		if addcommas {
			b = append(b, ',')
		} else {
			addcommas = true
		}
		b = append(b, strflags[i*flaglen:i*flaglen+flaglen]...)
		flags &= ^(1 << i)
	}
	return b
}
