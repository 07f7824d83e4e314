// Package wire holds the low-level shared types used by the ethernet, ipv4
// and tcp frame decoders: protocol enums, the checksum accumulator and the
// decode-error Validator. None of it is specific to the load balancer core;
// it is the common vocabulary every frame package speaks.
package wire

// EtherType identifies the payload protocol carried by an Ethernet frame.
type EtherType uint16

// EtherType values this repository dispatches on. See IEEE 802.3 and the
// IANA Ethernet numbers registry for the full set; only IPv4 and the two
// VLAN tag protocol identifiers are meaningful to a pass-through-everything-
// else load balancer.
const (
	EtherTypeIPv4        EtherType = 0x0800
	EtherTypeARP         EtherType = 0x0806
	EtherTypeIPv6        EtherType = 0x86DD
	EtherTypeVLAN        EtherType = 0x8100 // 802.1Q
	EtherTypeServiceVLAN EtherType = 0x88A8 // 802.1ad (QinQ outer tag)
)

// IsSize reports whether the EtherType field should instead be interpreted
// as an 802.3 payload length (values <= 1500 are lengths, not types).
func (et EtherType) IsSize() bool { return et <= 1500 }

// IPProto is an IPv4 protocol number (IANA "Assigned Internet Protocol
// Numbers"). Only the values this repository inspects are named; all others
// pass through the decoder untouched.
type IPProto uint8

const (
	IPProtoICMP IPProto = 1
	IPProtoTCP  IPProto = 6
	IPProtoUDP  IPProto = 17
)

func (p IPProto) String() string {
	switch p {
	case IPProtoICMP:
		return "ICMP"
	case IPProtoTCP:
		return "TCP"
	case IPProtoUDP:
		return "UDP"
	default:
		return "IPProto(?)"
	}
}
