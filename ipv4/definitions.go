// Package ipv4 decodes and rewrites the fields of an IPv4 header that the
// load balancer core needs: addresses, protocol, total length and the
// header checksum. Options and fragmentation are read far enough to be
// skipped over; neither is interpreted or rewritten (see spec Non-goals).
package ipv4

const sizeHeader = 20

// Flags holds the fragmentation control bits of the IPv4 header.
type Flags uint16

// DontFragment specifies whether the datagram may not be fragmented.
func (f Flags) DontFragment() bool { return f&0x4000 != 0 }

// MoreFragments is set on every fragment but the last.
func (f Flags) MoreFragments() bool { return f&0x2000 != 0 }

// FragmentOffset is the offset of this fragment in 8-byte units.
func (f Flags) FragmentOffset() uint16 { return uint16(f) & 0x1fff }

// IsFragment reports whether this datagram is a fragment of a larger one,
// i.e. carries a nonzero FragmentOffset or has MoreFragments set. The engine
// does not consult it: fragments are decoded and routed like any other
// datagram (spec Non-goals: fragmentation).
func (f Flags) IsFragment() bool { return f.FragmentOffset() != 0 || f.MoreFragments() }
