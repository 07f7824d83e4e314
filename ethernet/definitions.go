// Package ethernet decodes the Ethernet II header of a frame, including up
// to a bounded number of stacked 802.1Q/802.1ad VLAN tags, exposing header
// field accessors over the raw buffer without copying.
package ethernet

import "github.com/moraru210/rematcher/wire"

const sizeHeaderNoVLAN = 14
const vlanTagSize = 4

// MaxVLANDepth is the hard upper bound on stacked VLAN tags this decoder
// will ever walk through, independent of any caller-supplied depth limit. It
// guarantees termination even if a caller misconfigures a larger depth; see
// Frame.Parse.
const MaxVLANDepth = 4

// VLANTag holds the priority (PCP), drop-eligible indicator (DEI) and VLAN
// identifier bits of an 802.1Q tag.
type VLANTag uint16

func (vt VLANTag) DropEligibleIndicator() bool { return vt&(1<<12) != 0 }
func (vt VLANTag) PriorityCodePoint() uint8    { return uint8(vt >> 13) }
func (vt VLANTag) VLANIdentifier() uint16      { return uint16(vt) & 0x0fff }

func isVLANType(et wire.EtherType) bool {
	return et == wire.EtherTypeVLAN || et == wire.EtherTypeServiceVLAN
}
