package ethernet

import (
	"encoding/binary"
	"errors"

	"github.com/moraru210/rematcher/wire"
)

var (
	errShort     = errors.New("ethernet: buffer shorter than fixed header")
	errShortVLAN = errors.New("ethernet: buffer too short for VLAN tag")
	errVLANDepth = errors.New("ethernet: VLAN stack exceeds configured depth")
)

// NewFrame returns a Frame viewing buf. buf must be at least 14 bytes; call
// Parse afterwards to walk any VLAN tags and validate the full header is
// in-bounds before reading ports/payload.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeaderNoVLAN {
		return Frame{}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame is a zero-copy view over an Ethernet II frame buffer (no preamble,
// no trailing FCS): byte 0 is the first octet of the destination address.
type Frame struct {
	buf []byte
}

// RawData returns the buffer the Frame was constructed with.
func (efrm Frame) RawData() []byte { return efrm.buf }

// DestinationHardwareAddr returns the destination MAC address.
func (efrm Frame) DestinationHardwareAddr() *[6]byte { return (*[6]byte)(efrm.buf[0:6]) }

// SourceHardwareAddr returns the source MAC address.
func (efrm Frame) SourceHardwareAddr() *[6]byte { return (*[6]byte)(efrm.buf[6:12]) }

// SetHardwareAddrs overwrites both MAC addresses in place.
func (efrm Frame) SetHardwareAddrs(src, dst [6]byte) {
	copy(efrm.buf[0:6], dst[:])
	copy(efrm.buf[6:12], src[:])
}

// EtherTypeOrSize returns the raw 12:14 field, which may be an EtherType, an
// 802.3 payload length, or a VLAN TPID (0x8100/0x88A8).
func (efrm Frame) EtherTypeOrSize() wire.EtherType {
	return wire.EtherType(binary.BigEndian.Uint16(efrm.buf[12:14]))
}

// SetEtherType sets the 12:14 field.
func (efrm Frame) SetEtherType(et wire.EtherType) {
	binary.BigEndian.PutUint16(efrm.buf[12:14], uint16(et))
}

// vlanTagAt returns the VLAN tag and the EtherType/TPID following it, both
// read at the given byte offset (which must point at a TPID field already
// confirmed to be a VLAN type).
func (efrm Frame) vlanTagAt(off int) (tag VLANTag, next wire.EtherType) {
	tag = VLANTag(binary.BigEndian.Uint16(efrm.buf[off+2 : off+4]))
	next = wire.EtherType(binary.BigEndian.Uint16(efrm.buf[off+4 : off+6]))
	return tag, next
}

// Parse walks the Ethernet header, following up to maxDepth stacked VLAN
// tags (maxDepth is clamped to MaxVLANDepth), and returns the innermost
// EtherType plus the total header length in bytes. It records an error on v
// and returns (0, 0) if the buffer is too short at any step, or if more than
// maxDepth VLAN tags are stacked (spec: one beyond the configured depth is
// passed through as an error, not silently truncated).
func (efrm Frame) Parse(v *wire.Validator, maxDepth int) (innerType wire.EtherType, headerLen int) {
	if maxDepth > MaxVLANDepth {
		maxDepth = MaxVLANDepth
	}
	et := efrm.EtherTypeOrSize()
	off := sizeHeaderNoVLAN
	depth := 0
	for isVLANType(et) {
		if depth >= maxDepth {
			v.AddError(errVLANDepth)
			return 0, 0
		}
		if off+vlanTagSize > len(efrm.buf) {
			v.AddError(errShortVLAN)
			return 0, 0
		}
		_, et = efrm.vlanTagAt(off - 2)
		off += vlanTagSize
		depth++
	}
	if et.IsSize() && len(efrm.buf)-off < int(et) {
		v.AddError(errShort)
		return 0, 0
	}
	return et, off
}

// Payload returns the frame payload starting at headerLen, as computed by a
// prior call to Parse.
func (efrm Frame) Payload(headerLen int) []byte { return efrm.buf[headerLen:] }
