package ipv4

import (
	"encoding/binary"
	"errors"

	"github.com/moraru210/rematcher/wire"
)

var (
	errBadTL  = errors.New("ipv4: bad total length")
	errShort  = errors.New("ipv4: short data")
	errBadIHL = errors.New("ipv4: bad IHL")
)

// NewFrame returns a Frame viewing buf. buf must be at least 20 bytes; call
// ValidateSize before trusting HeaderLength/Payload against the buffer.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame is a zero-copy view over an IPv4 header and payload. See RFC 791.
type Frame struct {
	buf []byte
}

// RawData returns the buffer the Frame was constructed with.
func (ifrm Frame) RawData() []byte { return ifrm.buf }

func (ifrm Frame) ihl() uint8 { return ifrm.buf[0] & 0xf }

// HeaderLength returns the IHL-derived header length in bytes, options
// included.
func (ifrm Frame) HeaderLength() int { return int(ifrm.ihl()) * 4 }

// TotalLength is the entire datagram size, header and payload.
func (ifrm Frame) TotalLength() uint16 { return binary.BigEndian.Uint16(ifrm.buf[2:4]) }

// SetTotalLength sets TotalLength. See Frame.TotalLength.
func (ifrm Frame) SetTotalLength(tl uint16) { binary.BigEndian.PutUint16(ifrm.buf[2:4], tl) }

// Flags returns the fragmentation flags and offset field.
func (ifrm Frame) Flags() Flags { return Flags(binary.BigEndian.Uint16(ifrm.buf[6:8])) }

// Protocol is the encapsulated transport protocol (TCP is 6).
func (ifrm Frame) Protocol() wire.IPProto { return wire.IPProto(ifrm.buf[9]) }

// SetProtocol sets Protocol. See Frame.Protocol.
func (ifrm Frame) SetProtocol(p wire.IPProto) { ifrm.buf[9] = uint8(p) }

// CRC returns the header checksum field.
func (ifrm Frame) CRC() uint16 { return binary.BigEndian.Uint16(ifrm.buf[10:12]) }

// SetCRC sets the header checksum field. See Frame.CRC.
func (ifrm Frame) SetCRC(crc uint16) { binary.BigEndian.PutUint16(ifrm.buf[10:12], crc) }

// CalculateHeaderCRC recomputes the header checksum over the current header
// bytes, skipping the checksum field itself (buf[10:12]).
func (ifrm Frame) CalculateHeaderCRC() uint16 {
	var crc wire.CRC791
	hl := ifrm.HeaderLength()
	crc.Write(ifrm.buf[0:10])
	crc.Write(ifrm.buf[12:hl])
	return crc.Sum16()
}

// CRCWriteTCPPseudo feeds the IPv4 pseudo-header used by the TCP checksum
// into crc: source/destination address, zero byte, protocol and TCP segment
// length (total length minus this header's length).
func (ifrm Frame) CRCWriteTCPPseudo(crc *wire.CRC791) {
	crc.Write(ifrm.SourceAddr()[:])
	crc.Write(ifrm.DestinationAddr()[:])
	crc.AddUint16(uint16(ifrm.Protocol()))
	crc.AddUint16(ifrm.TotalLength() - uint16(ifrm.HeaderLength()))
}

// SourceAddr returns a pointer to the source address bytes.
func (ifrm Frame) SourceAddr() *[4]byte { return (*[4]byte)(ifrm.buf[12:16]) }

// SetSourceAddr overwrites the source address in place.
func (ifrm Frame) SetSourceAddr(addr [4]byte) { copy(ifrm.buf[12:16], addr[:]) }

// DestinationAddr returns a pointer to the destination address bytes.
func (ifrm Frame) DestinationAddr() *[4]byte { return (*[4]byte)(ifrm.buf[16:20]) }

// SetDestinationAddr overwrites the destination address in place.
func (ifrm Frame) SetDestinationAddr(addr [4]byte) { copy(ifrm.buf[16:20], addr[:]) }

// Payload returns the segment carried after the header, bounded by
// TotalLength. Call ValidateSize first to guarantee this does not panic.
func (ifrm Frame) Payload() []byte {
	off := ifrm.HeaderLength()
	return ifrm.buf[off:ifrm.TotalLength()]
}

// ValidateSize checks TotalLength and IHL against the actual buffer and
// records any inconsistency on v. Options are skipped over, never parsed.
func (ifrm Frame) ValidateSize(v *wire.Validator) {
	tl := ifrm.TotalLength()
	if tl < sizeHeader {
		v.AddError(errBadTL)
	}
	if int(tl) > len(ifrm.buf) {
		v.AddError(errShort)
	}
	hl := ifrm.HeaderLength()
	if hl < sizeHeader {
		v.AddError(errBadIHL)
	}
	if hl > int(tl) || hl > len(ifrm.buf) {
		v.AddError(errBadIHL)
	}
}
