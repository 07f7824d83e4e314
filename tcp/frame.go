package tcp

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/moraru210/rematcher/seqtrack"
	"github.com/moraru210/rematcher/wire"
)

var (
	errShort           = errors.New("tcp: short buffer")
	errBadOffset       = errors.New("tcp: bad data offset")
	errZeroSource      = errors.New("tcp: zero source port")
	errZeroDestination = errors.New("tcp: zero destination port")
)

// NewFrame returns a Frame viewing buf. buf must be at least 20 bytes; call
// ValidateSize before trusting HeaderLength/Payload against the buffer.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeaderTCP {
		return Frame{}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame is a zero-copy view over a TCP segment header and payload. TCP
// options are skipped over via HeaderLength but never parsed or rewritten
// (spec Non-goals). See RFC 9293.
type Frame struct {
	buf []byte
}

// RawData returns the buffer the Frame was constructed with.
func (tfrm Frame) RawData() []byte { return tfrm.buf }

// SourcePort identifies the sending port.
func (tfrm Frame) SourcePort() uint16 { return binary.BigEndian.Uint16(tfrm.buf[0:2]) }

// SetSourcePort sets SourcePort. See Frame.SourcePort.
func (tfrm Frame) SetSourcePort(p uint16) { binary.BigEndian.PutUint16(tfrm.buf[0:2], p) }

// DestinationPort identifies the receiving port.
func (tfrm Frame) DestinationPort() uint16 { return binary.BigEndian.Uint16(tfrm.buf[2:4]) }

// SetDestinationPort sets DestinationPort. See Frame.DestinationPort.
func (tfrm Frame) SetDestinationPort(p uint16) { binary.BigEndian.PutUint16(tfrm.buf[2:4], p) }

// Seq returns the sequence number of the first data octet of this segment
// (or, if SYN is set, the initial sequence number).
func (tfrm Frame) Seq() seqtrack.Value {
	return seqtrack.Value(binary.BigEndian.Uint32(tfrm.buf[4:8]))
}

// SetSeq sets Seq. See Frame.Seq.
func (tfrm Frame) SetSeq(v seqtrack.Value) { binary.BigEndian.PutUint32(tfrm.buf[4:8], uint32(v)) }

// Ack is the next sequence number the sender of this segment expects to
// receive, valid only when ACK is set.
func (tfrm Frame) Ack() seqtrack.Value {
	return seqtrack.Value(binary.BigEndian.Uint32(tfrm.buf[8:12]))
}

// SetAck sets Ack. See Frame.Ack.
func (tfrm Frame) SetAck(v seqtrack.Value) { binary.BigEndian.PutUint32(tfrm.buf[8:12], uint32(v)) }

// OffsetAndFlags returns the data offset (in 32-bit words) and control flags.
func (tfrm Frame) OffsetAndFlags() (offset uint8, flags Flags) {
	v := binary.BigEndian.Uint16(tfrm.buf[12:14])
	return uint8(v >> 12), Flags(v).Mask()
}

// SetOffsetAndFlags sets the data offset and control flags.
func (tfrm Frame) SetOffsetAndFlags(offset uint8, flags Flags) {
	v := uint16(offset)<<12 | uint16(flags.Mask())
	binary.BigEndian.PutUint16(tfrm.buf[12:14], v)
}

// Flags returns the control flags alone.
func (tfrm Frame) Flags() Flags {
	_, flags := tfrm.OffsetAndFlags()
	return flags
}

// HeaderLength uses the data offset field to compute the header length in
// bytes, options included. Performs no validation.
func (tfrm Frame) HeaderLength() int {
	offset, _ := tfrm.OffsetAndFlags()
	return 4 * int(offset)
}

// WindowSize returns the advertised receive window.
func (tfrm Frame) WindowSize() uint16 { return binary.BigEndian.Uint16(tfrm.buf[14:16]) }

// SetWindowSize sets WindowSize. See Frame.WindowSize.
func (tfrm Frame) SetWindowSize(v uint16) { binary.BigEndian.PutUint16(tfrm.buf[14:16], v) }

// CRC returns the checksum field.
func (tfrm Frame) CRC() uint16 { return binary.BigEndian.Uint16(tfrm.buf[16:18]) }

// SetCRC sets CRC. See Frame.CRC.
func (tfrm Frame) SetCRC(crc uint16) { binary.BigEndian.PutUint16(tfrm.buf[16:18], crc) }

// Payload returns the segment data following the header (options included
// in the header, never in the payload). Call ValidateSize first.
func (tfrm Frame) Payload() []byte { return tfrm.buf[tfrm.HeaderLength():] }

// ValidateSize checks the data offset field against the actual buffer and
// records any inconsistency on v.
func (tfrm Frame) ValidateSize(v *wire.Validator) {
	off := tfrm.HeaderLength()
	if off < sizeHeaderTCP {
		v.AddBitPosErr(12*8, 4, errBadOffset)
	} else if off > len(tfrm.buf) {
		v.AddBitPosErr(12*8, 4, errShort)
	}
}

// ValidateExceptCRC checks size and port fields but does not verify the
// checksum (the engine recomputes it unconditionally on rewrite rather than
// validating the inbound one; see spec §7).
func (tfrm Frame) ValidateExceptCRC(v *wire.Validator) {
	tfrm.ValidateSize(v)
	if tfrm.DestinationPort() == 0 {
		v.AddBitPosErr(2*8, 16, errZeroDestination)
	}
	if tfrm.SourcePort() == 0 {
		v.AddBitPosErr(0, 16, errZeroSource)
	}
}

func (tfrm Frame) String() string {
	src, dst := tfrm.SourcePort(), tfrm.DestinationPort()
	return fmt.Sprintf("TCP :%d -> :%d SEQ=%d ACK=%d %s", src, dst, tfrm.Seq(), tfrm.Ack(), tfrm.Flags())
}
