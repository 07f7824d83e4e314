package ethernet

import (
	"testing"

	"github.com/moraru210/rematcher/wire"
)

func buildFrame(extra ...[]byte) []byte {
	buf := make([]byte, sizeHeaderNoVLAN)
	copy(buf[0:6], []byte{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}) // dst
	copy(buf[6:12], []byte{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb}) // src
	for _, e := range extra {
		buf = append(buf, e...)
	}
	return buf
}

func TestNewFrameErrShort(t *testing.T) {
	if _, err := NewFrame(make([]byte, 13)); err == nil {
		t.Fatal("expected error for a buffer shorter than the fixed header")
	}
}

func TestParseNoVLAN(t *testing.T) {
	buf := buildFrame()
	buf[12], buf[13] = 0x08, 0x00 // EtherTypeIPv4
	buf = append(buf, make([]byte, 10)...)

	f, err := NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	var v wire.Validator
	et, headerLen := f.Parse(&v, 4)
	if v.HasError() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	if et != wire.EtherTypeIPv4 {
		t.Fatalf("EtherType = %#x, want IPv4", et)
	}
	if headerLen != sizeHeaderNoVLAN {
		t.Fatalf("headerLen = %d, want %d", headerLen, sizeHeaderNoVLAN)
	}
	if len(f.Payload(headerLen)) != 10 {
		t.Fatalf("payload len = %d, want 10", len(f.Payload(headerLen)))
	}
}

func TestParseSingleVLAN(t *testing.T) {
	buf := buildFrame()
	buf[12], buf[13] = 0x81, 0x00 // TPID 802.1Q
	buf = append(buf, 0x00, 0x0a) // VLAN tag (id=10)
	buf = append(buf, 0x08, 0x00) // inner EtherType IPv4
	buf = append(buf, make([]byte, 4)...)

	f, err := NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	var v wire.Validator
	et, headerLen := f.Parse(&v, 4)
	if v.HasError() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	if et != wire.EtherTypeIPv4 {
		t.Fatalf("EtherType = %#x, want IPv4", et)
	}
	if headerLen != sizeHeaderNoVLAN+vlanTagSize {
		t.Fatalf("headerLen = %d, want %d", headerLen, sizeHeaderNoVLAN+vlanTagSize)
	}
}

func TestParseVLANDepthExceeded(t *testing.T) {
	buf := buildFrame()
	buf[12], buf[13] = 0x81, 0x00
	// Stack 5 VLAN tags, each pointing to another VLAN TPID, one more than
	// MaxVLANDepth allows.
	for i := 0; i < 5; i++ {
		buf = append(buf, 0x00, 0x01, 0x81, 0x00)
	}
	buf = append(buf, 0x08, 0x00)

	f, err := NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	var v wire.Validator
	_, _ = f.Parse(&v, MaxVLANDepth)
	if !v.HasError() {
		t.Fatal("expected an error when the VLAN stack exceeds the configured depth")
	}
}

func TestParseShortBuffer(t *testing.T) {
	buf := buildFrame([]byte{0, 10}) // 2 payload bytes after the header
	buf[12], buf[13] = 0x00, 0x0a    // EtherTypeOrSize as length: claims 10 bytes
	// only 2 of the 10 declared payload bytes are present -- buffer is short

	f, err := NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	var v wire.Validator
	_, _ = f.Parse(&v, 4)
	if !v.HasError() {
		t.Fatal("expected error for a payload shorter than the declared 802.3 length")
	}
}

func TestSetHardwareAddrs(t *testing.T) {
	buf := buildFrame([]byte{0x08, 0x00})
	f, err := NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	src := [6]byte{1, 2, 3, 4, 5, 6}
	dst := [6]byte{6, 5, 4, 3, 2, 1}
	f.SetHardwareAddrs(src, dst)
	if *f.DestinationHardwareAddr() != dst {
		t.Fatal("dst not set")
	}
	if *f.SourceHardwareAddr() != src {
		t.Fatal("src not set")
	}
}
