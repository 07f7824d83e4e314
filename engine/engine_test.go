package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/moraru210/rematcher/conntrack"
	"github.com/moraru210/rematcher/ethernet"
	"github.com/moraru210/rematcher/ipv4"
	"github.com/moraru210/rematcher/seqtrack"
	"github.com/moraru210/rematcher/tcp"
	"github.com/moraru210/rematcher/wire"
)

func testEngine() *Engine {
	cfg := Config{
		ListenerPort: 8080,
		MaxClients:   8,
		MaxServers:   8,
		MaxPerServer: 3,
		VLANMaxDepth: ethernet.MaxVLANDepth,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, log, nil)
}

type segParams struct {
	srcMAC, dstMAC   [6]byte
	srcAddr, dstAddr [4]byte
	srcPort, dstPort uint16
	seq, ack         seqtrack.Value
	flags            tcp.Flags
	payload          []byte
}

func buildFrame(t *testing.T, p segParams) []byte {
	t.Helper()
	const ipHeaderLen = 20
	const tcpHeaderLen = 20
	buf := make([]byte, 14+ipHeaderLen+tcpHeaderLen+len(p.payload))

	eth, err := ethernet.NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	eth.SetHardwareAddrs(p.srcMAC, p.dstMAC)
	eth.SetEtherType(wire.EtherTypeIPv4)

	ip, err := ipv4.NewFrame(buf[14:])
	if err != nil {
		t.Fatal(err)
	}
	ip.RawData()[0] = 0x45
	ip.SetTotalLength(uint16(ipHeaderLen + tcpHeaderLen + len(p.payload)))
	ip.SetProtocol(wire.IPProtoTCP)
	ip.SetSourceAddr(p.srcAddr)
	ip.SetDestinationAddr(p.dstAddr)

	seg, err := tcp.NewFrame(buf[14+ipHeaderLen:])
	if err != nil {
		t.Fatal(err)
	}
	seg.SetSourcePort(p.srcPort)
	seg.SetDestinationPort(p.dstPort)
	seg.SetSeq(p.seq)
	seg.SetAck(p.ack)
	seg.SetOffsetAndFlags(5, p.flags)
	copy(buf[14+ipHeaderLen+tcpHeaderLen:], p.payload)

	ip.SetCRC(0)
	ip.SetCRC(ip.CalculateHeaderCRC())
	seg.SetCRC(0)
	var crc wire.CRC791
	ip.CRCWriteTCPPseudo(&crc)
	segLen := int(ip.TotalLength()) - ip.HeaderLength()
	seg.SetCRC(crc.PayloadSum16(seg.RawData(), segLen))

	return buf
}

func TestHandleMissSynAckSeedsObservedNumbers(t *testing.T) {
	e := testEngine()
	buf := buildFrame(t, segParams{
		srcMAC: [6]byte{1}, dstMAC: [6]byte{2},
		srcAddr: [4]byte{10, 0, 0, 9}, dstAddr: [4]byte{10, 0, 0, 1},
		srcPort: 80, dstPort: 5000,
		seq: 1000, ack: 501,
		flags: tcp.FlagSYN | tcp.FlagACK,
	})
	res := e.ProcessFrame(buf)
	if res.Action != Pass {
		t.Fatalf("Action = %v, want Pass", res.Action)
	}
	// handleMiss seeds the entry under the SYN+ACK's own observed key
	// (server -> client), not its reverse.
	observed := conntrack.Conn{
		Src: conntrack.Endpoint{Addr: [4]byte{10, 0, 0, 9}, Port: 80},
		Dst: conntrack.Endpoint{Addr: [4]byte{10, 0, 0, 1}, Port: 5000},
	}
	n, ok := e.numbers.Read(observed)
	if !ok {
		t.Fatal("expected numbers seeded on the observed key")
	}
	if n.SeqNo != 501 || n.AckNo != 1001 {
		t.Fatalf("unexpected seeded numbers: %+v", n)
	}
}

func TestHandleMissClientAckSeedsForwardNumbers(t *testing.T) {
	e := testEngine()
	conn := conntrack.Conn{
		Src: conntrack.Endpoint{Addr: [4]byte{10, 0, 0, 1}, Port: 5000},
		Dst: conntrack.Endpoint{Addr: [4]byte{10, 0, 0, 9}, Port: 8080},
	}
	buf := buildFrame(t, segParams{
		srcMAC: [6]byte{1}, dstMAC: [6]byte{2},
		srcAddr: conn.Src.Addr, dstAddr: conn.Dst.Addr,
		srcPort: conn.Src.Port, dstPort: conn.Dst.Port,
		seq: 100, ack: 200,
		flags: tcp.FlagACK,
	})
	res := e.ProcessFrame(buf)
	if res.Action != Pass {
		t.Fatalf("Action = %v, want Pass", res.Action)
	}
	n, ok := e.numbers.Read(conn)
	if !ok {
		t.Fatal("expected numbers seeded on the forward key")
	}
	if n.SeqNo != 100 || n.AckNo != 200 {
		t.Fatalf("unexpected seeded numbers: %+v", n)
	}
}

func TestHandleMissUnroutedClientDataAborts(t *testing.T) {
	e := testEngine()
	buf := buildFrame(t, segParams{
		srcMAC: [6]byte{1}, dstMAC: [6]byte{2},
		srcAddr: [4]byte{10, 0, 0, 1}, dstAddr: [4]byte{10, 0, 0, 9},
		srcPort: 5000, dstPort: 8080,
		seq: 100, ack: 200,
		flags:   tcp.FlagACK | tcp.FlagPSH,
		payload: []byte("GET / HTTP/1.1"),
	})
	res := e.ProcessFrame(buf)
	if res.Action != Aborted || res.Reason != ReasonUnroutedData {
		t.Fatalf("got %v/%v, want Aborted/ReasonUnroutedData", res.Action, res.Reason)
	}
}

func TestHandleHitRewritesAndRetransmits(t *testing.T) {
	e := testEngine()
	clientSide := conntrack.Conn{
		Src: conntrack.Endpoint{Addr: [4]byte{192, 168, 1, 1}, Port: 9000},
		Dst: conntrack.Endpoint{Addr: [4]byte{192, 168, 1, 2}, Port: 8080},
	}
	r := conntrack.Reroute{
		OriginalConn: conntrack.Conn{
			Src: conntrack.Endpoint{Addr: [4]byte{10, 0, 0, 1}, Port: 40000},
			Dst: conntrack.Endpoint{Addr: [4]byte{10, 0, 0, 2}, Port: 80},
		},
		OriginalEth: conntrack.EthConn{Src: [6]byte{3}, Dst: [6]byte{4}},
		SeqOffset:   10,
		AckOffset:   -5,
	}
	if err := e.routes.Insert(clientSide, r); err != nil {
		t.Fatal(err)
	}

	buf := buildFrame(t, segParams{
		srcMAC: [6]byte{1}, dstMAC: [6]byte{2},
		srcAddr: clientSide.Src.Addr, dstAddr: clientSide.Dst.Addr,
		srcPort: clientSide.Src.Port, dstPort: clientSide.Dst.Port,
		seq: 1000, ack: 2000,
		flags: tcp.FlagACK,
	})
	res := e.ProcessFrame(buf)
	if res.Action != TX {
		t.Fatalf("Action = %v, want TX (reason=%v)", res.Action, res.Reason)
	}

	ip, err := ipv4.NewFrame(buf[14:])
	if err != nil {
		t.Fatal(err)
	}
	if *ip.SourceAddr() != r.OriginalConn.Src.Addr || *ip.DestinationAddr() != r.OriginalConn.Dst.Addr {
		t.Fatal("addresses not rewritten to OriginalConn")
	}
	seg, err := tcp.NewFrame(buf[14+ip.HeaderLength():])
	if err != nil {
		t.Fatal(err)
	}
	if seg.SourcePort() != r.OriginalConn.Src.Port || seg.DestinationPort() != r.OriginalConn.Dst.Port {
		t.Fatal("ports not rewritten to OriginalConn")
	}
	wantSeq := seqtrack.Value(1000).Sub(seqtrack.Offset(r.SeqOffset))
	if seg.Seq() != wantSeq {
		t.Fatalf("Seq = %d, want %d", seg.Seq(), wantSeq)
	}
}

func TestHandleHitClientRSTRestoresInitialNumbers(t *testing.T) {
	e := testEngine()
	clientSide := conntrack.Conn{
		Src: conntrack.Endpoint{Addr: [4]byte{192, 168, 1, 1}, Port: 9000},
		Dst: conntrack.Endpoint{Addr: [4]byte{192, 168, 1, 2}, Port: 8080},
	}
	r := conntrack.Reroute{
		OriginalConn: conntrack.Conn{
			Src: conntrack.Endpoint{Addr: [4]byte{10, 0, 0, 1}, Port: 40000},
			Dst: conntrack.Endpoint{Addr: [4]byte{10, 0, 0, 2}, Port: 80},
		},
		OriginalEth:   conntrack.EthConn{Src: [6]byte{3}, Dst: [6]byte{4}},
		OriginalIndex: 0,
	}
	if err := e.routes.Insert(clientSide, r); err != nil {
		t.Fatal(err)
	}
	if err := e.numbers.SeedFromClientAck(clientSide, 1000, 2000, conntrack.EthConn{}); err != nil {
		t.Fatal(err)
	}
	if err := e.avail.Stamp(r.OriginalConn.ServerKey(), 0, clientSide); err != nil {
		t.Fatal(err)
	}

	buf := buildFrame(t, segParams{
		srcMAC: [6]byte{1}, dstMAC: [6]byte{2},
		srcAddr: clientSide.Src.Addr, dstAddr: clientSide.Dst.Addr,
		srcPort: clientSide.Src.Port, dstPort: clientSide.Dst.Port,
		seq: 9999, ack: 8888,
		flags: tcp.FlagRST,
	})
	res := e.ProcessFrame(buf)
	if res.Action != Pass {
		t.Fatalf("Action = %v, want Pass (reason=%v)", res.Action, res.Reason)
	}

	seg, err := tcp.NewFrame(buf[14+20:])
	if err != nil {
		t.Fatal(err)
	}
	if seg.Seq() != 1000 || seg.Ack() != 2000 {
		t.Fatalf("RST seq/ack = %d/%d, want the connection's initial 1000/2000", seg.Seq(), seg.Ack())
	}

	if _, ok := e.routes.Lookup(clientSide); ok {
		t.Fatal("expected client-facing route to be torn down")
	}
	if _, ok := e.routes.Lookup(r.OriginalConn.Reverse()); ok {
		t.Fatal("expected server-facing route to be torn down")
	}
	if _, ok := e.numbers.Read(clientSide); ok {
		t.Fatal("expected numbers entry to be torn down")
	}
	valid, err := e.avail.IsValid(r.OriginalConn.ServerKey(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if valid {
		t.Fatal("expected backend slot to be freed")
	}
}

func TestHandleHitRSTBeforeNumbersSeededPassesUnmodified(t *testing.T) {
	e := testEngine()
	clientSide := conntrack.Conn{
		Src: conntrack.Endpoint{Addr: [4]byte{192, 168, 1, 1}, Port: 9000},
		Dst: conntrack.Endpoint{Addr: [4]byte{192, 168, 1, 2}, Port: 8080},
	}
	r := conntrack.Reroute{
		OriginalConn: conntrack.Conn{
			Src: conntrack.Endpoint{Addr: [4]byte{10, 0, 0, 1}, Port: 40000},
			Dst: conntrack.Endpoint{Addr: [4]byte{10, 0, 0, 2}, Port: 80},
		},
	}
	if err := e.routes.Insert(clientSide, r); err != nil {
		t.Fatal(err)
	}

	buf := buildFrame(t, segParams{
		srcMAC: [6]byte{1}, dstMAC: [6]byte{2},
		srcAddr: clientSide.Src.Addr, dstAddr: clientSide.Dst.Addr,
		srcPort: clientSide.Src.Port, dstPort: clientSide.Dst.Port,
		seq: 1, ack: 2,
		flags: tcp.FlagRST,
	})
	res := e.ProcessFrame(buf)
	if res.Action != Pass {
		t.Fatalf("Action = %v, want Pass", res.Action)
	}
	if _, ok := e.routes.Lookup(clientSide); !ok {
		t.Fatal("a RST with no seeded numbers must not tear down the route")
	}
}

func TestProcessFrameNonIPv4Passes(t *testing.T) {
	e := testEngine()
	buf := make([]byte, 14)
	eth, err := ethernet.NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	eth.SetEtherType(wire.EtherTypeARP)
	res := e.ProcessFrame(buf)
	if res.Action != Pass {
		t.Fatalf("Action = %v, want Pass for non-IPv4 traffic", res.Action)
	}
}
