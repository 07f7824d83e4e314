// Package engine orchestrates the per-packet state machine: it decodes a
// frame, classifies the connection, looks up the route and dispatches to
// the table packages (conntrack, seqtrack, avail, clientstate) and to
// rewrite, in the order spec'd so a concurrent observer never sees a
// torn multi-table sequence (see conntrack/route.go and avail/avail.go for
// the per-table locking this relies on).
package engine

import (
	"log/slog"

	"github.com/moraru210/rematcher/avail"
	"github.com/moraru210/rematcher/clientstate"
	"github.com/moraru210/rematcher/conntrack"
	"github.com/moraru210/rematcher/ethernet"
	"github.com/moraru210/rematcher/ipv4"
	"github.com/moraru210/rematcher/rewrite"
	"github.com/moraru210/rematcher/seqtrack"
	"github.com/moraru210/rematcher/tcp"
	"github.com/moraru210/rematcher/wire"
)

// Recorder observes engine outcomes for metrics. Implementations must be
// nil-safe to call: Engine itself treats a nil Recorder as "no metrics".
type Recorder interface {
	ObserveAction(Action, AbortReason)
}

// Engine holds the four shared tables and processes frames one at a time.
// The zero value is not usable; construct with New.
type Engine struct {
	cfg Config
	log *slog.Logger
	rec Recorder

	routes  *conntrack.Table
	numbers *seqtrack.Table
	avail   *avail.Table
	state   *clientstate.Table
}

// New builds an Engine with freshly allocated tables sized per cfg.
func New(cfg Config, log *slog.Logger, rec Recorder) *Engine {
	return &Engine{
		cfg:     cfg,
		log:     log,
		rec:     rec,
		routes:  conntrack.NewTable(cfg.connMapCapacity()),
		numbers: seqtrack.NewTable(cfg.numbersMapCapacity()),
		avail:   avail.NewTable(cfg.MaxServers),
		state:   clientstate.NewTable(cfg.MaxClients),
	}
}

// Routes, Numbers, Availability and ClientState expose the underlying
// tables for the control plane (spec §6: the core's only other API
// surface besides ProcessFrame is the table contract an external
// collaborator writes through).
func (e *Engine) Routes() *conntrack.Table        { return e.routes }
func (e *Engine) Numbers() *seqtrack.Table        { return e.numbers }
func (e *Engine) Availability() *avail.Table      { return e.avail }
func (e *Engine) ClientState() *clientstate.Table { return e.state }

func (e *Engine) record(res Result) Result {
	if e.rec != nil {
		e.rec.ObserveAction(res.Action, res.Reason)
	}
	return res
}

// ProcessFrame decodes buf as an Ethernet/IPv4/TCP frame, classifies it and
// either mutates buf in place (TX, rewritten RST on Pass) or leaves it
// untouched (Pass, Aborted), returning the verdict. The one exception is a
// client RST whose slot index is out of range: its seq/ack and checksums are
// already rewritten when it comes back Aborted. Non-IPv4/TCP traffic,
// and anything failing bounds validation, always resolves to Pass.
func (e *Engine) ProcessFrame(buf []byte) Result {
	var v wire.Validator

	efrm, err := ethernet.NewFrame(buf)
	if err != nil {
		return e.record(Result{Action: Pass})
	}
	innerType, ethHdrLen := efrm.Parse(&v, e.cfg.VLANMaxDepth)
	if v.ErrPop() != nil {
		return e.record(Result{Action: Pass})
	}
	if innerType != wire.EtherTypeIPv4 {
		return e.record(Result{Action: Pass})
	}

	ifrm, err := ipv4.NewFrame(efrm.Payload(ethHdrLen))
	if err != nil {
		return e.record(Result{Action: Pass})
	}
	ifrm.ValidateSize(&v)
	if v.ErrPop() != nil {
		return e.record(Result{Action: Pass})
	}
	if ifrm.Protocol() != wire.IPProtoTCP {
		return e.record(Result{Action: Pass})
	}

	tfrm, err := tcp.NewFrame(ifrm.Payload())
	if err != nil {
		return e.record(Result{Action: Pass})
	}
	tfrm.ValidateSize(&v)
	if v.ErrPop() != nil {
		return e.record(Result{Action: Pass})
	}

	conn := conntrack.Conn{
		Src: conntrack.Endpoint{Addr: *ifrm.SourceAddr(), Port: tfrm.SourcePort()},
		Dst: conntrack.Endpoint{Addr: *ifrm.DestinationAddr(), Port: tfrm.DestinationPort()},
	}
	eth := conntrack.EthConn{Src: *efrm.SourceHardwareAddr(), Dst: *efrm.DestinationHardwareAddr()}
	fromClient := conn.FromClient(e.cfg.ListenerPort)
	payloadLen := len(tfrm.Payload())
	flags := tfrm.Flags()

	reroute, hit := e.routes.Lookup(conn)
	if !hit {
		return e.record(e.handleMiss(conn, eth, tfrm, fromClient, payloadLen, flags))
	}
	return e.record(e.handleHit(reroute, conn, eth, efrm, ifrm, tfrm, fromClient, payloadLen, flags))
}

// handleMiss implements the spec §4.3 miss path: a client data packet with
// no route is refused outright; a client ACK or a SYN+ACK seeds numbers_map
// for the connection that will need it once the control plane installs a
// route; anything else passes through untouched.
func (e *Engine) handleMiss(conn conntrack.Conn, eth conntrack.EthConn, tfrm tcp.Frame, fromClient bool, payloadLen int, flags tcp.Flags) Result {
	switch {
	case fromClient && payloadLen > 0:
		return Result{Action: Aborted, Reason: ReasonUnroutedData}
	case fromClient && flags.HasAll(tcp.FlagACK):
		if err := e.numbers.SeedFromClientAck(conn, tfrm.Seq(), tfrm.Ack(), eth); err != nil {
			return Result{Action: Aborted, Reason: ReasonTableFull}
		}
		return Result{Action: Pass}
	case flags.HasAll(tcp.FlagSYN | tcp.FlagACK):
		if err := e.numbers.SeedFromSynAck(conn, tfrm.Seq(), tfrm.Ack(), eth); err != nil {
			return Result{Action: Aborted, Reason: ReasonTableFull}
		}
		return Result{Action: Pass}
	default:
		return Result{Action: Pass}
	}
}

// handleHit implements the spec §4.3 hit path.
func (e *Engine) handleHit(r conntrack.Reroute, conn conntrack.Conn, eth conntrack.EthConn, efrm ethernet.Frame, ifrm ipv4.Frame, tfrm tcp.Frame, fromClient bool, payloadLen int, flags tcp.Flags) Result {
	if fromClient && flags.HasAny(tcp.FlagRST) {
		return e.handleRST(r, conn, ifrm, tfrm)
	}

	if !fromClient {
		if res, aborted := e.advanceOnServerPSH(r, conn, tfrm, payloadLen, flags); aborted {
			return res
		}
		if r.RematchFlag {
			updated, ok, abort := e.maybeRematch(r, conn, eth)
			if abort != nil {
				return *abort
			}
			if ok {
				r = updated
			}
		}
	}

	if payloadLen > 0 {
		clientEndpoint := conntrack.Endpoint{Addr: r.OriginalConn.Dst.Addr, Port: r.OriginalConn.Dst.Port}
		phase := clientstate.PhaseResponseReceived
		if fromClient {
			phase = clientstate.PhaseRequestSent
		}
		if err := e.state.Set(clientEndpoint, phase); err != nil {
			return Result{Action: Aborted, Reason: ReasonTableFull}
		}
	}

	rewrite.Apply(r, efrm, ifrm, tfrm)
	return Result{Action: TX}
}

// advanceOnServerPSH implements the numbers_map update a server PSH
// triggers on both the server-facing and client-facing directions (spec
// §4.3 "PSH from server").
func (e *Engine) advanceOnServerPSH(r conntrack.Reroute, conn conntrack.Conn, tfrm tcp.Frame, payloadLen int, flags tcp.Flags) (Result, bool) {
	if !flags.HasAny(tcp.FlagPSH) || payloadLen == 0 {
		return Result{}, false
	}
	if err := e.numbers.AdvanceOnServerPSH(conn.Reverse(), tfrm.Seq(), tfrm.Ack(), payloadLen); err != nil {
		return Result{Action: Aborted, Reason: ReasonMissingState}, true
	}
	clientDir := r.OriginalConn.Reverse()
	seqNo := tfrm.Ack().Sub(seqtrack.Offset(r.AckOffset))
	ackNo := seqtrack.Add(tfrm.Seq().Sub(seqtrack.Offset(r.SeqOffset)), seqtrack.Size(payloadLen))
	if err := e.numbers.SetNumbers(clientDir, seqNo, ackNo); err != nil {
		return Result{Action: Aborted, Reason: ReasonMissingState}, true
	}
	return Result{}, false
}
