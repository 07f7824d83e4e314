// Package conntrack owns conn_map: the table of directional Reroute entries
// keyed by the observed 4-tuple. The rematch handoff that rewrites these
// entries onto a new backend lives in package engine (engine/rematch.go).
// Keys and values are always host-order; callers convert at the packet
// boundary.
package conntrack

// DefaultListenerPort is the load balancer's client-facing TCP port absent
// other configuration (spec §6 LB_LISTENER_PORT default).
const DefaultListenerPort = 8080

// Endpoint is an (IPv4 address, TCP port) pair, host byte order.
type Endpoint struct {
	Addr [4]byte
	Port uint16
}

// Conn is an ordered pair of Endpoints: the direction a packet travels in.
type Conn struct {
	Src, Dst Endpoint
}

// Reverse swaps Src and Dst.
func (c Conn) Reverse() Conn { return Conn{Src: c.Dst, Dst: c.Src} }

// FromClient reports whether c travels toward the load balancer's listener
// port, i.e. this is the client → LB direction.
func (c Conn) FromClient(listenerPort uint16) bool { return c.Dst.Port == listenerPort }

// ServerKey returns the Endpoint identifying the backend server side of c.
func (c Conn) ServerKey() Endpoint { return c.Dst }

// EthConn is an (src MAC, dst MAC) pair.
type EthConn struct {
	Src, Dst [6]byte
}

// Reverse swaps Src and Dst.
func (e EthConn) Reverse() EthConn { return EthConn{Src: e.Dst, Dst: e.Src} }

// Reroute is a directional routing record: the active binding a packet on
// Conn key is rewritten toward, the sequence/ack offsets needed to keep the
// rewritten packet's numbers consistent with that binding, and (while a
// handoff is pending) the target of the next rematch.
type Reroute struct {
	OriginalConn  Conn
	OriginalEth   EthConn
	OriginalIndex int

	SeqOffset int32
	AckOffset int32

	RematchFlag bool
	NewConn     Conn
	NewEth      EthConn
	NewIndex    int
}
