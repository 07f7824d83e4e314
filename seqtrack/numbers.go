package seqtrack

import "github.com/moraru210/rematcher/conntrack"

// Numbers is a numbers_map entry: the sequence/ack state observed for one
// direction of a connection, the initial values captured at connection
// birth and replayed on RST, and the MAC pair last seen in that direction.
type Numbers struct {
	SeqNo, AckNo     Value
	InitSeq, InitAck Value
	Eth              conntrack.EthConn
}
