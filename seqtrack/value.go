// Package seqtrack implements TCP sequence-space arithmetic (RFC 9293 §3.4,
// RFC 1982 serial number comparisons) and the numbers_map table that records,
// per connection direction, the current and initial sequence/ack numbers
// observed. The offsets a rematch derives from them are stored on the
// conntrack.Reroute entries, not here.
package seqtrack

// Value is a 32-bit TCP sequence or acknowledgment number. Comparisons wrap
// around at 2**32 per RFC 1982: Value arithmetic is always modular, never
// a plain integer comparison.
type Value uint32

// Size is a count of octets in the sequence space (a segment length, or the
// distance between two Values).
type Size uint32

// Add returns v advanced by n octets, wrapping around 2**32.
func Add(v Value, n Size) Value { return v + Value(n) }

// Sizeof returns the wraparound distance from a to b, i.e. the Size that
// satisfies Add(a, Sizeof(a, b)) == b.
func Sizeof(a, b Value) Size { return Size(b - a) }

// LessThan reports whether v precedes other in sequence-space order.
func (v Value) LessThan(other Value) bool { return int32(v-other) < 0 }

// LessThanEq reports whether v precedes or equals other in sequence-space
// order.
func (v Value) LessThanEq(other Value) bool { return v == other || v.LessThan(other) }

// InWindow reports whether v falls in [start, start+size) in sequence-space
// order. A zero size window never contains any value.
func (v Value) InWindow(start Value, size Size) bool {
	if size == 0 {
		return false
	}
	return Sizeof(start, v) < size
}

// UpdateForward advances *v by n octets in place.
func (v *Value) UpdateForward(n Size) { *v = Add(*v, n) }

// Offset is the signed difference observed − desired between a number a
// packet carries and the number the opposite endpoint's view of the
// virtual connection expects, per the "Offset" glossary entry. The rewriter
// applies it by subtraction: desired = observed.Sub(offset).
type Offset int32

// OffsetOf returns the Offset that maps observed back to desired via Sub,
// i.e. observed − desired.
func OffsetOf(observed, desired Value) Offset { return Offset(int32(observed) - int32(desired)) }

// Sub applies offset to v by subtraction, wrapping around 2**32.
func (v Value) Sub(offset Offset) Value { return Value(int32(v) - int32(offset)) }
