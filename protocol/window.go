package protocol

// Sequence-number space sizes for the two sliding-window protocols. The
// one-bit protocols (3, 4) don't use these; they carry a single bit of
// sequence information modeled separately in their own files, and protocol
// 2 carries none.
const (
	// MaxSeqSW is the largest sequence number the pipelining protocols (5, 6)
	// use; the window holds MaxSeqSW+1-NrBufsSW frames in flight at once out
	// of MaxSeqSW+1 distinct sequence numbers.
	MaxSeqSW = 7
	// NrBufsSW is the sender/receiver window size for protocols 5 and 6.
	NrBufsSW = 4
)

// Inc advances a sequence number by one, wrapping at maxSeq.
func Inc(seq, maxSeq uint32) uint32 {
	if seq == maxSeq {
		return 0
	}
	return seq + 1
}

// Between reports whether b lies cyclically in the half-open range
// [a, c) modulo maxSeq+1, i.e. whether sequence number b falls between the
// last frame not yet acknowledged (a) and the next frame to be sent or
// expected (c), going forward around the circle from a. This is the
// condition that guards whether a received ack or nak actually advances the
// window, and must work correctly across the sequence-number wraparound.
func Between(a, b, c, maxSeq uint32) bool {
	mod := func(x uint32) uint32 { return x % (maxSeq + 1) }
	a, b, c = mod(a), mod(b), mod(c)
	if a <= c {
		return a <= b && b < c
	}
	return a <= b || b < c
}
