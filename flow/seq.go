package flow

// seqLess reports whether a precedes b in 32-bit wraparound sequence
// space, using the standard signed-difference convention: (a-b) mod 2^32
// interpreted as a signed 32-bit integer is negative iff a is "before" b.
func seqLess(a, b uint32) bool {
	return int32(a-b) < 0
}

// seqLessOrEqual reports whether a precedes or equals b in sequence space.
func seqLessOrEqual(a, b uint32) bool {
	return a == b || seqLess(a, b)
}

// seqDistance returns b-a as a signed 32-bit difference; positive means b
// is ahead of a in sequence space.
func seqDistance(a, b uint32) int32 {
	return int32(b - a)
}
