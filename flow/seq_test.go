package flow

import (
	"math"
	"testing"
)

func TestSeqLess(t *testing.T) {
	if !seqLess(1, 2) {
		t.Fatal("1 should precede 2")
	}
	if seqLess(2, 1) {
		t.Fatal("2 should not precede 1")
	}
	if seqLess(1, 1) {
		t.Fatal("a value should not precede itself")
	}
}

func TestSeqLessWraparound(t *testing.T) {
	a := uint32(math.MaxUint32 - 1)
	b := uint32(1)
	if !seqLess(a, b) {
		t.Fatal("a value near the wraparound boundary should precede one just after it")
	}
	if seqLess(b, a) {
		t.Fatal("wraparound comparison should not be symmetric")
	}
}

func TestSeqLessOrEqual(t *testing.T) {
	if !seqLessOrEqual(5, 5) {
		t.Fatal("a value must be less-or-equal to itself")
	}
	if !seqLessOrEqual(4, 5) {
		t.Fatal("4 should be less-or-equal to 5")
	}
}

func TestSeqDistance(t *testing.T) {
	if seqDistance(10, 20) != 10 {
		t.Fatalf("expected distance 10, got %d", seqDistance(10, 20))
	}
	if seqDistance(20, 10) != -10 {
		t.Fatalf("expected distance -10, got %d", seqDistance(20, 10))
	}
}
