package seqtrack

import "testing"

func TestLessThanWraparound(t *testing.T) {
	var max Value = 0xffffffff
	if !max.LessThan(0) {
		t.Fatal("expected 0xffffffff to precede 0 across wraparound")
	}
	if Value(0).LessThan(max) {
		t.Fatal("expected 0 not to precede 0xffffffff")
	}
	if Value(100).LessThan(50) {
		t.Fatal("100 should not precede 50")
	}
}

func TestInWindow(t *testing.T) {
	start := Value(1000)
	size := Size(100)
	cases := []struct {
		v    Value
		want bool
	}{
		{999, false},
		{1000, true},
		{1050, true},
		{1099, true},
		{1100, false},
	}
	for _, c := range cases {
		if got := c.v.InWindow(start, size); got != c.want {
			t.Errorf("InWindow(%d, start=%d, size=%d) = %v, want %v", c.v, start, size, got, c.want)
		}
	}
	if Value(1000).InWindow(start, 0) {
		t.Fatal("a zero-size window must never contain any value")
	}
}

func TestAddWraparound(t *testing.T) {
	got := Add(0xfffffffe, 5)
	if got != 3 {
		t.Fatalf("Add wraparound: got %d, want 3", got)
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	observed := Value(5000)
	desired := Value(4900)
	off := OffsetOf(observed, desired)
	if off != 100 {
		t.Fatalf("OffsetOf = %d, want 100", off)
	}
	if got := observed.Sub(off); got != desired {
		t.Fatalf("observed.Sub(offset) = %d, want %d", got, desired)
	}
}

func TestOffsetNegativeAndWraparound(t *testing.T) {
	observed := Value(100)
	desired := Value(200)
	off := OffsetOf(observed, desired)
	if off != -100 {
		t.Fatalf("OffsetOf = %d, want -100", off)
	}
	if got := observed.Sub(off); got != desired {
		t.Fatalf("observed.Sub(offset) = %d, want %d", got, desired)
	}

	// Offset arithmetic must wrap correctly even when observed is near zero
	// and the offset would otherwise underflow a plain uint32 subtraction.
	observed = Value(5)
	desired = Value(0xfffffffa) // desired = observed - 11 (mod 2**32)
	off = OffsetOf(observed, desired)
	if got := observed.Sub(off); got != desired {
		t.Fatalf("wraparound Sub: got %d, want %d", got, desired)
	}
}
