package random

import "testing"

func TestSeededIsReproducible(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)

	for i := 0; i < 50; i++ {
		if x, y := a.IntBetween(0, 1000), b.IntBetween(0, 1000); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
		if x, y := a.FloatBetween(1, 2), b.FloatBetween(1, 2); x != y {
			t.Fatalf("float draw %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestBoundsAreRespected(t *testing.T) {
	src := NewSeeded(7)
	for i := 0; i < 1000; i++ {
		if v := src.IntBetween(2500, 4500); v < 2500 || v > 4500 {
			t.Fatalf("int out of bounds: %d", v)
		}
		if v := src.FloatBetween(25, 45); v < 25 || v >= 45 {
			t.Fatalf("float out of bounds: %v", v)
		}
		if v := src.IntBetween(5, 1); v < 1 || v > 5 {
			t.Fatalf("swapped bounds out of range: %d", v)
		}
	}
}
