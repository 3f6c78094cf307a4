package mathx

import "testing"

func TestClamp(t *testing.T) {
	cases := []struct{ v, lo, hi, want int }{
		{10, 24, 512, 24},
		{1000, 24, 512, 512},
		{100, 24, 512, 100},
		{5, 9, 1, 5}, // swapped bounds
		{0, 9, 1, 1},
	}
	for _, c := range cases {
		if got := Clamp(c.v, c.lo, c.hi); got != c.want {
			t.Fatalf("Clamp(%d, %d, %d) = %d, want %d", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

func TestInRange(t *testing.T) {
	if !InRange(1, 1, 24) || !InRange(24, 1, 24) {
		t.Fatal("bounds must be inclusive")
	}
	if InRange(0, 1, 24) || InRange(25, 1, 24) {
		t.Fatal("values outside the range reported as inside")
	}
	if InRange(3, 5, 1) {
		t.Fatal("reversed range must be empty")
	}
}
