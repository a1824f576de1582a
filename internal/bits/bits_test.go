package bits

import "testing"

func TestRoundToPowerOf2(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   uint64
		want uint64
	}{
		{"zero", 0, 0},
		{"one", 1, 1},
		{"already_pow2", 1 << 10, 1 << 10},
		{"just_above_pow2", 1<<10 + 1, 1 << 11},
		{"just_below_pow2", 1<<10 - 1, 1 << 10},
		{"three", 3, 4},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			if got := RoundToPowerOf2(c.in); got != c.want {
				t.Fatalf("RoundToPowerOf2(%d) = %d, want %d", c.in, got, c.want)
			}
		})
	}
}

func TestRoundToPowerOf2Bounds(t *testing.T) {
	t.Parallel()
	for v := uint64(1); v <= 1<<16; v++ {
		got := RoundToPowerOf2(v)
		if PopCount(got) != 1 {
			t.Fatalf("RoundToPowerOf2(%d) = %d is not a power of two", v, got)
		}
		if got < v || got >= 2*v {
			t.Fatalf("RoundToPowerOf2(%d) = %d violates v <= round(v) < 2v", v, got)
		}
	}
}

func TestPopCountCtzClz(t *testing.T) {
	t.Parallel()

	if got := PopCount(0b1011); got != 3 {
		t.Fatalf("PopCount(0b1011) = %d, want 3", got)
	}
	if got := Ctz(0b1000); got != 3 {
		t.Fatalf("Ctz(0b1000) = %d, want 3", got)
	}
	if got := Clz(uint64(1) << 63); got != 0 {
		t.Fatalf("Clz(1<<63) = %d, want 0", got)
	}
	if got := Ctz(0); got != 64 {
		t.Fatalf("Ctz(0) = %d, want 64", got)
	}
}

func TestFieldGetSet(t *testing.T) {
	t.Parallel()

	f1 := Field{Index: 0, Width: 4}
	f2 := Field{Index: 4, Width: 12}

	var word uint64
	word = f1.Set(word, 0xF)
	word = f2.Set(word, 0xABC)

	if got := f1.Get(word); got != 0xF {
		t.Fatalf("f1.Get = %#x, want 0xF", got)
	}
	if got := f2.Get(word); got != 0xABC {
		t.Fatalf("f2.Get = %#x, want 0xABC", got)
	}
	if f1.Max() != 0xF {
		t.Fatalf("f1.Max() = %#x, want 0xF", f1.Max())
	}
}
