package bitops

import "testing"

func TestMask(t *testing.T) {
	cases := []struct {
		w    uint
		want uint64
	}{
		{0, 0},
		{1, 1},
		{7, 0x7f},
		{63, (uint64(1) << 63) - 1},
		{64, ^uint64(0)},
	}
	for _, c := range cases {
		if got := Mask(c.w); got != c.want {
			t.Errorf("Mask(%d) = %#x, want %#x", c.w, got, c.want)
		}
	}
}

func TestWidth(t *testing.T) {
	cases := []struct {
		max  uint64
		want uint
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{9, 4},
		{100, 7},
		{^uint64(0), 64},
	}
	for _, c := range cases {
		if got := Width(c.max); got != c.want {
			t.Errorf("Width(%d) = %d, want %d", c.max, got, c.want)
		}
	}
}

func TestTrailingZeros64(t *testing.T) {
	if got := TrailingZeros64(0); got != 64 {
		t.Errorf("TrailingZeros64(0) = %d, want 64", got)
	}
	if got := TrailingZeros64(8); got != 3 {
		t.Errorf("TrailingZeros64(8) = %d, want 3", got)
	}
}

func TestParity64(t *testing.T) {
	if got := Parity64(0b111); got != 1 {
		t.Errorf("Parity64(0b111) = %d, want 1", got)
	}
	if got := Parity64(0b110); got != 0 {
		t.Errorf("Parity64(0b110) = %d, want 0", got)
	}
}
