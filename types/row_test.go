package types

import (
	"math"
	"testing"
)

func TestCompareFloatTotalOrder(t *testing.T) {
	nan := FloatValue(math.NaN())
	ordered := []Value{
		nan,
		FloatValue(math.Inf(-1)),
		IntValue(-3),
		FloatValue(-2.5),
		FloatValue(0),
		IntValue(1),
		FloatValue(1.5),
		FloatValue(math.Inf(1)),
	}
	for i, a := range ordered {
		for j, b := range ordered {
			want := cmpOrdered(int64(i), int64(j))
			if got := a.Compare(b); got != want {
				t.Errorf("%v.Compare(%v) = %d, want %d", a, b, got, want)
			}
		}
	}
	if c := nan.Compare(FloatValue(math.NaN())); c != 0 {
		t.Errorf("NaN vs NaN = %d, want 0", c)
	}
	if c := FloatValue(-0.0).Compare(FloatValue(0)); c != 0 {
		t.Errorf("-0 vs 0 = %d, want 0", c)
	}
}

func TestCompareIntFloatExact(t *testing.T) {
	// 2^53 + 1 has no float64 representation and rounds down to 2^53
	big := int64(1)<<53 + 1
	bound := FloatValue(float64(int64(1) << 53))

	if c := IntValue(big).Compare(bound); c != 1 {
		t.Errorf("2^53+1 vs 2^53.0 = %d, want 1", c)
	}
	if c := bound.Compare(IntValue(big)); c != -1 {
		t.Errorf("2^53.0 vs 2^53+1 = %d, want -1", c)
	}
	if c := IntValue(big - 1).Compare(bound); c != 0 {
		t.Errorf("2^53 vs 2^53.0 = %d, want 0", c)
	}

	cases := []struct {
		i    int64
		f    float64
		want int
	}{
		{math.MaxInt64, math.Pow(2, 63), -1},
		{math.MinInt64, -math.Pow(2, 63), 0},
		{math.MinInt64, -math.Pow(2, 64), 1},
		{2, 2.5, -1},
		{-2, -2.5, 1},
		{-3, -2.5, -1},
		{7, 7, 0},
		{0, math.NaN(), 1},
	}
	for _, c := range cases {
		if got := IntValue(c.i).Compare(FloatValue(c.f)); got != c.want {
			t.Errorf("%d vs %v = %d, want %d", c.i, c.f, got, c.want)
		}
		if got := FloatValue(c.f).Compare(IntValue(c.i)); got != -c.want {
			t.Errorf("%v vs %d = %d, want %d", c.f, c.i, got, -c.want)
		}
	}
}
