package meter

import (
	"math"
	"testing"
)

func TestVoltageRangeAndMonotonic(t *testing.T) {
	c := DefaultConverter()
	prev := -1.0
	for raw := 0; raw <= FullScale; raw++ {
		v := c.Voltage(uint16(raw))
		if v < 0 || v > 5.0 {
			t.Fatalf("voltage(%d) = %v out of [0, 5]", raw, v)
		}
		if v < prev {
			t.Fatalf("voltage(%d) = %v decreased from %v", raw, v, prev)
		}
		prev = v
	}
	if got := c.Voltage(FullScale); got != 5.0 {
		t.Fatalf("voltage(1023) = %v; want 5.0", got)
	}
}

func TestCurrentMonotonicAndZero(t *testing.T) {
	c := DefaultConverter()
	prev := math.Inf(-1)
	for raw := 0; raw <= FullScale; raw++ {
		i := c.Current(uint16(raw))
		if i < prev {
			t.Fatalf("current(%d) = %v decreased from %v", raw, i, prev)
		}
		prev = i
	}
	if got := c.Current(Midscale); got != 0 {
		t.Fatalf("current(512) = %v; want 0", got)
	}
	if got := CurrentOffset(0); got != -512 {
		t.Fatalf("offset(0) = %d; want -512", got)
	}
	if got := CurrentOffset(FullScale); got != 511 {
		t.Fatalf("offset(1023) = %d; want 511", got)
	}
}

func TestVoltTamperBoundary(t *testing.T) {
	tests := []struct {
		raw  uint16
		want bool
	}{
		{0, true},
		{300, true},
		{511, true},
		{512, false},
		{700, false},
		{1023, false},
	}
	for _, tt := range tests {
		r := Evaluate(Sample{RawVoltage: tt.raw, RawCurrent: Midscale}, DefaultConverter(), DefaultThresholds())
		if r.VoltTamper != tt.want {
			t.Fatalf("volt tamper at raw %d: got %v want %v", tt.raw, r.VoltTamper, tt.want)
		}
	}
}

func TestCurrTamperBoundary(t *testing.T) {
	tests := []struct {
		raw  uint16
		want bool
	}{
		{0, true},
		{508, true},
		{509, false},
		{512, false},
		{515, false},
		{516, true},
		{1023, true},
	}
	for _, tt := range tests {
		r := Evaluate(Sample{RawVoltage: 700, RawCurrent: tt.raw}, DefaultConverter(), DefaultThresholds())
		if r.CurrTamper != tt.want {
			t.Fatalf("curr tamper at raw %d: got %v want %v", tt.raw, r.CurrTamper, tt.want)
		}
	}
}

func TestHallTamper(t *testing.T) {
	r := Evaluate(Sample{RawVoltage: 700, RawCurrent: Midscale, Field: false}, DefaultConverter(), DefaultThresholds())
	if r.HallTamper || r.Field {
		t.Fatalf("hall tamper with pin high: %+v", r)
	}
	r = Evaluate(Sample{RawVoltage: 700, RawCurrent: Midscale, Field: true}, DefaultConverter(), DefaultThresholds())
	if !r.HallTamper || !r.Field {
		t.Fatalf("no hall tamper with pin low: %+v", r)
	}
}

func TestAggregateIsDisjunction(t *testing.T) {
	for _, volt := range []bool{false, true} {
		for _, curr := range []bool{false, true} {
			for _, hall := range []bool{false, true} {
				s := Sample{RawVoltage: 700, RawCurrent: Midscale, Field: hall}
				if volt {
					s.RawVoltage = 300
				}
				if curr {
					s.RawCurrent = 586
				}
				r := Evaluate(s, DefaultConverter(), DefaultThresholds())
				want := volt || curr || hall
				if r.Tamper() != want {
					t.Fatalf("aggregate(%v,%v,%v) = %v; want %v", volt, curr, hall, r.Tamper(), want)
				}
			}
		}
	}
}

func TestConverterScalesWithVRef(t *testing.T) {
	c := Converter{VRef: 4.8, Sensitivity: 37.0}
	if got := c.Voltage(FullScale); math.Abs(got-4.8) > 1e-12 {
		t.Fatalf("voltage(1023) at vref 4.8 = %v; want 4.8", got)
	}
}
