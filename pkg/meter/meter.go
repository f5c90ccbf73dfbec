// Package meter converts raw ADC counts from the tamper node into
// engineering units and evaluates the per-channel tamper predicates.
// Everything here is pure: any raw count maps to a value, any pin level
// maps to a boolean, and no state survives a cycle.
package meter

import "time"

const (
	// FullScale is the top count of the 10-bit converter.
	FullScale = 1023
	// Midscale is the zero-current count of the mid-rail biased sensor.
	Midscale = 512
)

// Sample holds the three raw acquisitions of one cycle.
type Sample struct {
	RawVoltage uint16    // divider count, channel 0
	RawCurrent uint16    // bidirectional sensor count, channel 1
	Field      bool      // Hall pin read low
	Timestamp  time.Time
}

// Reading is a Sample converted to engineering units with the tamper
// predicates evaluated.
type Reading struct {
	Voltage float64 // volts
	Current float64 // amperes, signed
	Field   bool

	VoltTamper bool
	CurrTamper bool
	HallTamper bool

	Timestamp time.Time
}

// Tamper is the aggregate over the three channels. The predicates are
// independent; there is no priority among them.
func (r Reading) Tamper() bool {
	return r.VoltTamper || r.CurrTamper || r.HallTamper
}

// Converter maps raw counts to engineering units. VRef is the ADC reference,
// nominally the 5.0 V rail; results scale linearly with the true rail.
type Converter struct {
	VRef        float64
	Sensitivity float64 // current sensor counts per ampere
}

// Thresholds holds the tamper predicate parameters.
type Thresholds struct {
	VoltageMin      float64 // tamper below this voltage
	CurrentDeadband int     // offsets in [-d, d] are clean
}

// DefaultConverter matches the node's nominal hardware: 5.0 V rail and an
// ACS712-class sensor at 37 counts per ampere.
func DefaultConverter() Converter {
	return Converter{VRef: 5.0, Sensitivity: 37.0}
}

// DefaultThresholds matches the firmware constants: half-scale voltage
// collapse and a +/-3 count deadband around zero current.
func DefaultThresholds() Thresholds {
	return Thresholds{VoltageMin: 2.5, CurrentDeadband: 3}
}

// Voltage converts a divider count to volts.
func (c Converter) Voltage(raw uint16) float64 {
	return float64(raw) * c.VRef / FullScale
}

// CurrentOffset is the signed deviation of a current count from the
// mid-rail zero point.
func CurrentOffset(raw uint16) int {
	return int(raw) - Midscale
}

// Current converts a bidirectional sensor count to amperes, preserving sign.
func (c Converter) Current(raw uint16) float64 {
	return float64(CurrentOffset(raw)) / c.Sensitivity
}

// Evaluate converts one sample and evaluates the three predicates.
func Evaluate(s Sample, c Converter, t Thresholds) Reading {
	offset := CurrentOffset(s.RawCurrent)
	r := Reading{
		Voltage:   c.Voltage(s.RawVoltage),
		Current:   c.Current(s.RawCurrent),
		Field:     s.Field,
		Timestamp: s.Timestamp,
	}
	r.VoltTamper = r.Voltage < t.VoltageMin
	r.CurrTamper = offset > t.CurrentDeadband || offset < -t.CurrentDeadband
	r.HallTamper = s.Field
	return r
}
