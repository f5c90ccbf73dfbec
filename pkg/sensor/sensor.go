package sensor

import "github.com/ericogr/tamper-to-serial/pkg/meter"

// Sensor is one tamper node: the two analog channels, the Hall input and
// the indicator LED.
type Sensor interface {
	// Sample acquires the three raw inputs of one cycle, in order: voltage,
	// current, Hall. The acquisitions are blocking and never overlap.
	Sample() (meter.Sample, error)
	// SetIndicator drives the tamper LED. The caller re-asserts the state
	// every cycle; the pin follows the latest evaluation.
	SetIndicator(on bool) error
	Close() error
}
