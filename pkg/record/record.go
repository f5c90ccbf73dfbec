// Package record serialises one reading into the node's telemetry line.
package record

import (
	"fmt"

	"github.com/ericogr/tamper-to-serial/pkg/meter"
)

// Format renders a reading as "<V>,<I>,<M>\r\n": voltage with minimum field
// width 4 and two fractional digits, current with minimum field width 4 and
// three fractional digits (the sign occupies the width), and the field flag
// as the digit 0 or 1. Currents below -1 A widen the field; the minimum
// width is kept and the line simply grows.
func Format(r meter.Reading) []byte {
	m := 0
	if r.Field {
		m = 1
	}
	return []byte(fmt.Sprintf("%4.2f,%4.3f,%d\r\n", r.Voltage, r.Current, m))
}
