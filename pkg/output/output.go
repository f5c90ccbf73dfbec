package output

import "github.com/ericogr/tamper-to-serial/pkg/meter"

// Output receives one telemetry record per cycle: the reading and the
// formatted line derived from it. Implementations must not retain line.
type Output interface {
	Publish(r meter.Reading, line []byte) error
	Close() error
}

// constructors are in subpackages
