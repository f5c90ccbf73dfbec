// Package serial is the node's primary output: the telemetry line pushed
// over a TX-only serial link, 9600 8N1 by default. The wire carries exactly
// the formatted record and nothing else.
package serial

import (
	"fmt"
	"io"

	goserial "go.bug.st/serial"

	"github.com/ericogr/tamper-to-serial/pkg/config"
	"github.com/ericogr/tamper-to-serial/pkg/meter"
	"github.com/ericogr/tamper-to-serial/pkg/output"
)

type SerialOutput struct {
	port goserial.Port
}

func New(cfg config.SerialConfig) (output.Output, error) {
	mode := &goserial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	}
	port, err := goserial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}
	return &SerialOutput{port: port}, nil
}

// Publish writes the line, returning once the last byte has been handed to
// the driver. There is no flow control and no receive path.
func (s *SerialOutput) Publish(_ meter.Reading, line []byte) error {
	return writeAll(s.port, line)
}

func writeAll(w io.Writer, line []byte) error {
	for len(line) > 0 {
		n, err := w.Write(line)
		if err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
		line = line[n:]
	}
	return nil
}

func (s *SerialOutput) Close() error {
	return s.port.Close()
}
