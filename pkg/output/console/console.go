package console

import (
	"fmt"
	"time"

	"github.com/ericogr/tamper-to-serial/pkg/meter"
	"github.com/ericogr/tamper-to-serial/pkg/output"
)

type ConsoleOutput struct{}

func NewConsole() output.Output { return &ConsoleOutput{} }

func (c *ConsoleOutput) Publish(r meter.Reading, _ []byte) error {
	m := 0
	if r.Field {
		m = 1
	}
	fmt.Printf("%s voltage=%.2f current=%.3f field=%d tamper=%t\n",
		r.Timestamp.Format(time.RFC3339), r.Voltage, r.Current, m, r.Tamper())
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }
