package sensor

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/ericogr/tamper-to-serial/pkg/config"
	"github.com/ericogr/tamper-to-serial/pkg/meter"
)

// MCP3008Sensor reads the node through an MCP3008 10-bit ADC on SPI plus
// two GPIO pins: the active-low Hall input (pulled up) and the active-high
// indicator LED.
type MCP3008Sensor struct {
	port spi.PortCloser
	conn spi.Conn
	hall gpio.PinIO
	led  gpio.PinIO

	voltCh int
	currCh int
}

func NewMCP3008Sensor(cfg config.Config) (Sensor, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("open spi: %w", err)
	}
	conn, err := port.Connect(physic.Frequency(cfg.SPIHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect spi: %w", err)
	}
	hall := gpioreg.ByName(cfg.HallPin)
	if hall == nil {
		port.Close()
		return nil, fmt.Errorf("unknown hall pin %q", cfg.HallPin)
	}
	if err := hall.In(gpio.PullUp, gpio.NoEdge); err != nil {
		port.Close()
		return nil, fmt.Errorf("configure hall pin: %w", err)
	}
	led := gpioreg.ByName(cfg.LEDPin)
	if led == nil {
		port.Close()
		return nil, fmt.Errorf("unknown led pin %q", cfg.LEDPin)
	}
	if err := led.Out(gpio.Low); err != nil {
		port.Close()
		return nil, fmt.Errorf("configure led pin: %w", err)
	}
	return &MCP3008Sensor{
		port:   port,
		conn:   conn,
		hall:   hall,
		led:    led,
		voltCh: cfg.VoltageChannel,
		currCh: cfg.CurrentChannel,
	}, nil
}

// Sample performs one single-shot conversion per analog channel and reads
// the Hall pin. Field is true when the pin reads low.
func (s *MCP3008Sensor) Sample() (meter.Sample, error) {
	v, err := s.readChannel(s.voltCh)
	if err != nil {
		return meter.Sample{}, fmt.Errorf("read voltage: %w", err)
	}
	c, err := s.readChannel(s.currCh)
	if err != nil {
		return meter.Sample{}, fmt.Errorf("read current: %w", err)
	}
	return meter.Sample{
		RawVoltage: v,
		RawCurrent: c,
		Field:      s.hall.Read() == gpio.Low,
		Timestamp:  time.Now(),
	}, nil
}

func (s *MCP3008Sensor) SetIndicator(on bool) error {
	return s.led.Out(gpio.Level(on))
}

func (s *MCP3008Sensor) Close() error {
	if s.led != nil {
		_ = s.led.Out(gpio.Low)
	}
	if s.port != nil {
		return s.port.Close()
	}
	return nil
}

func (s *MCP3008Sensor) readChannel(ch int) (uint16, error) {
	tx, err := requestForChannel(ch)
	if err != nil {
		return 0, err
	}
	rx := make([]byte, 3)
	if err := s.conn.Tx(tx, rx); err != nil {
		return 0, fmt.Errorf("adc tx: %w", err)
	}
	return decodeConversion(rx), nil
}

// requestForChannel builds the three-byte MCP3008 frame: start bit, then
// single-ended mode plus the channel select in the high nibble of the second
// byte. The third byte clocks out the rest of the conversion.
func requestForChannel(ch int) ([]byte, error) {
	if ch < 0 || ch > 7 {
		return nil, fmt.Errorf("invalid channel %d", ch)
	}
	return []byte{0x01, byte(0x80 | ch<<4), 0x00}, nil
}

// decodeConversion extracts the 10-bit result, in [0, 1023].
func decodeConversion(rx []byte) uint16 {
	return uint16(rx[1]&0x03)<<8 | uint16(rx[2])
}
