package sensor

import (
	"math/rand"
	"sync"
	"time"

	"github.com/ericogr/tamper-to-serial/pkg/config"
	"github.com/ericogr/tamper-to-serial/pkg/meter"
)

// SimulatedSensor replaces the hardware with generated raw counts so the
// whole pipeline can run on a bench without the board. Each cycle is clean
// with probability 1-p; otherwise one of four tamper scenarios is injected:
// voltage collapse, current flow in either direction, or an external magnet.
type SimulatedSensor struct {
	mu        sync.Mutex
	rnd       *rand.Rand
	prob      float64
	indicator bool
}

func NewSimulatedSensor(cfg config.Config) (Sensor, error) {
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedSensor{
		rnd:  rand.New(rand.NewSource(seed)),
		prob: cfg.Simulation.TamperProbability,
	}, nil
}

func (f *SimulatedSensor) Sample() (meter.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := meter.Sample{
		RawVoltage: uint16(920 + f.rnd.Intn(104)),              // stable rail, 4.5-5.0 V
		RawCurrent: uint16(meter.Midscale - 3 + f.rnd.Intn(7)), // noise inside the deadband
		Timestamp:  time.Now(),
	}
	if f.rnd.Float64() < f.prob {
		switch f.rnd.Intn(4) {
		case 0: // voltage collapse
			s.RawVoltage = uint16(368 + f.rnd.Intn(144)) // 1.8 V up to just under threshold
		case 1: // forward current flow
			s.RawCurrent = uint16(meter.Midscale + 4 + f.rnd.Intn(74))
		case 2: // reverse current flow
			s.RawCurrent = uint16(meter.Midscale - 4 - f.rnd.Intn(74))
		case 3: // external magnet
			s.Field = true
		}
	}
	return s, nil
}

func (f *SimulatedSensor) SetIndicator(on bool) error {
	f.mu.Lock()
	f.indicator = on
	f.mu.Unlock()
	return nil
}

// Indicator reports the last asserted LED state.
func (f *SimulatedSensor) Indicator() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indicator
}

func (f *SimulatedSensor) Close() error { return nil }
