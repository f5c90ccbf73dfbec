package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ericogr/tamper-to-serial/pkg/config"
	"github.com/ericogr/tamper-to-serial/pkg/logging"
	"github.com/ericogr/tamper-to-serial/pkg/meter"
	"github.com/ericogr/tamper-to-serial/pkg/output"
	"github.com/ericogr/tamper-to-serial/pkg/output/console"
	mqttout "github.com/ericogr/tamper-to-serial/pkg/output/mqtt"
	serialout "github.com/ericogr/tamper-to-serial/pkg/output/serial"
	"github.com/ericogr/tamper-to-serial/pkg/record"
	"github.com/ericogr/tamper-to-serial/pkg/sensor"
)

func main() {
	cfg, err := config.LoadFromFlags()
	log := logging.New(cfg.LogLevel, os.Stderr).Get("main")
	if err != nil {
		log.WithError(err).Fatal("configuration")
	}

	s, err := initSensor(cfg)
	if err != nil {
		log.WithError(err).Fatal("sensor init")
	}
	defer s.Close()

	outs, err := initOutputs(cfg)
	if err != nil {
		log.WithError(err).Fatal("output init")
	}
	defer closeOutputs(outs, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	log.WithFields(logrus.Fields{
		"sensor":      cfg.SensorType,
		"interval_ms": cfg.IntervalMs,
		"outputs":     len(outs),
	}).Info("starting")

	n := &node{
		sensor:     s,
		outputs:    outs,
		conv:       meter.Converter{VRef: cfg.VRef, Sensitivity: cfg.CurrentSensitivity},
		thresholds: meter.Thresholds{VoltageMin: cfg.VoltageMin, CurrentDeadband: cfg.CurrentDeadband},
		interval:   time.Duration(cfg.IntervalMs) * time.Millisecond,
		debug:      cfg.Debug,
		log:        log,
	}
	n.run(quit)
	log.Info("stopped")
}

// node owns every peripheral for its lifetime. The loop is single threaded;
// nothing else touches the sensor or the outputs while it runs.
type node struct {
	sensor     sensor.Sensor
	outputs    []output.Output
	conv       meter.Converter
	thresholds meter.Thresholds
	interval   time.Duration
	debug      bool
	log        *logrus.Entry
}

// run executes the sample-evaluate-report loop until quit fires. The delay
// after each cycle paces the loop at roughly 20 Hz with the default 50 ms
// interval; the true rate is lower because acquisition and transmit block.
func (n *node) run(quit <-chan os.Signal) {
	for {
		n.cycle()
		select {
		case <-quit:
			return
		case <-time.After(n.interval):
		}
	}
}

// cycle is one iteration: sample, evaluate, assert the LED, format, publish.
// Degraded readings are not errors; only I/O failures are logged, and none
// of them stop the loop.
func (n *node) cycle() {
	smp, err := n.sensor.Sample()
	if err != nil {
		n.log.WithError(err).Error("sample")
		return
	}
	r := meter.Evaluate(smp, n.conv, n.thresholds)
	if err := n.sensor.SetIndicator(r.Tamper()); err != nil {
		n.log.WithError(err).Error("indicator")
	}
	line := record.Format(r)
	for _, o := range n.outputs {
		if err := o.Publish(r, line); err != nil {
			n.log.WithError(err).Error("publish")
		}
	}
	if n.debug {
		n.log.Debugf("V: %.2f, I: %.3f, M: %d, T: %d",
			r.Voltage, r.Current, boolInt(r.Field), boolInt(r.Tamper()))
	}
}

func initSensor(cfg config.Config) (sensor.Sensor, error) {
	switch strings.ToLower(cfg.SensorType) {
	case "simulation":
		return sensor.NewSimulatedSensor(cfg)
	case "", "real":
		return sensor.NewMCP3008Sensor(cfg)
	default:
		return nil, fmt.Errorf("unknown sensor type %q", cfg.SensorType)
	}
}

func initOutputs(cfg config.Config) ([]output.Output, error) {
	outs := make([]output.Output, 0, len(cfg.Outputs))
	fail := func(err error) ([]output.Output, error) {
		for _, o := range outs {
			_ = o.Close()
		}
		return nil, err
	}
	for _, oc := range cfg.Outputs {
		switch strings.ToLower(oc.Type) {
		case "serial":
			sc := config.SerialConfig{}
			if oc.Serial != nil {
				sc = *oc.Serial
			}
			o, err := serialout.New(sc)
			if err != nil {
				return fail(err)
			}
			outs = append(outs, o)
		case "console":
			outs = append(outs, console.NewConsole())
		case "mqtt":
			mc := config.MQTTConfig{}
			if oc.MQTT != nil {
				mc = *oc.MQTT
			}
			o, err := mqttout.NewMQTT(mc)
			if err != nil {
				return fail(err)
			}
			outs = append(outs, o)
		default:
			return fail(fmt.Errorf("unknown output type %q", oc.Type))
		}
	}
	return outs, nil
}

func closeOutputs(outs []output.Output, log *logrus.Entry) {
	for _, o := range outs {
		if err := o.Close(); err != nil {
			log.WithError(err).Error("output close")
		}
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
