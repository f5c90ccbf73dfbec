package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// SerialConfig describes the telemetry serial line. The link is TX only.
type SerialConfig struct {
	Port string `json:"port"`
	Baud int    `json:"baud"`
}

type MQTTConfig struct {
	Server         string `json:"server"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	ClientID       string `json:"client_id"`
	Topic          string `json:"topic"`
	DiscoveryTopic string `json:"discovery_topic,omitempty"`
}

type OutputConfig struct {
	Type   string        `json:"type"`
	Serial *SerialConfig `json:"serial,omitempty"`
	MQTT   *MQTTConfig   `json:"mqtt,omitempty"`
}

// SimulationConfig drives the simulated sensor.
type SimulationConfig struct {
	TamperProbability float64 `json:"tamper_probability"`
	Seed              int64   `json:"seed,omitempty"`
}

type Config struct {
	SensorType string `json:"sensor_type"` // real|simulation

	SPIPort        string `json:"spi_port"`
	SPIHz          int64  `json:"spi_hz"`
	VoltageChannel int    `json:"voltage_channel"`
	CurrentChannel int    `json:"current_channel"`
	HallPin        string `json:"hall_pin"`
	LEDPin         string `json:"led_pin"`

	VRef               float64 `json:"vref"`
	CurrentSensitivity float64 `json:"current_sensitivity"`
	VoltageMin         float64 `json:"voltage_min"`
	CurrentDeadband    int     `json:"current_deadband"`

	IntervalMs int              `json:"interval_ms"`
	LogLevel   string           `json:"log_level"`
	Debug      bool             `json:"debug"`
	Simulation SimulationConfig `json:"simulation"`
	Outputs    []OutputConfig   `json:"outputs"`
}

func DefaultConfig() Config {
	return Config{
		SensorType:         "real",
		SPIPort:            "SPI0.0",
		SPIHz:              1350000, // within the MCP3008 clock range at 5 V
		VoltageChannel:     0,
		CurrentChannel:     1,
		HallPin:            "GPIO4",
		LEDPin:             "GPIO5",
		VRef:               5.0,
		CurrentSensitivity: 37.0,
		VoltageMin:         2.5,
		CurrentDeadband:    3,
		IntervalMs:         50,
		LogLevel:           "info",
		Outputs:            []OutputConfig{{Type: "serial", Serial: &SerialConfig{Port: "/dev/ttyAMA0", Baud: 9600}}},
	}
}

// LoadFromFlags loads configuration from a JSON file (optional) and flags.
// Flags override values present in the JSON file. A .env file, if present,
// is loaded first; the MQTT_PASSWORD environment variable overrides the
// password of every mqtt output so secrets can stay out of the config file.
func LoadFromFlags() (Config, error) {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "Path to JSON config file")
	flagSensorType := flag.String("sensor-type", "", "sensor type: real|simulation")
	flagSPIPort := flag.String("spi-port", "", "SPI port name (e.g., 'SPI0.0')")
	flagSPIHz := flag.Int64("spi-hz", -1, "SPI clock in Hz")
	flagHallPin := flag.String("hall-pin", "", "Hall sensor input pin name")
	flagLEDPin := flag.String("led-pin", "", "Indicator LED output pin name")
	flagVRef := flag.Float64("vref", math.NaN(), "ADC reference voltage")
	flagSensitivity := flag.Float64("current-sensitivity", math.NaN(), "Current sensor counts per ampere")
	flagVoltageMin := flag.Float64("voltage-min", math.NaN(), "Voltage tamper threshold in volts")
	flagDeadband := flag.Int("current-deadband", -1, "Clean current deadband in counts")
	flagInterval := flag.Int("interval-ms", -1, "Delay between cycles in ms")
	flagOutputs := flag.String("outputs", "", "Comma-separated outputs (serial,console,mqtt)")
	flagSerialPort := flag.String("serial-port", "", "Telemetry serial port (e.g., /dev/ttyAMA0)")
	flagSerialBaud := flag.Int("serial-baud", -1, "Telemetry serial baud rate")
	flagMQTTServer := flag.String("mqtt-server", "", "MQTT server (tcp://host:port)")
	flagMQTTUser := flag.String("mqtt-user", "", "MQTT username")
	flagMQTTPass := flag.String("mqtt-pass", "", "MQTT password")
	flagClientID := flag.String("mqtt-client-id", "", "MQTT client id")
	flagTopic := flag.String("mqtt-topic", "", "MQTT topic")
	flagLogLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flagDebug := flag.Bool("debug", false, "Log a debug line per cycle")
	flagTamperProb := flag.Float64("tamper-probability", math.NaN(), "Simulation tamper probability (0-1)")

	flag.Parse()

	cfg := DefaultConfig()

	if *cfgPath != "" {
		b, err := os.ReadFile(*cfgPath)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if *flagSensorType != "" {
		cfg.SensorType = *flagSensorType
	}
	if *flagSPIPort != "" {
		cfg.SPIPort = *flagSPIPort
	}
	if *flagSPIHz != -1 {
		cfg.SPIHz = *flagSPIHz
	}
	if *flagHallPin != "" {
		cfg.HallPin = *flagHallPin
	}
	if *flagLEDPin != "" {
		cfg.LEDPin = *flagLEDPin
	}
	if !math.IsNaN(*flagVRef) {
		cfg.VRef = *flagVRef
	}
	if !math.IsNaN(*flagSensitivity) {
		cfg.CurrentSensitivity = *flagSensitivity
	}
	if !math.IsNaN(*flagVoltageMin) {
		cfg.VoltageMin = *flagVoltageMin
	}
	if *flagDeadband != -1 {
		cfg.CurrentDeadband = *flagDeadband
	}
	if *flagInterval != -1 {
		cfg.IntervalMs = *flagInterval
	}
	if *flagOutputs != "" {
		parts := parseCSV(*flagOutputs)
		outs := make([]OutputConfig, 0, len(parts))
		for _, p := range parts {
			outs = append(outs, OutputConfig{Type: p})
		}
		cfg.Outputs = outs
	}
	// serial flags apply to all serial outputs; create one if missing
	if *flagSerialPort != "" || *flagSerialBaud != -1 {
		applied := false
		for i := range cfg.Outputs {
			if strings.ToLower(cfg.Outputs[i].Type) == "serial" {
				if cfg.Outputs[i].Serial == nil {
					cfg.Outputs[i].Serial = &SerialConfig{}
				}
				applySerialFlags(cfg.Outputs[i].Serial, *flagSerialPort, *flagSerialBaud)
				applied = true
			}
		}
		if !applied {
			sc := &SerialConfig{}
			applySerialFlags(sc, *flagSerialPort, *flagSerialBaud)
			cfg.Outputs = append(cfg.Outputs, OutputConfig{Type: "serial", Serial: sc})
		}
	}
	// mqtt flags apply to all mqtt outputs; create one if missing
	if *flagMQTTServer != "" || *flagMQTTUser != "" || *flagMQTTPass != "" || *flagClientID != "" || *flagTopic != "" {
		applied := false
		for i := range cfg.Outputs {
			if strings.ToLower(cfg.Outputs[i].Type) == "mqtt" {
				if cfg.Outputs[i].MQTT == nil {
					cfg.Outputs[i].MQTT = &MQTTConfig{}
				}
				applyMQTTFlags(cfg.Outputs[i].MQTT, *flagMQTTServer, *flagMQTTUser, *flagMQTTPass, *flagClientID, *flagTopic)
				applied = true
			}
		}
		if !applied {
			mc := &MQTTConfig{}
			applyMQTTFlags(mc, *flagMQTTServer, *flagMQTTUser, *flagMQTTPass, *flagClientID, *flagTopic)
			cfg.Outputs = append(cfg.Outputs, OutputConfig{Type: "mqtt", MQTT: mc})
		}
	}
	if *flagLogLevel != "" {
		cfg.LogLevel = *flagLogLevel
	}
	if *flagDebug {
		cfg.Debug = true
	}
	if !math.IsNaN(*flagTamperProb) {
		cfg.Simulation.TamperProbability = *flagTamperProb
	}

	if pass := os.Getenv("MQTT_PASSWORD"); pass != "" {
		for i := range cfg.Outputs {
			if cfg.Outputs[i].MQTT != nil {
				cfg.Outputs[i].MQTT.Password = pass
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the fields the loop depends on. Serial baud defaults to
// 9600 rather than failing so a bare {"type":"serial"} output works.
func (c *Config) Validate() error {
	if c.IntervalMs <= 0 {
		return errors.New("interval-ms must be > 0")
	}
	if c.VRef <= 0 {
		return errors.New("vref must be > 0")
	}
	if c.CurrentSensitivity <= 0 {
		return errors.New("current-sensitivity must be > 0")
	}
	if c.CurrentDeadband < 0 {
		return errors.New("current-deadband must be >= 0")
	}
	if err := validChannel(c.VoltageChannel); err != nil {
		return fmt.Errorf("voltage_channel: %w", err)
	}
	if err := validChannel(c.CurrentChannel); err != nil {
		return fmt.Errorf("current_channel: %w", err)
	}
	if p := c.Simulation.TamperProbability; p < 0 || p > 1 {
		return errors.New("tamper-probability must be in [0, 1]")
	}
	if len(c.Outputs) == 0 {
		return errors.New("at least one output is required")
	}
	for i := range c.Outputs {
		if strings.ToLower(c.Outputs[i].Type) == "serial" {
			if c.Outputs[i].Serial == nil {
				c.Outputs[i].Serial = &SerialConfig{}
			}
			if c.Outputs[i].Serial.Baud == 0 {
				c.Outputs[i].Serial.Baud = 9600
			}
			if c.Outputs[i].Serial.Port == "" {
				return errors.New("serial output requires a port")
			}
		}
	}
	return nil
}

func validChannel(ch int) error {
	if ch < 0 || ch > 7 {
		return fmt.Errorf("channel %d out of range 0-7", ch)
	}
	return nil
}

func applySerialFlags(sc *SerialConfig, port string, baud int) {
	if port != "" {
		sc.Port = port
	}
	if baud != -1 {
		sc.Baud = baud
	}
}

func applyMQTTFlags(mc *MQTTConfig, server, user, pass, clientID, topic string) {
	if server != "" {
		mc.Server = server
	}
	if user != "" {
		mc.Username = user
	}
	if pass != "" {
		mc.Password = pass
	}
	if clientID != "" {
		mc.ClientID = clientID
	}
	if topic != "" {
		mc.Topic = topic
	}
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
