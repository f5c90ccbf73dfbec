package config

import (
	"strings"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.IntervalMs != 50 {
		t.Fatalf("default interval: got %d want 50", cfg.IntervalMs)
	}
	if cfg.VRef != 5.0 || cfg.CurrentSensitivity != 37.0 {
		t.Fatalf("default conversion constants: %+v", cfg)
	}
	if cfg.VoltageMin != 2.5 || cfg.CurrentDeadband != 3 {
		t.Fatalf("default thresholds: %+v", cfg)
	}
	if len(cfg.Outputs) != 1 || cfg.Outputs[0].Type != "serial" || cfg.Outputs[0].Serial.Baud != 9600 {
		t.Fatalf("default outputs: %+v", cfg.Outputs)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"zero interval", func(c *Config) { c.IntervalMs = 0 }, "interval"},
		{"zero vref", func(c *Config) { c.VRef = 0 }, "vref"},
		{"zero sensitivity", func(c *Config) { c.CurrentSensitivity = 0 }, "sensitivity"},
		{"negative deadband", func(c *Config) { c.CurrentDeadband = -1 }, "deadband"},
		{"bad voltage channel", func(c *Config) { c.VoltageChannel = 8 }, "voltage_channel"},
		{"bad current channel", func(c *Config) { c.CurrentChannel = -1 }, "current_channel"},
		{"bad probability", func(c *Config) { c.Simulation.TamperProbability = 1.5 }, "probability"},
		{"no outputs", func(c *Config) { c.Outputs = nil }, "output"},
		{"serial without port", func(c *Config) { c.Outputs = []OutputConfig{{Type: "serial"}} }, "port"},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		if !strings.Contains(err.Error(), tt.errSub) {
			t.Fatalf("%s: error %q does not mention %q", tt.name, err, tt.errSub)
		}
	}
}

func TestValidateDefaultsSerialBaud(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Outputs = []OutputConfig{{Type: "serial", Serial: &SerialConfig{Port: "/dev/ttyUSB0"}}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Outputs[0].Serial.Baud != 9600 {
		t.Fatalf("baud not defaulted: %d", cfg.Outputs[0].Serial.Baud)
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"serial", []string{"serial"}},
		{"serial, console ,mqtt", []string{"serial", "console", "mqtt"}},
		{" , ", nil},
	}
	for _, tt := range tests {
		got := parseCSV(tt.in)
		if len(got) != len(tt.want) {
			t.Fatalf("parseCSV(%q) = %v; want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("parseCSV(%q) = %v; want %v", tt.in, got, tt.want)
			}
		}
	}
}
