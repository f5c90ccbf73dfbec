package sensor

import (
	"bytes"
	"testing"
)

func TestRequestForChannel(t *testing.T) {
	tests := []struct {
		ch   int
		want []byte
	}{
		{0, []byte{0x01, 0x80, 0x00}},
		{1, []byte{0x01, 0x90, 0x00}},
		{7, []byte{0x01, 0xF0, 0x00}},
	}
	for _, tt := range tests {
		got, err := requestForChannel(tt.ch)
		if err != nil {
			t.Fatalf("channel %d: unexpected error: %v", tt.ch, err)
		}
		if !bytes.Equal(got, tt.want) {
			t.Fatalf("channel %d: got % 02X; want % 02X", tt.ch, got, tt.want)
		}
	}

	for _, ch := range []int{-1, 8} {
		if _, err := requestForChannel(ch); err == nil {
			t.Fatalf("expected error for channel %d", ch)
		}
	}
}

func TestDecodeConversion(t *testing.T) {
	tests := []struct {
		rx   []byte
		want uint16
	}{
		{[]byte{0x00, 0x00, 0x00}, 0},
		{[]byte{0x00, 0x01, 0x00}, 256},
		{[]byte{0x00, 0x02, 0x00}, 512},
		{[]byte{0x00, 0x03, 0xFF}, 1023},
		// bits above the 10-bit result are undefined and must be masked
		{[]byte{0xFF, 0xFF, 0xFF}, 1023},
	}
	for _, tt := range tests {
		if got := decodeConversion(tt.rx); got != tt.want {
			t.Fatalf("decode(% 02X) = %d; want %d", tt.rx, got, tt.want)
		}
	}
}
