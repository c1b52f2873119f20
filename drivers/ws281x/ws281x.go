// Package ws281x drives a WS281x-class addressable LED string through a
// synchronous serial line, one serial byte per LED data bit.
//
// Each LED takes 3 bytes in G, R, B order (24 data bits, MSB first). A data
// bit is sent as a full serial byte whose duty cycle encodes the value:
//
//	Timing.One  wide high pulse  -> logical 1
//	Timing.Zero narrow high pulse -> logical 0
//
// The exact patterns depend on the serial clock; DefaultTiming assumes
// 8 serial clocks per WS281x bit at 6.4 MHz (1.25 us bit, 800 kHz data rate).
//
// Transmission is interrupt-shaped: Streamer.Arm sends the first byte and
// every byte-complete event on the Line sends the next one, so no caller
// ever waits on the wire.
package ws281x

import (
	"errors"
	"time"

	"blinkcode-go/x/timex"
)

// Wire geometry.
const (
	BytesPerLED  = 3
	BitsPerLED   = BytesPerLED * 8
	ClocksPerBit = 8 // serial clocks per encoded data bit
)

// Errors returned by Decode.
var (
	ErrPattern = errors.New("ws281x: bad pattern")
	ErrLength  = errors.New("ws281x: bad frame length")
)

// Timing is the serial-line contract for the string.
type Timing struct {
	One       byte
	Zero      byte
	BitRateHz uint32
}

// DefaultTiming targets WS2812B at 6.4 MHz SPI.
var DefaultTiming = Timing{One: 0xF8, Zero: 0xC0, BitRateHz: 6_400_000}

// EncodeBit returns the serial byte for one data bit.
func (t Timing) EncodeBit(set bool) byte {
	if set {
		return t.One
	}
	return t.Zero
}

// Encode appends the wire bytes for src (GRB bytes) to dst.
func (t Timing) Encode(dst, src []byte) []byte {
	for _, b := range src {
		for i := 0; i < 8; i++ {
			dst = append(dst, t.EncodeBit(b&0x80 != 0))
			b <<= 1
		}
	}
	return dst
}

// Decode recovers the GRB bytes from captured wire bytes.
func (t Timing) Decode(wire []byte) ([]byte, error) {
	if len(wire)%8 != 0 {
		return nil, ErrLength
	}
	out := make([]byte, 0, len(wire)/8)
	var cur byte
	for i, w := range wire {
		cur <<= 1
		switch w {
		case t.One:
			cur |= 1
		case t.Zero:
		default:
			return nil, ErrPattern
		}
		if i&7 == 7 {
			out = append(out, cur)
			cur = 0
		}
	}
	return out, nil
}

// FrameDuration is the time to shift out leds LEDs at the line's bit rate.
func (t Timing) FrameDuration(leds int) time.Duration {
	return timex.BitsAt(uint64(leds)*BitsPerLED*ClocksPerBit, t.BitRateHz)
}

// WireLen is the number of serial bytes in a frame of leds LEDs.
func WireLen(leds int) int { return leds * BitsPerLED }
