package blink

import "blinkcode-go/types"

// Staging is the decoded command target of the last accepted report.
type Staging struct {
	Color    types.GRB
	Duration uint16
	Dest     uint8
}

// Store holds the live colour of every LED. Slot 0 is reserved: it is never
// streamed and reads as black.
type Store struct {
	slots   []types.GRB
	Staging Staging
}

func NewStore(leds int) *Store {
	return &Store{slots: make([]types.GRB, leds+1)}
}

// Len is the number of addressable LEDs.
func (s *Store) Len() int { return len(s.slots) - 1 }

// Color returns the live colour of LED n (0..Len).
func (s *Store) Color(n int) (types.GRB, bool) {
	if n < 0 || n >= len(s.slots) {
		return types.GRB{}, false
	}
	return s.slots[n], true
}

// SetColor writes LED n (1..Len); anything else is ignored.
func (s *Store) SetColor(n int, c types.GRB) {
	if n < 1 || n >= len(s.slots) {
		return
	}
	s.slots[n] = c
}

// Snapshot writes the G,R,B bytes of LEDs 1..Len into dst and returns the
// number of bytes written.
func (s *Store) Snapshot(dst []byte) int {
	n := 0
	for _, c := range s.slots[1:] {
		if n+3 > len(dst) {
			break
		}
		b := c.Bytes()
		n += copy(dst[n:], b[:])
	}
	return n
}
