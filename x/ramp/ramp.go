// Package ramp implements the 8.8 fixed-point per-tick ramp used to fade a
// single 8-bit colour channel from its current value to a target.
//
// A Channel carries a per-tick rate scaled by 256 (Increment) and the
// sub-integer remainder carried between ticks (Fraction). The whole part of
// Fraction+Increment is applied to the channel each tick in Dir.
//
// Begin uses integer division, so the sum of steps over any prefix of the
// fade never exceeds the distance to the target. The caller must assign
// the target directly on the last tick to absorb the truncation.
package ramp

import "blinkcode-go/x/mathx"

// Direction of travel for a channel.
type Direction uint8

const (
	Down Direction = iota
	Up
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Channel is the ramp state of one colour channel.
type Channel struct {
	Increment uint16 // per-tick step, scaled by 256
	Dir       Direction
	Fraction  uint8 // carried remainder, 1/256 units
}

// Begin derives the ramp that moves cur to target over ticks steps.
// ticks==0 returns the zero Channel; callers treat that as an immediate set.
func Begin(cur, target uint8, ticks uint16) Channel {
	if ticks == 0 {
		return Channel{}
	}
	dir := Down
	if target > cur {
		dir = Up
	}
	dist := uint32(mathx.AbsDiff(cur, target)) << 8 // 0..65280
	return Channel{
		Increment: uint16(dist / uint32(ticks)),
		Dir:       dir,
	}
}

// Step advances v by one tick and returns the new value.
func (c *Channel) Step(v uint8) uint8 {
	sum := uint16(c.Fraction) + c.Increment
	whole := uint8(sum >> 8)
	c.Fraction = uint8(sum)
	if c.Dir == Up {
		return v + whole
	}
	return v - whole
}

// Idle reports whether the channel cannot move.
func (c Channel) Idle() bool { return c.Increment == 0 }
