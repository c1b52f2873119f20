package ws281x

import (
	"sync/atomic"

	"blinkcode-go/errcode"
)

// Line is a byte-oriented serial output with a byte-complete signal.
// Send loads one byte into the shift register; the completion handler runs
// once that byte has left, in the line's own (interrupt-like) context.
// Send must not block when called from the completion handler.
type Line interface {
	Send(b byte)
	SetCompletion(fn func())
}

// State of a Streamer.
type State uint32

const (
	StateIdle State = iota
	StateStreaming
	StateDone // last byte sent, completion masked, not yet observed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Streamer shifts one frame of GRB bytes onto a Line, one encoded bit per
// completion event, then idles until re-armed.
//
// Ownership: between Arm and the next Idle()==true the frame buffer and all
// cursor fields belong to the completion context. The state word is the
// only field both sides touch.
type Streamer struct {
	line   Line
	timing Timing

	state atomic.Uint32

	frame []byte
	pos   int   // next source byte to load
	cur   byte  // source byte being shifted, next bit in bit 7
	bit   uint8 // bits already taken from cur, 0..7

	frames atomic.Uint32
}

// NewStreamer binds a Streamer to line and installs its completion handler.
func NewStreamer(line Line, t Timing) *Streamer {
	s := &Streamer{line: line, timing: t}
	line.SetCompletion(s.complete)
	return s
}

// State returns the current state without folding Done.
func (s *Streamer) State() State { return State(s.state.Load()) }

// Frames returns the number of frames fully shifted out.
func (s *Streamer) Frames() uint32 { return s.frames.Load() }

// Timing returns the line timing.
func (s *Streamer) Timing() Timing { return s.timing }

// Idle reports whether the previous frame has drained. A Done streamer is
// returned to Idle here, from the arming context.
func (s *Streamer) Idle() bool {
	switch State(s.state.Load()) {
	case StateIdle:
		return true
	case StateDone:
		s.state.Store(uint32(StateIdle))
		return true
	default:
		return false
	}
}

// Arm starts shifting frame. The caller must not touch frame until Idle
// reports true again.
func (s *Streamer) Arm(frame []byte) error {
	if len(frame) == 0 {
		return errcode.InvalidParams
	}
	if !s.Idle() {
		return errcode.Busy
	}
	s.frame = frame
	s.pos = 0
	s.bit = 0
	s.state.Store(uint32(StateStreaming))
	s.line.Send(s.next())
	return nil
}

// next produces the wire byte for the next data bit, loading a new source
// byte every 8 bits.
func (s *Streamer) next() byte {
	if s.bit == 0 {
		s.cur = s.frame[s.pos]
		s.pos++
	}
	b := s.timing.EncodeBit(s.cur&0x80 != 0)
	s.cur <<= 1
	s.bit = (s.bit + 1) & 7
	return b
}

// complete is the byte-complete handler.
func (s *Streamer) complete() {
	if State(s.state.Load()) != StateStreaming {
		return
	}
	if s.bit == 0 && s.pos == len(s.frame) {
		s.frame = nil
		s.frames.Add(1)
		s.state.Store(uint32(StateDone))
		return
	}
	s.line.Send(s.next())
}
