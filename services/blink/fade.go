package blink

import (
	"blinkcode-go/types"
	"blinkcode-go/x/ramp"
)

// FadeTarget is the in-progress fade of one LED. Ramps are in wire order
// (G, R, B).
type FadeTarget struct {
	Target    types.GRB
	Remaining uint16
	Ramps     [3]ramp.Channel
}

// Engine moves every LED toward its target by one step per Tick.
type Engine struct {
	store *Store
	fades []FadeTarget // indexed like the store; [0] unused
}

func NewEngine(s *Store) *Engine {
	return &Engine{store: s, fades: make([]FadeTarget, s.Len()+1)}
}

// BeginFade starts a fade of LED dest to c over ticks ticks. dest 0 (or any
// index past the end) addresses every LED, each from its own current
// colour. ticks 0 sets the colour immediately.
func (e *Engine) BeginFade(dest uint8, c types.GRB, ticks uint16) {
	n := int(dest)
	if n == types.BroadcastLED || n > e.store.Len() {
		for i := 1; i <= e.store.Len(); i++ {
			e.begin(i, c, ticks)
		}
		return
	}
	e.begin(n, c, ticks)
}

func (e *Engine) begin(n int, c types.GRB, ticks uint16) {
	f := &e.fades[n]
	if ticks == 0 {
		e.store.SetColor(n, c)
		*f = FadeTarget{Target: c}
		return
	}
	cur, _ := e.store.Color(n)
	*f = FadeTarget{
		Target:    c,
		Remaining: ticks,
		Ramps: [3]ramp.Channel{
			ramp.Begin(cur.G, c.G, ticks),
			ramp.Begin(cur.R, c.R, ticks),
			ramp.Begin(cur.B, c.B, ticks),
		},
	}
}

// Tick advances every active fade by one step. The step that exhausts a
// fade lands exactly on the target.
func (e *Engine) Tick() {
	for i := 1; i < len(e.fades); i++ {
		f := &e.fades[i]
		if f.Remaining == 0 {
			continue
		}
		f.Remaining--
		if f.Remaining == 0 {
			e.store.SetColor(i, f.Target)
			continue
		}
		c, _ := e.store.Color(i)
		c.G = f.Ramps[0].Step(c.G)
		c.R = f.Ramps[1].Step(c.R)
		c.B = f.Ramps[2].Step(c.B)
		e.store.SetColor(i, c)
	}
}

// carry takes over the fades of LEDs that exist in both engines. The store
// must already hold their current colours.
func (e *Engine) carry(old *Engine) {
	copy(e.fades[1:], old.fades[1:])
}

// Fade returns the fade state of LED n.
func (e *Engine) Fade(n int) (FadeTarget, bool) {
	if n < 1 || n >= len(e.fades) {
		return FadeTarget{}, false
	}
	return e.fades[n], true
}

// Fading counts LEDs with a fade in progress.
func (e *Engine) Fading() int {
	k := 0
	for i := 1; i < len(e.fades); i++ {
		if e.fades[i].Remaining > 0 {
			k++
		}
	}
	return k
}
