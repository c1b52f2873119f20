package ws281x

import (
	"sync"
	"sync/atomic"

	"tinygo.org/x/drivers"
)

// SPILine adapts a tinygo drivers.SPI into a Line. A pump goroutine shifts
// each byte with Transfer and then runs the completion handler, standing in
// for the SPI byte-complete interrupt.
type SPILine struct {
	bus  drivers.SPI
	ch   chan byte
	quit chan struct{}
	once sync.Once
	done atomic.Pointer[func()]

	errs atomic.Uint32
}

// NewSPILine starts the pump for bus. Close stops it.
func NewSPILine(bus drivers.SPI) *SPILine {
	l := &SPILine{bus: bus, ch: make(chan byte, 1), quit: make(chan struct{})}
	go l.pump()
	return l
}

func (l *SPILine) SetCompletion(fn func()) { l.done.Store(&fn) }

// Send queues b. The queue holds one byte, which is free whenever Send is
// called from the completion handler. After Close bytes are dropped.
func (l *SPILine) Send(b byte) {
	select {
	case l.ch <- b:
	case <-l.quit:
	}
}

// Errors counts failed transfers. A failed byte still completes so a frame
// can never wedge the streamer.
func (l *SPILine) Errors() uint32 { return l.errs.Load() }

// Close stops the pump. A frame in flight is cut short and its streamer
// never returns to idle. Safe to call more than once.
func (l *SPILine) Close() { l.once.Do(func() { close(l.quit) }) }

func (l *SPILine) pump() {
	for {
		var b byte
		select {
		case <-l.quit:
			return
		case b = <-l.ch:
		}
		if _, err := l.bus.Transfer(b); err != nil {
			l.errs.Add(1)
		}
		if fn := l.done.Load(); fn != nil && *fn != nil {
			(*fn)()
		}
	}
}
