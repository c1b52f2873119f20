// services/hal/internal/platform/fakes.go
package platform

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"blinkcode-go/errcode"
	"blinkcode-go/x/shmring"
)

// ----------------------------- SPI capture -----------------------------------

// CaptureSPI implements tinygo drivers.SPI by recording every byte written
// into a ring. Readers drain it with ReadFull. When the ring
// is full further bytes are dropped and counted by the ring.
type CaptureSPI struct {
	ring  *shmring.Ring
	sent  atomic.Uint64
	Delay time.Duration // per byte, to stretch frames in tests
}

// NewCaptureSPI allocates a capture ring of size bytes (power of two).
func NewCaptureSPI(size int) *CaptureSPI {
	return &CaptureSPI{ring: shmring.New(size)}
}

func (c *CaptureSPI) Transfer(b byte) (byte, error) {
	if c.Delay > 0 {
		time.Sleep(c.Delay)
	}
	c.ring.PutByte(b)
	c.sent.Add(1)
	return 0, nil
}

func (c *CaptureSPI) Tx(w, r []byte) error {
	for i, b := range w {
		rb, _ := c.Transfer(b)
		if i < len(r) {
			r[i] = rb
		}
	}
	return nil
}

// Sent is the number of bytes transferred so far, dropped ones included.
func (c *CaptureSPI) Sent() uint64 { return c.sent.Load() }

// ReadFull blocks until len(dst) captured bytes have been read or ctx ends.
func (c *CaptureSPI) ReadFull(ctx context.Context, dst []byte) (int, error) {
	n := 0
	for n < len(dst) {
		if k := c.ring.TryReadInto(dst[n:]); k > 0 {
			n += k
			continue
		}
		select {
		case <-ctx.Done():
			return n, errcode.Timeout
		case <-c.ring.Readable():
		}
	}
	return n, nil
}

// ----------------------------- Watchdog (host) -------------------------------

// FakeWatchdog records the first Arm and, if OnReset is set, calls it once the
// timeout elapses. Later arms are ignored: a real watchdog cannot be
// disarmed or moved once started.
type FakeWatchdog struct {
	OnReset func()

	mu      sync.Mutex
	armed   bool
	timeout time.Duration
	fired   chan struct{}
}

func (w *FakeWatchdog) init() {
	if w.fired == nil {
		w.fired = make(chan struct{})
	}
}

func (w *FakeWatchdog) Arm(timeout time.Duration) error {
	if timeout <= 0 {
		return errcode.InvalidParams
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.init()
	if w.armed {
		return nil
	}
	w.armed = true
	w.timeout = timeout
	time.AfterFunc(timeout, func() {
		close(w.fired)
		if w.OnReset != nil {
			w.OnReset()
		}
	})
	return nil
}

// Armed reports whether Arm has been called and the armed timeout.
func (w *FakeWatchdog) Armed() (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed, w.timeout
}

// Fired is closed when the armed timeout elapses.
func (w *FakeWatchdog) Fired() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.init()
	return w.fired
}

// ----------------------------- Serial pipe (host) ----------------------------

// PipePort is one end of an in-memory serial link. Each direction is a ring,
// so each end must have a single writer and a single reader.
type PipePort struct {
	rx   *shmring.Ring
	peer *PipePort
}

// NewPipe returns two connected ports.
func NewPipe(size int) (*PipePort, *PipePort) {
	a := &PipePort{rx: shmring.New(size)}
	b := &PipePort{rx: shmring.New(size)}
	a.peer, b.peer = b, a
	return a, b
}

// Write blocks until all of p is queued for the peer.
func (p *PipePort) Write(b []byte) (int, error) {
	n := 0
	for n < len(b) {
		n += p.peer.rx.TryWriteFrom(b[n:])
		if n < len(b) {
			<-p.peer.rx.Writable()
		}
	}
	return n, nil
}

// RecvSomeContext waits for at least one byte and returns what is available.
func (p *PipePort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	for {
		if n := p.rx.TryReadInto(buf); n > 0 {
			return n, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-p.rx.Readable():
		}
	}
}
