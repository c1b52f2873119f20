// services/hal/serial.go
package hal

import (
	"context"
	"sync/atomic"
	"time"

	"blinkcode-go/types"
)

// Serial bridge framing. The host sends
//
//	'S' r0..r7   set feature report (no reply)
//	'G'          get feature report (device replies r0..r7)
//
// Bytes outside a frame are skipped until the next 'S' or 'G'.
const (
	FrameSet byte = 'S'
	FrameGet byte = 'G'
)

// rxBackoff is the pause after a failed receive.
const rxBackoff = 10 * time.Millisecond

// SerialTransport carries feature reports over a byte stream. A reader
// goroutine decodes frames and hands them to the loop through a Loopback,
// so the loop sees the same Poll contract as on the host.
type SerialTransport struct {
	*Loopback
	port    SerialPort
	skipped atomic.Uint32
	rxErrs  atomic.Uint32
}

// NewSerialTransport starts the reader; it stops when ctx ends.
func NewSerialTransport(ctx context.Context, port SerialPort) *SerialTransport {
	t := &SerialTransport{Loopback: NewLoopback(), port: port}
	go t.run(ctx)
	return t
}

// Skipped counts bytes discarded while looking for a frame start.
func (t *SerialTransport) Skipped() uint32 { return t.skipped.Load() }

// RecvErrors counts failed receives from the port.
func (t *SerialTransport) RecvErrors() uint32 { return t.rxErrs.Load() }

func (t *SerialTransport) run(ctx context.Context) {
	var p frameParser
	buf := make([]byte, 32)
	for {
		n, err := t.port.RecvSomeContext(ctx, buf)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if t.rxErrs.Add(1) == 1 {
				println("[hal] serial receive failed:", err.Error())
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(rxBackoff):
			}
			continue
		}
		for _, b := range buf[:n] {
			kind, rep := p.feed(b)
			switch kind {
			case frameSet:
				if err := t.SetFeature(ctx, rep); err != nil {
					return
				}
			case frameGet:
				rep, err := t.GetFeature(ctx)
				if err != nil {
					return
				}
				if _, err := t.port.Write(rep[:]); err != nil {
					println("[hal] serial reply failed:", err.Error())
				}
			case frameSkip:
				t.skipped.Add(1)
			}
		}
	}
}

type frameKind uint8

const (
	framePending frameKind = iota // mid-frame
	frameSkip                     // byte discarded
	frameSet
	frameGet
)

// frameParser is the byte-at-a-time frame decoder.
type frameParser struct {
	in  bool
	n   int
	rep types.Report
}

func (p *frameParser) feed(b byte) (frameKind, types.Report) {
	if p.in {
		p.rep[p.n] = b
		p.n++
		if p.n < types.ReportSize {
			return framePending, types.Report{}
		}
		p.in = false
		return frameSet, p.rep
	}
	switch b {
	case FrameSet:
		p.in, p.n = true, 0
		return framePending, types.Report{}
	case FrameGet:
		return frameGet, types.Report{}
	}
	return frameSkip, types.Report{}
}
