// services/hal/loopback.go
package hal

import (
	"context"

	"blinkcode-go/errcode"
	"blinkcode-go/types"
)

type request struct {
	set   bool
	rep   types.Report
	reply chan types.Report
}

// Loopback pairs an in-process host with the device loop. The host side
// blocks until the loop has serviced its request; the device side (Poll)
// never blocks.
type Loopback struct {
	reqs  chan request
	ready chan struct{}
}

func NewLoopback() *Loopback {
	return &Loopback{
		reqs:  make(chan request, 1),
		ready: make(chan struct{}, 1),
	}
}

// ---- device side ----

func (l *Loopback) Ready() <-chan struct{} { return l.ready }

// Poll services at most one pending request.
func (l *Loopback) Poll(h ReportHandler) bool {
	select {
	case req := <-l.reqs:
		if req.set {
			h.SetReport(req.rep[:])
		}
		req.reply <- h.GetReport()
		if len(l.reqs) > 0 {
			l.signal()
		}
		return true
	default:
		return false
	}
}

// ---- host side ----

// SetFeature delivers a SET_REPORT and waits until the loop has handled it.
func (l *Loopback) SetFeature(ctx context.Context, r types.Report) error {
	_, err := l.do(ctx, request{set: true, rep: r})
	return err
}

// GetFeature returns the device's status buffer.
func (l *Loopback) GetFeature(ctx context.Context) (types.Report, error) {
	return l.do(ctx, request{})
}

func (l *Loopback) do(ctx context.Context, req request) (types.Report, error) {
	req.reply = make(chan types.Report, 1)
	select {
	case l.reqs <- req:
	case <-ctx.Done():
		return types.Report{}, errcode.Wrap(errcode.Timeout, "loopback", "request not accepted")
	}
	l.signal()
	select {
	case rep := <-req.reply:
		return rep, nil
	case <-ctx.Done():
		return types.Report{}, errcode.Wrap(errcode.Timeout, "loopback", "no reply")
	}
}

func (l *Loopback) signal() {
	select {
	case l.ready <- struct{}{}:
	default:
	}
}
