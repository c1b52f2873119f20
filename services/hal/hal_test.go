package hal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"blinkcode-go/errcode"
	"blinkcode-go/types"
)

// echoHandler keeps the last SET payload as its status buffer.
type echoHandler struct {
	mu   sync.Mutex
	st   types.Report
	sets int
}

func (h *echoHandler) SetReport(p []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	copy(h.st[:], p)
	h.sets++
}

func (h *echoHandler) GetReport() types.Report {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st
}

// serve polls tr until ctx ends, as the blink loop does.
func serve(ctx context.Context, tr Transport, h ReportHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tr.Ready():
			for tr.Poll(h) {
			}
		}
	}
}

func TestLoopbackSetThenGet(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	lb := NewLoopback()
	h := &echoHandler{}
	go serve(ctx, lb, h)

	want := types.FadeReport(3, types.RGB(1, 2, 3), 50)
	if err := lb.SetFeature(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := lb.GetFeature(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
	if h.sets != 1 {
		t.Fatalf("sets=%d", h.sets)
	}
}

func TestLoopbackPollIdle(t *testing.T) {
	lb := NewLoopback()
	if lb.Poll(&echoHandler{}) {
		t.Fatal("poll serviced a request that was never sent")
	}
}

func TestLoopbackTimesOutWithoutLoop(t *testing.T) {
	lb := NewLoopback()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := lb.GetFeature(ctx)
	if errcode.Of(err) != errcode.Timeout {
		t.Fatalf("want timeout, got %v", err)
	}
}

func TestFrameParserSkipsNoise(t *testing.T) {
	var p frameParser
	in := []byte{'x', 0, 'S', 1, 'c', 10, 20, 30, 0, 5, 2, 'G'}
	var kinds []frameKind
	var last types.Report
	for _, b := range in {
		k, r := p.feed(b)
		if k == frameSet {
			last = r
		}
		kinds = append(kinds, k)
	}
	if kinds[0] != frameSkip || kinds[1] != frameSkip {
		t.Fatalf("noise not skipped: %v", kinds[:2])
	}
	if kinds[10] != frameSet || kinds[11] != frameGet {
		t.Fatalf("frames not decoded: %v", kinds)
	}
	want := types.Report{1, 'c', 10, 20, 30, 0, 5, 2}
	if last != want {
		t.Fatalf("got %v want %v", last, want)
	}
}

func TestSerialTransportRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	host, dev := NewPipe(64)
	tr := NewSerialTransport(ctx, dev)
	h := &echoHandler{}
	go serve(ctx, tr, h)

	rep := types.CommandReport(types.CmdVersion, 0)
	frame := append([]byte{'?', FrameSet}, rep[:]...)
	frame = append(frame, FrameGet)
	if _, err := host.Write(frame); err != nil {
		t.Fatal(err)
	}

	var got []byte
	buf := make([]byte, types.ReportSize)
	for len(got) < types.ReportSize {
		n, err := host.RecvSomeContext(ctx, buf)
		if err != nil {
			t.Fatalf("reply: %v", err)
		}
		got = append(got, buf[:n]...)
	}
	if types.Report(got) != rep {
		t.Fatalf("got %v want %v", got, rep)
	}
	if tr.Skipped() != 1 {
		t.Fatalf("skipped=%d", tr.Skipped())
	}
}

func TestOpenHostUsesLoopbackAndCapture(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, err := Open(ctx, types.DefaultDeviceConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Host == nil || r.Capture == nil || r.Line == nil || r.Watchdog == nil {
		t.Fatalf("incomplete host resources: %+v", r)
	}
	if r.Transport != Transport(r.Host) {
		t.Fatal("host transport should be the loopback")
	}
}

// brokenPort fails every receive immediately.
type brokenPort struct{ calls atomic.Int32 }

func (p *brokenPort) Write(b []byte) (int, error) { return len(b), nil }
func (p *brokenPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	p.calls.Add(1)
	return 0, errors.New("uart fault")
}

func TestSerialTransportBacksOffOnReceiveErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	port := &brokenPort{}
	st := NewSerialTransport(ctx, port)

	time.Sleep(50 * time.Millisecond)
	cancel()

	// 50ms at one attempt per rxBackoff is about 5; a spinning reader
	// would make many thousands.
	n := port.calls.Load()
	if n < 1 || n > 20 {
		t.Fatalf("receive attempts %d", n)
	}
	if st.RecvErrors() == 0 {
		t.Fatal("errors not counted")
	}
}
