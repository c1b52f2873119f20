package platform

import (
	"context"
	"testing"
	"time"
)

func TestCaptureSPIRecordsBytes(t *testing.T) {
	c := NewCaptureSPI(16)
	if err := c.Tx([]byte{1, 2, 3}, nil); err != nil {
		t.Fatal(err)
	}
	_, _ = c.Transfer(4)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got := make([]byte, 4)
	if n, err := c.ReadFull(ctx, got); err != nil || n != 4 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	for i, b := range got {
		if b != byte(i+1) {
			t.Fatalf("byte %d = %d", i, b)
		}
	}
	if c.Sent() != 4 {
		t.Fatalf("sent=%d", c.Sent())
	}
}

func TestCaptureSPIReadFullTimesOut(t *testing.T) {
	c := NewCaptureSPI(16)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.ReadFull(ctx, make([]byte, 1)); err == nil {
		t.Fatal("expected timeout")
	}
}

func TestFakeWatchdogArmsOnce(t *testing.T) {
	reset := make(chan struct{}, 2)
	w := &FakeWatchdog{OnReset: func() { reset <- struct{}{} }}

	if err := w.Arm(0); err == nil {
		t.Fatal("zero timeout accepted")
	}
	if err := w.Arm(10 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := w.Arm(time.Hour); err != nil {
		t.Fatal(err)
	}
	if armed, d := w.Armed(); !armed || d != 10*time.Millisecond {
		t.Fatalf("armed=%v timeout=%v", armed, d)
	}
	select {
	case <-w.Fired():
	case <-time.After(time.Second):
		t.Fatal("watchdog never fired")
	}
	select {
	case <-reset:
	case <-time.After(time.Second):
		t.Fatal("OnReset not called")
	}
}

func TestPipeCarriesBytesBothWays(t *testing.T) {
	a, b := NewPipe(8)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Larger than the ring: Write must wait for the reader.
	msg := []byte("0123456789abcdef")
	go func() { _, _ = a.Write(msg) }()

	var got []byte
	buf := make([]byte, 5)
	for len(got) < len(msg) {
		n, err := b.RecvSomeContext(ctx, buf)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != string(msg) {
		t.Fatalf("got %q", got)
	}

	_, _ = b.Write([]byte{'x'})
	n, err := a.RecvSomeContext(ctx, buf)
	if err != nil || n != 1 || buf[0] != 'x' {
		t.Fatalf("reverse: n=%d err=%v", n, err)
	}
}
