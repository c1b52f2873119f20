package blink

import (
	"context"
	"testing"
	"time"

	"blinkcode-go/bus"
	"blinkcode-go/drivers/ws281x"
	"blinkcode-go/errcode"
	"blinkcode-go/services/hal"
	"blinkcode-go/types"
)

type rig struct {
	conn    *bus.Connection
	capture *hal.CaptureSPI
	host    *hal.Loopback
	wd      *hal.FakeWatchdog
	ticks   chan time.Time
	state   *bus.Subscription
	stats   *bus.Subscription
	ctx     context.Context
}

func testConfig(leds int) types.DeviceConfig {
	cfg := types.DefaultDeviceConfig()
	cfg.Name = "test"
	cfg.LEDCount = leds
	cfg.StatsEveryTicks = 1
	return cfg
}

// startRig runs a service against a capture line and loopback, with manual
// ticks. cfg, if non-nil, is published before the service starts.
func startRig(t *testing.T, cfg *types.DeviceConfig, delay time.Duration) *rig {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	b := bus.NewBus(32)
	conn := b.NewConnection("test")
	r := &rig{
		conn:    conn,
		capture: hal.NewCaptureSPI(1 << 12),
		host:    hal.NewLoopback(),
		wd:      &hal.FakeWatchdog{},
		ticks:   make(chan time.Time),
		ctx:     ctx,
	}
	r.capture.Delay = delay
	r.state = conn.Subscribe(TopicState)
	r.stats = conn.Subscribe(TopicStats)
	if cfg != nil {
		conn.Publish(conn.NewMessage(TopicConfig, *cfg, true))
	}

	line := ws281x.NewSPILine(r.capture)
	svc := New(conn, line, r.host, r.wd)
	svc.Ticks = r.ticks
	svc.Start(ctx)
	return r
}

func (r *rig) waitLevel(t *testing.T, level types.Level) types.BlinkState {
	t.Helper()
	for {
		select {
		case m := <-r.state.Channel():
			st := m.Payload.(types.BlinkState)
			if st.Level == level {
				return st
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no %s state", level)
		}
	}
}

func (r *rig) waitStatus(t *testing.T, status string) types.BlinkState {
	t.Helper()
	for {
		select {
		case m := <-r.state.Channel():
			st := m.Payload.(types.BlinkState)
			if st.Status == status {
				return st
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no %q status", status)
		}
	}
}

func (r *rig) tick(t *testing.T) types.BlinkStats {
	t.Helper()
	select {
	case r.ticks <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("loop not accepting ticks")
	}
	select {
	case m := <-r.stats.Channel():
		return m.Payload.(types.BlinkStats)
	case <-time.After(2 * time.Second):
		t.Fatal("no stats after tick")
	}
	return types.BlinkStats{}
}

func (r *rig) set(t *testing.T, rep types.Report) {
	t.Helper()
	if err := r.host.SetFeature(r.ctx, rep); err != nil {
		t.Fatal(err)
	}
}

func (r *rig) get(t *testing.T) types.Report {
	t.Helper()
	rep, err := r.host.GetFeature(r.ctx)
	if err != nil {
		t.Fatal(err)
	}
	return rep
}

func (r *rig) frame(t *testing.T, leds int) []byte {
	t.Helper()
	wire := make([]byte, ws281x.WireLen(leds))
	ctx, cancel := context.WithTimeout(r.ctx, 2*time.Second)
	defer cancel()
	if _, err := r.capture.ReadFull(ctx, wire); err != nil {
		t.Fatalf("frame: %v", err)
	}
	grb, err := ws281x.DefaultTiming.Decode(wire)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return grb
}

func TestServiceStreamsFrameInWireOrder(t *testing.T) {
	cfg := testConfig(2)
	r := startRig(t, &cfg, 0)
	r.waitLevel(t, types.LevelRunning)

	r.set(t, types.FadeReport(1, types.RGB(10, 20, 30), 0))
	r.tick(t)
	got := r.frame(t, 2)
	want := []byte{20, 10, 30, 0, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame %v want %v", got, want)
		}
	}
}

func TestServiceFadesOverTicks(t *testing.T) {
	cfg := testConfig(3)
	r := startRig(t, &cfg, 0)
	r.waitLevel(t, types.LevelRunning)

	r.set(t, types.FadeReport(2, types.RGB(100, 0, 50), 4))
	for i := 0; i < 4; i++ {
		st := r.tick(t)
		if i < 3 && st.Fading != 1 {
			t.Fatalf("tick %d fading=%d", i, st.Fading)
		}
	}
	r.set(t, types.CommandReport(types.CmdReadLED, 2))
	want := types.Report{1, 'r', 100, 0, 50, 0, 0, 2}
	if got := r.get(t); got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestServiceCountsOverrun(t *testing.T) {
	cfg := testConfig(2)
	// 48 wire bytes at 2ms each keeps the line busy far past the next tick.
	r := startRig(t, &cfg, 2*time.Millisecond)
	r.waitLevel(t, types.LevelRunning)

	if st := r.tick(t); st.Overruns != 0 {
		t.Fatalf("first tick overran: %+v", st)
	}
	if st := r.tick(t); st.Overruns != 1 {
		t.Fatalf("second tick: %+v", st)
	}
	if st := r.waitStatus(t, string(errcode.Overrun)); st.Level != types.LevelRunning {
		t.Fatalf("overrun state %+v", st)
	}

	r.frame(t, 2)
	time.Sleep(20 * time.Millisecond)
	st := r.tick(t)
	if st.Overruns != 1 || st.Frames < 1 {
		t.Fatalf("after drain: %+v", st)
	}
	r.waitStatus(t, string(errcode.OK))
}

func TestServiceIgnoresWrongReportID(t *testing.T) {
	cfg := testConfig(2)
	r := startRig(t, &cfg, 0)
	r.waitLevel(t, types.LevelRunning)

	rep := types.FadeReport(1, types.RGB(1, 2, 3), 0)
	rep[types.OffReportID] = 7
	r.set(t, rep)
	if got := r.get(t); got != rep {
		t.Fatalf("echo %v want %v", got, rep)
	}
	st := r.tick(t)
	if st.Ignored != 1 || st.Reports != 0 {
		t.Fatalf("stats %+v", st)
	}
	if got := r.frame(t, 2); got[0] != 0 || got[1] != 0 || got[2] != 0 {
		t.Fatalf("led changed: %v", got)
	}
}

func TestServiceArmsReset(t *testing.T) {
	cfg := testConfig(2)
	r := startRig(t, &cfg, 0)
	r.waitLevel(t, types.LevelRunning)

	r.set(t, types.CommandReport(types.CmdArmReset, 0))
	if st := r.waitLevel(t, types.LevelResetArmed); st.Status != string(errcode.ResetArmed) {
		t.Fatalf("status %q", st.Status)
	}
	if armed, d := r.wd.Armed(); !armed || d != cfg.ResetTimeout() {
		t.Fatalf("armed=%v timeout=%v", armed, d)
	}
	// The loop keeps running until the watchdog bites.
	r.tick(t)
}

func TestServiceWaitsForValidConfig(t *testing.T) {
	r := startRig(t, nil, 0)
	r.waitLevel(t, types.LevelIdle)

	bad := testConfig(255)
	bad.TickHz = 400
	r.conn.Publish(r.conn.NewMessage(TopicConfig, bad, true))
	if st := r.waitLevel(t, types.LevelError); st.Status != "frame_budget" {
		t.Fatalf("status %q", st.Status)
	}

	good := testConfig(1)
	r.conn.Publish(r.conn.NewMessage(TopicConfig, &good, true))
	r.waitLevel(t, types.LevelRunning)
	r.tick(t)
	if got := r.frame(t, 1); len(got) != 3 {
		t.Fatalf("frame %v", got)
	}
}

func TestServiceReconfiguresBetweenFrames(t *testing.T) {
	cfg := testConfig(2)
	r := startRig(t, &cfg, 0)
	r.waitLevel(t, types.LevelRunning)

	r.set(t, types.FadeReport(1, types.RGB(9, 9, 9), 0))
	r.tick(t)
	r.frame(t, 2)

	more := testConfig(4)
	r.conn.Publish(r.conn.NewMessage(TopicConfig, more, true))
	// Wait for the loop to pick up the message before ticking.
	time.Sleep(50 * time.Millisecond)
	r.tick(t)
	got := r.frame(t, 4)
	if len(got) != 12 || got[0] != 9 || got[3] != 0 {
		t.Fatalf("frame after resize %v", got)
	}
}

func TestServiceKeepsFadeAcrossReconfig(t *testing.T) {
	cfg := testConfig(2)
	r := startRig(t, &cfg, 0)
	r.waitLevel(t, types.LevelRunning)

	r.set(t, types.FadeReport(1, types.RGB(200, 0, 0), 10))
	for i := 0; i < 3; i++ {
		r.tick(t)
	}

	more := testConfig(4)
	r.conn.Publish(r.conn.NewMessage(TopicConfig, more, true))
	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 20; i++ {
		r.tick(t)
	}

	r.set(t, types.CommandReport(types.CmdReadLED, 1))
	want := types.Report{1, 'r', 200, 0, 0, 0, 0, 1}
	if got := r.get(t); got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestServiceSurvivesHALCloseWhileStreaming(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := types.DefaultDeviceConfig()
	res, err := hal.Open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	res.Capture.Delay = 2 * time.Microsecond

	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	conn.Publish(conn.NewMessage(TopicConfig, cfg, true))
	New(b.NewConnection("blink"), res.Line, res.Transport, res.Watchdog).Start(ctx)

	time.Sleep(25 * time.Millisecond)
	res.Close()
	// The loop keeps ticking into a closed line; it must only count overruns.
	time.Sleep(50 * time.Millisecond)
}
