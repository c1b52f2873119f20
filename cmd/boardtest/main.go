// cmd/boardtest/main.go
package main

import (
	"context"
	"time"

	"blinkcode-go/bus"
	"blinkcode-go/services/blink"
	"blinkcode-go/services/hal"
	"blinkcode-go/types"
)

// ---------- Configuration ----------

const (
	readyTimeout = 5 * time.Second

	// Sequencing timing
	chaseStep  = 80 * time.Millisecond
	fadeTicks  = 100 // 1 s at 100 Hz
	dwell      = 1500 * time.Millisecond
	reqTimeout = 500 * time.Millisecond

	// Cycles: 0 = loop forever
	cyclesToRun = 0
)

var washes = []types.GRB{
	types.RGB(255, 0, 0),
	types.RGB(0, 255, 0),
	types.RGB(0, 0, 255),
	types.RGB(255, 255, 255),
	{},
}

// ---------- Helpers ----------

func waitRunning(c *bus.Connection, d time.Duration) bool {
	sub := c.Subscribe(blink.TopicState)
	defer c.Unsubscribe(sub)

	dead := time.After(d)
	for {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.BlinkState); ok && st.Level == types.LevelRunning {
				return true
			}
		case <-dead:
			return false
		}
	}
}

func set(ctx context.Context, host *hal.Loopback, rep types.Report) bool {
	cctx, cancel := context.WithTimeout(ctx, reqTimeout)
	defer cancel()
	if err := host.SetFeature(cctx, rep); err != nil {
		println("[boardtest] set failed:", err.Error())
		return false
	}
	return true
}

// verify reads LED n back and compares it with want.
func verify(ctx context.Context, host *hal.Loopback, n uint8, want types.GRB) bool {
	if !set(ctx, host, types.CommandReport(types.CmdReadLED, n)) {
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, reqTimeout)
	defer cancel()
	rep, err := host.GetFeature(cctx)
	if err != nil {
		println("[boardtest] get failed:", err.Error())
		return false
	}
	got := types.RGB(rep[types.OffRed], rep[types.OffGreen], rep[types.OffBlue])
	if got != want {
		println("[boardtest] led", int(n), "mismatch r/g/b", int(got.R), int(got.G), int(got.B))
		return false
	}
	return true
}

// ---------- Main ----------

func main() {
	time.Sleep(2 * time.Second)
	ctx := context.Background()
	println("[boardtest] boot …")

	cfg := types.DefaultDeviceConfig()
	cfg.Name = "boardtest"
	res, err := hal.Open(ctx, cfg)
	if err != nil {
		println("[boardtest] hal open failed:", err.Error())
		return
	}

	b := bus.NewBus(8)
	ui := b.NewConnection("ui")
	ui.Publish(ui.NewMessage(blink.TopicConfig, cfg, true))
	blink.New(b.NewConnection("blink"), res.Line, res.Transport, res.Watchdog).Start(ctx)

	if !waitRunning(ui, readyTimeout) {
		println("[boardtest] blink loop did not start")
		return
	}
	println("[boardtest] string of", cfg.LEDCount, "on", res.Board)

	host := res.Host
	for cycle := 1; cyclesToRun == 0 || cycle <= cyclesToRun; cycle++ {
		println("[boardtest] cycle", cycle)
		fails := 0

		// Chase: one LED at a time, immediate sets.
		for i := 1; i <= cfg.LEDCount; i++ {
			set(ctx, host, types.FadeReport(uint8(i), types.RGB(64, 0, 32), 0))
			time.Sleep(chaseStep)
			set(ctx, host, types.FadeReport(uint8(i), types.GRB{}, 0))
		}

		// Washes: broadcast fades, then read every LED back.
		for _, c := range washes {
			set(ctx, host, types.FadeReport(types.BroadcastLED, c, fadeTicks))
			time.Sleep(dwell)
			for i := 1; i <= cfg.LEDCount; i++ {
				if !verify(ctx, host, uint8(i), c) {
					fails++
				}
			}
		}
		println("[boardtest] cycle", cycle, "mismatches", fails)
	}
	println("[boardtest] done")
}
