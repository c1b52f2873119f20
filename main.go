package main

import (
	"context"
	"time"

	"blinkcode-go/bus"
	"blinkcode-go/services/blink"
	"blinkcode-go/services/config"
	"blinkcode-go/services/hal"
	"blinkcode-go/services/heartbeat"
	"blinkcode-go/types"
)

func printTopicWith(prefix string, t bus.Topic) {
	print(prefix)
	print(" ")
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			print("/")
		}
		switch v := t.At(i).(type) {
		case string:
			print(v)
		case int:
			print(v)
		default:
			print("?")
		}
	}
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(bootDelay)
	ctx := context.Background()

	println("[main] bootstrapping bus …")
	b := bus.NewBus(8)
	cfgConn := b.NewConnection("config")
	blinkConn := b.NewConnection("blink")
	uiConn := b.NewConnection("ui")

	ctx = context.WithValue(ctx, config.CtxDeviceKey, deviceID)
	println("[main] device", deviceID)
	config.NewConfigService().Start(ctx, cfgConn)

	// The HAL needs the wire timing before anything can run.
	sub := uiConn.Subscribe(blink.TopicConfig)
	var cfg types.DeviceConfig
	select {
	case m := <-sub.Channel():
		cfg, _ = m.Payload.(types.DeviceConfig)
	case <-time.After(5 * time.Second):
		println("[main] no config for", deviceID, "- using defaults")
		cfg = types.DefaultDeviceConfig()
	}
	uiConn.Unsubscribe(sub)

	res, err := hal.Open(ctx, cfg)
	if err != nil {
		println("[main] hal open failed:", err.Error())
		for {
			time.Sleep(time.Second)
		}
	}

	mon := uiConn.Subscribe(blink.TopicState)
	go func() {
		for m := range mon.Channel() {
			if st, ok := m.Payload.(types.BlinkState); ok {
				printTopicWith("[monitor] <-", m.Topic)
				println("", string(st.Level), st.Status)
			}
		}
	}()

	println("[main] starting blink on", res.Board, "…")
	blink.New(blinkConn, res.Line, res.Transport, res.Watchdog).Start(ctx)
	_ = (&heartbeat.Service{}).Start(ctx, uiConn)

	select {}
}
