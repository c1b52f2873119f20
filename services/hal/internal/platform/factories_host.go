// services/hal/internal/platform/factories_host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"blinkcode-go/services/hal/internal/halcore"
	"blinkcode-go/services/hal/internal/platform/boards"
	"blinkcode-go/types"
)

// captureSize holds several frames of the largest string.
const captureSize = 1 << 16

// Default builds the host platform: a capture SPI, a watchdog that only
// reports, and no serial bridge (the host talks through the loopback).
func Default(cfg types.DeviceConfig) (halcore.Platform, error) {
	wd := &FakeWatchdog{OnReset: func() { println("[hal] watchdog expired (host, no reset)") }}
	return halcore.Platform{
		Name:     boards.Selected.Name,
		SPI:      NewCaptureSPI(captureSize),
		Watchdog: wd,
	}, nil
}
