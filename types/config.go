package types

import (
	"time"

	"blinkcode-go/drivers/ws281x"
	"blinkcode-go/errcode"
	"blinkcode-go/x/mathx"
	"blinkcode-go/x/timex"
)

// Device configuration supplied on topic "config/blink".

type DeviceConfig struct {
	Name     string `json:"name,omitempty"`
	LEDCount int    `json:"led_count"`
	TickHz   uint32 `json:"tick_hz"`

	ReportID uint8  `json:"report_id"`
	Version  string `json:"version"` // two ASCII characters

	ResetTimeoutMs uint32 `json:"reset_timeout_ms"`

	Wire WireTiming `json:"wire"`

	// BudgetPercent caps the worst-case frame time as a share of the tick
	// period.
	BudgetPercent uint32 `json:"budget_percent"`

	// StatsEveryTicks sets how often the loop publishes blink/stats; 0 = off.
	StatsEveryTicks uint32 `json:"stats_every_ticks,omitempty"`
}

// WireTiming is the serial-line contract for the LED string: the byte sent
// for a logical 1 and 0, and the serial clock.
type WireTiming struct {
	One       byte   `json:"one"`
	Zero      byte   `json:"zero"`
	BitRateHz uint32 `json:"bit_rate_hz"`
}

const MaxLEDs = 255

func DefaultWireTiming() WireTiming {
	t := ws281x.DefaultTiming
	return WireTiming{One: t.One, Zero: t.Zero, BitRateHz: t.BitRateHz}
}

// Timing converts to the driver's line timing.
func (w WireTiming) Timing() ws281x.Timing {
	return ws281x.Timing{One: w.One, Zero: w.Zero, BitRateHz: w.BitRateHz}
}

func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Name:            "blink0",
		LEDCount:        18,
		TickHz:          100,
		ReportID:        DefaultReportID,
		Version:         "23",
		ResetTimeoutMs:  2048,
		Wire:            DefaultWireTiming(),
		BudgetPercent:   25,
		StatsEveryTicks: 100,
	}
}

// WithDefaults fills zero fields from DefaultDeviceConfig.
func (c DeviceConfig) WithDefaults() DeviceConfig {
	d := DefaultDeviceConfig()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.LEDCount == 0 {
		c.LEDCount = d.LEDCount
	}
	if c.TickHz == 0 {
		c.TickHz = d.TickHz
	}
	if c.ReportID == 0 {
		c.ReportID = d.ReportID
	}
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.ResetTimeoutMs == 0 {
		c.ResetTimeoutMs = d.ResetTimeoutMs
	}
	if c.Wire == (WireTiming{}) {
		c.Wire = d.Wire
	}
	if c.BudgetPercent == 0 {
		c.BudgetPercent = d.BudgetPercent
	}
	return c
}

// Period is the tick period.
func (c DeviceConfig) Period() time.Duration { return timex.PeriodFromHz(c.TickHz) }

// FrameTime is the worst-case time to shift one frame onto the wire.
func (c DeviceConfig) FrameTime() time.Duration {
	return c.Wire.Timing().FrameDuration(c.LEDCount)
}

// FrameBudget is the share of the period a frame may occupy.
func (c DeviceConfig) FrameBudget() time.Duration {
	return c.Period() * time.Duration(c.BudgetPercent) / 100
}

// ResetTimeout is the watchdog timeout armed by the reset command.
func (c DeviceConfig) ResetTimeout() time.Duration {
	return time.Duration(c.ResetTimeoutMs) * time.Millisecond
}

// Validate checks ranges and the frame scheduling invariant: a frame must
// drain well inside one tick so the next tick never meets a busy line.
func (c DeviceConfig) Validate() error {
	const op = "config"
	switch {
	case !mathx.Between(c.LEDCount, 1, MaxLEDs):
		return errcode.Wrap(errcode.InvalidParams, op, "led_count out of range")
	case c.TickHz == 0:
		return errcode.Wrap(errcode.InvalidParams, op, "tick_hz must be > 0")
	case c.Wire.BitRateHz == 0:
		return errcode.Wrap(errcode.InvalidParams, op, "bit_rate_hz must be > 0")
	case c.Wire.One == c.Wire.Zero:
		return errcode.Wrap(errcode.InvalidParams, op, "wire one and zero patterns must differ")
	case len(c.Version) != 2:
		return errcode.Wrap(errcode.InvalidParams, op, "version must be two characters")
	case !mathx.Between(c.BudgetPercent, 1, 100):
		return errcode.Wrap(errcode.InvalidParams, op, "budget_percent out of range")
	}
	if c.FrameTime() > c.FrameBudget() {
		return errcode.Wrap(errcode.FrameBudget, op,
			"frame "+c.FrameTime().String()+" exceeds budget "+c.FrameBudget().String())
	}
	return nil
}
