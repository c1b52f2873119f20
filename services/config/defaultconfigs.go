package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON for that device. "blink" is decoded into types.DeviceConfig;
// any other key is published as-is under config/<key>.
// -----------------------------------------------------------------------------

// blink0: the stock 18-LED string at 100 Hz.
const cfgBlink0 = `{
  "blink": {
    "name": "blink0",
    "led_count": 18,
    "tick_hz": 100,
    "report_id": 1,
    "version": "23",
    "reset_timeout_ms": 2048,
    "wire": {"one": 248, "zero": 192, "bit_rate_hz": 6400000},
    "budget_percent": 25,
    "stats_every_ticks": 100
  },
  "heartbeat": {
    "interval": 5
  }
}`

// pico: same string on a Pico; the RP2040 watchdog tops out near 8 s.
const cfgPico = `{
  "blink": {
    "name": "pico",
    "led_count": 18,
    "tick_hz": 100,
    "reset_timeout_ms": 1000,
    "stats_every_ticks": 100
  },
  "heartbeat": {
    "interval": 2
  }
}`

// sim: host simulator, short string, stats every tick.
const cfgSim = `{
  "blink": {
    "name": "sim",
    "led_count": 8,
    "tick_hz": 50,
    "reset_timeout_ms": 500,
    "stats_every_ticks": 50
  },
  "heartbeat": {
    "interval": 0
  }
}`

var embeddedConfigs = map[string][]byte{
	"blink0": []byte(cfgBlink0),
	"pico":   []byte(cfgPico),
	"sim":    []byte(cfgSim),
}
