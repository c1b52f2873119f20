package types

// ---- Common service state (retained on blink/state) ----

type Level string

const (
	LevelIdle       Level = "idle"
	LevelRunning    Level = "running"
	LevelResetArmed Level = "reset_armed"
	LevelStopped    Level = "stopped"
	LevelError      Level = "error"
)

type BlinkState struct {
	Level  Level  `json:"level"`
	Status string `json:"status"` // freeform short code
	TSms   int64  `json:"ts_ms"`
}

// BlinkStats is published on blink/stats.
type BlinkStats struct {
	Ticks    uint32 `json:"ticks"`
	Frames   uint32 `json:"frames"`   // frames fully shifted out
	Overruns uint32 `json:"overruns"` // ticks that found the line still busy
	Reports  uint32 `json:"reports"`  // SET reports accepted (right id)
	Ignored  uint32 `json:"ignored"`  // SET reports dropped (wrong id)
	Fading   int    `json:"fading"`   // LEDs with a fade in progress
	TSms     int64  `json:"ts_ms"`
}
