package blink

import (
	"blinkcode-go/services/hal"
	"blinkcode-go/types"
)

// Dispatcher decodes feature reports into store and engine operations. It
// implements hal.ReportHandler and runs only in the loop.
type Dispatcher struct {
	cfg    types.DeviceConfig
	store  *Store
	engine *Engine
	wd     hal.Watchdog

	status types.Report

	resetArmed bool
	reports    uint32
	ignored    uint32
}

var _ hal.ReportHandler = (*Dispatcher)(nil)

func NewDispatcher(cfg types.DeviceConfig, s *Store, e *Engine, wd hal.Watchdog) *Dispatcher {
	return &Dispatcher{cfg: cfg, store: s, engine: e, wd: wd}
}

// SetReport handles a SET_REPORT. The payload is echoed into the status
// buffer whether or not it is acted on.
func (d *Dispatcher) SetReport(payload []byte) {
	d.status = types.Report{}
	copy(d.status[:], payload)

	r := &d.status
	if r[types.OffReportID] != d.cfg.ReportID {
		d.ignored++
		return
	}
	d.reports++

	dest := r[types.OffLED]
	if int(dest) > d.store.Len() {
		dest = types.BroadcastLED
	}
	d.store.Staging = Staging{Color: r.Color(), Duration: r.Duration(), Dest: dest}
	st := d.store.Staging

	switch r[types.OffCommand] {
	case types.CmdFade, types.CmdFadeAlias:
		d.engine.BeginFade(st.Dest, st.Color, st.Duration)
	case types.CmdArmReset:
		d.armReset()
	case types.CmdVersion:
		r[types.OffGreen] = d.cfg.Version[0]
		r[types.OffBlue] = d.cfg.Version[1]
	case types.CmdReadLED:
		c, _ := d.store.Color(int(st.Dest))
		r[types.OffRed] = c.R
		r[types.OffGreen] = c.G
		r[types.OffBlue] = c.B
		r[types.OffDurationHi] = 0
		r[types.OffDurationLo] = 0
		r[types.OffLED] = st.Dest
	}
}

// GetReport returns the status buffer left by the last SET_REPORT.
func (d *Dispatcher) GetReport() types.Report { return d.status }

// ResetArmed reports whether the restart command has been accepted.
func (d *Dispatcher) ResetArmed() bool { return d.resetArmed }

func (d *Dispatcher) armReset() {
	if d.resetArmed {
		return
	}
	if err := d.wd.Arm(d.cfg.ResetTimeout()); err != nil {
		println("[blink] watchdog arm failed:", err.Error())
		return
	}
	d.resetArmed = true
	println("[blink] reset armed")
}
