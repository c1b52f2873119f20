// services/hal/hal.go
package hal

import (
	"context"

	"blinkcode-go/drivers/ws281x"
	"blinkcode-go/services/hal/internal/halcore"
	"blinkcode-go/services/hal/internal/platform"
	"blinkcode-go/types"
)

// Collaborator contracts, re-exported for services.
type (
	ReportHandler = halcore.ReportHandler
	Transport     = halcore.Transport
	Watchdog      = halcore.Watchdog
	SerialPort    = halcore.SerialPort
)

// Host fakes, re-exported for tests and the simulator.
type (
	CaptureSPI   = platform.CaptureSPI
	FakeWatchdog = platform.FakeWatchdog
	PipePort     = platform.PipePort
)

var (
	NewCaptureSPI = platform.NewCaptureSPI
	NewPipe       = platform.NewPipe
)

// Resources is everything the blink service needs from the board.
type Resources struct {
	Board     string
	Line      *ws281x.SPILine
	Transport Transport
	Watchdog  Watchdog

	// Host is the in-process host side of the transport. On serial boards
	// it is shared with the UART bridge.
	Host    *Loopback
	Capture *CaptureSPI // non-nil when the LED line is captured (host builds)

	Close func()
}

// Open brings up the selected platform for cfg. Serial boards get the UART
// bridge as transport; the rest get a bare in-process loopback.
func Open(ctx context.Context, cfg types.DeviceConfig) (Resources, error) {
	p, err := platform.Default(cfg)
	if err != nil {
		println("[hal] platform init failed:", err.Error())
		return Resources{}, err
	}

	r := Resources{
		Board:    p.Name,
		Line:     ws281x.NewSPILine(p.SPI),
		Watchdog: p.Watchdog,
	}
	if c, ok := p.SPI.(*CaptureSPI); ok {
		r.Capture = c
	}

	cctx, cancel := context.WithCancel(ctx)
	if p.Serial != nil {
		st := NewSerialTransport(cctx, p.Serial)
		r.Transport = st
		r.Host = st.Loopback
		println("[hal] board", p.Name, "transport serial")
	} else {
		lb := NewLoopback()
		r.Transport = lb
		r.Host = lb
		println("[hal] board", p.Name, "transport loopback")
	}

	line := r.Line
	r.Close = func() {
		cancel()
		line.Close()
		if p.Close != nil {
			p.Close()
		}
	}
	return r, nil
}
