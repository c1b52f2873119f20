// services/hal/internal/halcore/types.go
package halcore

import (
	"context"
	"time"

	"blinkcode-go/types"

	"tinygo.org/x/drivers"
)

// ReportHandler is the device side of the feature-report exchange.
// Both methods run in the cooperative loop.
type ReportHandler interface {
	SetReport(payload []byte)
	GetReport() types.Report
}

// Transport delivers host control requests to the loop. Ready signals
// (coalesced) that Poll has work; Poll never blocks and services at most
// one request per call.
type Transport interface {
	Ready() <-chan struct{}
	Poll(h ReportHandler) bool
}

// Watchdog arms a reset that nothing clears.
type Watchdog interface {
	Arm(timeout time.Duration) error
}

// SerialPort is the minimal byte-stream port used by the serial bridge.
type SerialPort interface {
	Write(p []byte) (int, error)
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

// Platform is what a board provides to the HAL.
type Platform struct {
	Name     string
	SPI      drivers.SPI // LED string data line
	Watchdog Watchdog
	Serial   SerialPort // nil when the board has no command bridge
	Close    func()
}
